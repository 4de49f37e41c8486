// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latseries

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ChartOptions configures Chart.
type ChartOptions struct {
	// Title defaults to "Latency per element".
	Title string

	// Top clamps the latency axis to [0, Top] if positive.
	// Otherwise the axis fits the data.
	Top float64

	// Width and Height default to 30cm by 15cm.
	Width, Height vg.Length

	// Format is any format supported by gonum plot, such as "png",
	// "svg" or "pdf". It defaults to "png".
	Format string
}

var totalColor = color.NRGBA{0xFF, 0, 0, 0xFF}

// Chart draws one line per series, in the order given, and writes the
// image to w. The total series is drawn in red.
func Chart(w io.Writer, series []*Series, opts ChartOptions) error {
	if opts.Title == "" {
		opts.Title = "Latency per element"
	}
	if opts.Width == 0 {
		opts.Width = 30 * vg.Centimeter
	}
	if opts.Height == 0 {
		opts.Height = 15 * vg.Centimeter
	}
	if opts.Format == "" {
		opts.Format = "png"
	}

	pl := plot.New()
	pl.Title.Text = opts.Title
	pl.X.Label.Text = "Time [s]"
	pl.Y.Label.Text = "Latency [ms]"
	pl.Add(plotter.NewGrid())

	colorIdx := 0
	for _, s := range series {
		xys := make(plotter.XYs, s.Len())
		for i := range xys {
			xys[i].X = s.Timestamps[i]
			xys[i].Y = s.Latencies[i]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Name, err)
		}
		line.LineStyle.Width = vg.Points(1)
		if s.Kind == Total {
			line.LineStyle.Color = totalColor
			line.LineStyle.Width = vg.Points(1.5)
		} else {
			line.LineStyle.Color = plotutil.Color(colorIdx)
			colorIdx++
		}
		pl.Add(line)
		pl.Legend.Add(s.Name, line)
	}
	pl.Legend.Top = true

	if opts.Top > 0 {
		pl.Y.Min = 0
		pl.Y.Max = opts.Top
	}

	wt, err := pl.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// ChartFile is like Chart, but writes to the named file and takes the
// image format from its extension.
func ChartFile(path string, series []*Series, opts ChartOptions) error {
	opts.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Chart(f, series, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
