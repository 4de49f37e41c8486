// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/latencyplot/gstlatency/internal/config"
	"github.com/latencyplot/gstlatency/latseries"
	"github.com/latencyplot/gstlatency/tracefmt"
)

// An analysis is the result of processing one trace.
type analysis struct {
	input string
	elems []*latseries.Series // in first-appearance order
	total *latseries.Series
}

// all returns the element series followed by the total.
func (a *analysis) all() []*latseries.Series {
	return append(append([]*latseries.Series(nil), a.elems...), a.total)
}

func analyze(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*analysis, error) {
	opts := tracefmt.OpenOptions{AllowStdin: true}
	if cfg.GCSAnonymous {
		opts.GCSOptions = append(opts.GCSOptions, option.WithoutAuthentication())
	}
	f, err := tracefmt.Open(ctx, cfg.Input, opts)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var st latseries.Store
	r := tracefmt.NewReader(f, cfg.Input, tracefmt.Window{Begin: cfg.Begin, End: cfg.End})
	if err := st.AddFrom(r); err != nil {
		return nil, err
	}
	logger.Info("read trace",
		zap.String("input", cfg.Input),
		zap.Int("lines", r.Lines()),
		zap.Int("skipped", r.Skipped()),
		zap.Int("elements", st.Len()))

	a := &analysis{input: cfg.Input, elems: st.Series()}
	alignOpts := latseries.AlignOptions{Bins: cfg.NumBins, Tolerance: cfg.Tolerance}
	if cfg.DebugAlign {
		var picks [][]int
		a.total, picks, err = latseries.AlignTrace(a.elems, alignOpts)
		if err == nil {
			logPicks(logger, a.elems, a.total, picks)
		}
	} else {
		a.total, err = latseries.Align(a.elems, alignOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Input, err)
	}

	latseries.Summarize(a.all()...)
	return a, nil
}

func logPicks(logger *zap.Logger, elems []*latseries.Series, total *latseries.Series, picks [][]int) {
	for n, row := range picks {
		for i, idx := range row {
			s := elems[i]
			logger.Debug("aligned",
				zap.Int("bin", n),
				zap.Float64("t", total.Timestamps[n]),
				zap.String("element", s.Name),
				zap.Int("sample", idx),
				zap.Float64("sample_t", s.Timestamps[idx]),
				zap.Float64("latency", s.Latencies[idx]))
		}
	}
}
