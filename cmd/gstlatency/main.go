// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Gstlatency summarizes the per-element latency of a GStreamer
// pipeline.
//
// Usage:
//
//	gstlatency [flags] trace.log
//
// The input is a log written by the GStreamer latency tracer, for
// example by running
//
//	GST_DEBUG_COLOR_MODE=off GST_TRACERS="latency(flags=pipeline+element)" \
//	    GST_DEBUG=GST_TRACER:7 GST_DEBUG_FILE=trace.log <app>
//
// Gstlatency collects the element-latency records of every element,
// derives the total latency of the pipeline by sampling all elements
// at -numbins+1 evenly spaced instants, and prints the median, mean,
// standard deviation and variance of every element and of the total.
// For example:
//
//	$ gstlatency trace.log
//	 median     mean    stdev         var  element
//	───────────────────────────────────────────────
//	20.00ms  20.00ms  8.165ms   66.667ms²  queue0
//	10.00ms  10.00ms  5.000ms   25.000ms²  x264enc0
//	───────────────────────────────────────────────
//	20.00ms  21.67ms  18.41ms  338.889ms²  TOTAL
//
// The input may also be a gs://bucket/object URL, or "-" for standard
// input. It may be given by -input instead of as an argument, but not
// both.
//
// # Options
//
// The -begin and -end flags restrict the analysis to records whose
// timestamp, in seconds, lies in [begin, end]. Negative values leave
// that side unbounded.
//
// The -format flag selects the statistics table format: "text"
// (default), "csv", or "html".
//
// The -o flag writes the largest mean latency contributors, TOTAL
// included, either as a line chart (if the file name ends in .png,
// .svg or .pdf) or as CSV (.csv). -maxplots limits the number of
// series and -top clamps the latency axis of the chart.
//
// By default, an element contributes to a TOTAL sample if its nearest
// record is closer to the sample instant than the instant itself is
// to zero. -tolerance instead accepts the nearest record only within
// the given number of seconds.
//
// The -db flag additionally stores the series and statistics in a SQL
// database given as driver:dsn, where driver is "sqlite3", "sqlite"
// (a pure Go sqlite) or "mysql".
// The -prom flag writes the statistics to a file in the Prometheus
// text format, for node_exporter's textfile collector.
//
// Every flag may also be set by a GSTLATENCY_<FLAG> environment
// variable (with - replaced by _) or in the file named by -config.
// Flags take precedence over the environment, which takes precedence
// over the config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/latencyplot/gstlatency/internal/config"
	"github.com/latencyplot/gstlatency/internal/logging"
	"github.com/latencyplot/gstlatency/internal/promexport"
	"github.com/latencyplot/gstlatency/internal/sqlexport"
	"github.com/latencyplot/gstlatency/latseries"
)

var exit = os.Exit // replaced during testing

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "usage: gstlatency [flags] trace.log\n")
	fmt.Fprintf(w, "flags:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func main() {
	log.SetPrefix("gstlatency: ")
	log.SetFlags(0)

	err := gstlatency(os.Stdout, os.Stderr, os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		exit(0)
	case errors.Is(err, config.ErrUsage):
		exit(2)
	default:
		log.Fatal(err)
	}
}

func gstlatency(w, wErr io.Writer, args []string) error {
	fs := config.NewFlagSet("gstlatency", wErr)
	usagePrinted := false
	fs.Usage = func() {
		usagePrinted = true
		usage(wErr, fs)
	}
	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, config.ErrUsage) && !usagePrinted {
			fmt.Fprintf(wErr, "%v\n", err)
			fs.Usage()
		}
		return err
	}

	logger, err := logging.New(cfg.LogLevel, wErr)
	if err != nil {
		return fmt.Errorf("%w: -log-level: %v", config.ErrUsage, err)
	}
	defer logger.Sync()

	ctx := context.Background()
	a, err := analyze(ctx, cfg, logger)
	if err != nil {
		return err
	}

	rows := latseries.Rows(a.all())
	switch cfg.Format {
	case "csv":
		err = latseries.WriteRowsCSV(w, rows)
	case "html":
		err = formatHTML(w, a.input, rows)
	default:
		err = formatText(w, rows)
	}
	if err != nil {
		return err
	}

	if cfg.Output != "" {
		ranked := latseries.Rank(a.all(), cfg.MaxPlots)
		if err := writeOutput(cfg, ranked); err != nil {
			return err
		}
		logger.Info("wrote series", zap.String("file", cfg.Output), zap.Int("series", len(ranked)))
	}

	if cfg.DB != "" {
		if err := exportSQL(ctx, cfg, a, rows, logger); err != nil {
			return err
		}
	}

	if cfg.Prom != "" {
		e := promexport.New()
		e.Add(a.all()...)
		if err := e.WriteFile(cfg.Prom); err != nil {
			return err
		}
		logger.Info("wrote metrics", zap.String("file", cfg.Prom))
	}
	return nil
}

func writeOutput(cfg *config.Config, series []*latseries.Series) error {
	if strings.EqualFold(filepath.Ext(cfg.Output), ".csv") {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		if err := latseries.WriteSeriesCSV(f, series); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	err := latseries.ChartFile(cfg.Output, series, latseries.ChartOptions{Top: cfg.Top})
	if err != nil {
		return fmt.Errorf("writing chart %s: %w", cfg.Output, err)
	}
	return nil
}

func exportSQL(ctx context.Context, cfg *config.Config, a *analysis, rows []latseries.Row, logger *zap.Logger) error {
	driver, dsn, err := cfg.DBTarget()
	if err != nil {
		return err
	}
	db, err := sqlexport.OpenSQL(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	id, err := db.Export(ctx, &sqlexport.Run{
		Input:  a.input,
		Bins:   cfg.NumBins,
		Series: a.all(),
		Rows:   rows,
	})
	if err != nil {
		return fmt.Errorf("exporting to %s database: %w", driver, err)
	}
	logger.Info("exported run", zap.String("driver", driver), zap.Int64("run", id))
	return nil
}
