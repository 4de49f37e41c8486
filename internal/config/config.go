// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config resolves gstlatency's settings from, in decreasing
// priority, command-line flags, GSTLATENCY_* environment variables,
// an optional config file, and built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/latencyplot/gstlatency/latseries"
)

// ErrUsage reports a command line that cannot be run. The caller
// should print usage.
var ErrUsage = errors.New("usage error")

// Config holds every setting of the command.
type Config struct {
	Input string // trace log path, gs:// URL, or "-"

	NumBins   int
	Begin     float64 // seconds, <0 unbounded
	End       float64 // seconds, <0 unbounded
	Tolerance float64 // 0 keeps the historical TOTAL computation

	Top      float64 // chart latency axis limit, <0 automatic
	MaxPlots int     // <0 plots every series

	Format string // text, csv or html
	Output string // chart (.png, .svg, .pdf) or series CSV (.csv)
	DB     string // driver:dsn
	Prom   string // Prometheus textfile path

	GCSAnonymous bool
	LogLevel     string
	DebugAlign   bool
}

// Formats lists the accepted values of Config.Format.
var Formats = []string{"text", "csv", "html"}

// EnvPrefix is the prefix of environment variables that override
// defaults and config file settings.
const EnvPrefix = "GSTLATENCY"

// NewFlagSet returns the flag set of the command. The -config flag
// names an optional YAML, TOML or JSON file of settings.
func NewFlagSet(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.String("config", "", "read settings from `file` (yaml, toml or json)")
	fs.String("input", "", "the trace log `file` to process (or gs://bucket/object, or - for stdin)")
	fs.Int("numbins", latseries.DefaultBins, "number of measurement `bins` for TOTAL latency computation")
	fs.Float64("begin", -1, "lower bound of time in `seconds` to consider; <0 starts at the beginning")
	fs.Float64("end", -1, "upper bound of time in `seconds` to consider; <0 reads to the end")
	fs.Float64("tolerance", 0, "count a sample toward a TOTAL bin only within `seconds` of it; 0 keeps the classic rule")
	fs.Float64("top", -1, "latency axis limit in `ms` for charts; <0 is automatic")
	fs.Int("maxplots", -1, "plot only the `N` largest mean latency contributors; <0 plots all")
	fs.String("format", "text", "statistics table `format`: text, csv or html")
	fs.String("o", "", "write the chart (.png, .svg, .pdf) or the series (.csv) to `file`")
	fs.String("db", "", "export series and statistics to SQL database `driver:dsn` (sqlite3, sqlite or mysql)")
	fs.String("prom", "", "write statistics as a Prometheus textfile to `file`")
	fs.Bool("gcs-anonymous", false, "read gs:// inputs without credentials")
	fs.String("log-level", "warn", "diagnostic log `level`: debug, info, warn, error")
	fs.Bool("debug-align", false, "log the sample chosen for every element at every TOTAL bin")
	return fs
}

// Load parses args with fs, which must come from NewFlagSet, and
// resolves the final configuration. The first positional argument is
// taken as the input if -input is not set.
//
// Bad command lines yield an error wrapping ErrUsage, or flag.ErrHelp
// if help was requested.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	pfs := pflag.NewFlagSet(fs.Name(), pflag.ContinueOnError)
	pfs.AddGoFlagSet(fs)
	// Viper only prefers a flag over env and config file values if
	// the flag is marked as changed.
	fs.Visit(func(f *flag.Flag) {
		if pf := pfs.Lookup(f.Name); pf != nil {
			pf.Changed = true
		}
	})

	v := viper.New()
	if err := v.BindPFlags(pfs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		Input:        v.GetString("input"),
		NumBins:      v.GetInt("numbins"),
		Begin:        v.GetFloat64("begin"),
		End:          v.GetFloat64("end"),
		Tolerance:    v.GetFloat64("tolerance"),
		Top:          v.GetFloat64("top"),
		MaxPlots:     v.GetInt("maxplots"),
		Format:       strings.ToLower(v.GetString("format")),
		Output:       v.GetString("o"),
		DB:           v.GetString("db"),
		Prom:         v.GetString("prom"),
		GCSAnonymous: v.GetBool("gcs-anonymous"),
		LogLevel:     v.GetString("log-level"),
		DebugAlign:   v.GetBool("debug-align"),
	}
	if cfg.Input != "" && fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: input %q given by -input and as argument %q", ErrUsage, cfg.Input, fs.Arg(0))
	}
	if fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}
	if err := cfg.validate(fs.NArg()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(nargs int) error {
	switch {
	case c.Input == "":
		return fmt.Errorf("%w: no input file", ErrUsage)
	case nargs > 1:
		return fmt.Errorf("%w: only one input file may be given", ErrUsage)
	case c.NumBins <= 0:
		return fmt.Errorf("%w: -numbins must be positive, got %d", ErrUsage, c.NumBins)
	case c.Tolerance < 0:
		return fmt.Errorf("%w: -tolerance must not be negative", ErrUsage)
	case c.Begin >= 0 && c.End >= 0 && c.End < c.Begin:
		return fmt.Errorf("%w: -end %v is before -begin %v", ErrUsage, c.End, c.Begin)
	}
	for _, f := range Formats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown -format %q", ErrUsage, c.Format)
}

// DBTarget splits c.DB into a database driver name and data source
// name.
func (c *Config) DBTarget() (driver, dsn string, err error) {
	driver, dsn, ok := strings.Cut(c.DB, ":")
	if !ok || driver == "" || dsn == "" {
		return "", "", fmt.Errorf("%w: -db %q: want driver:dsn", ErrUsage, c.DB)
	}
	return driver, dsn, nil
}
