// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package promexport writes latency statistics in the Prometheus text
// exposition format, for node_exporter's textfile collector.
package promexport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/latencyplot/gstlatency/latseries"
)

const namespace = "gstlatency"

// sampleBuckets are the upper bounds, in milliseconds, of the
// per-sample latency histogram.
var sampleBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000}

// An Exporter collects the metrics of one analyzed trace.
type Exporter struct {
	reg *prometheus.Registry

	latency *prometheus.GaugeVec
	samples *prometheus.GaugeVec
	dist    *prometheus.HistogramVec
}

// New returns an Exporter with its own registry.
func New() *Exporter {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Exporter{
		reg: reg,
		latency: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latency_milliseconds",
			Help:      "Latency statistic of a pipeline element (kind=\"element\") or of the whole pipeline (kind=\"total\").",
		}, []string{"element", "kind", "stat"}),
		samples: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "samples",
			Help:      "Number of latency samples of a series.",
		}, []string{"element", "kind"}),
		dist: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_latency_milliseconds",
			Help:      "Distribution of the latency samples of a series.",
			Buckets:   sampleBuckets,
		}, []string{"element", "kind"}),
	}
}

// Add records the statistics and samples of every series. Series
// without a Summary are summarized first.
//
// Series are labeled by name and kind, so an element named like the
// total is exported separately from it.
func (e *Exporter) Add(series ...*latseries.Series) {
	for _, s := range series {
		if s.Summary == nil {
			latseries.Summarize(s)
		}
		name, kind := s.Name, s.Kind.String()
		sum := s.Summary
		e.samples.WithLabelValues(name, kind).Set(float64(sum.N))
		if !sum.Defined() {
			continue
		}
		for _, st := range []struct {
			name string
			v    float64
		}{
			{"median", sum.Median},
			{"mean", sum.Mean},
			{"stdev", sum.StdDev},
			{"var", sum.Variance},
			{"min", sum.Min},
			{"max", sum.Max},
		} {
			e.latency.WithLabelValues(name, kind, st.name).Set(st.v)
		}
		h := e.dist.WithLabelValues(name, kind)
		for _, v := range s.Latencies {
			h.Observe(v)
		}
	}
}

// WriteFile atomically writes e's metrics to path.
func (e *Exporter) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, e.reg)
}
