// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latseries

import (
	"sort"

	"github.com/latencyplot/gstlatency/latmath"
)

// Summarize computes and attaches the Summary of every series.
func Summarize(series ...*Series) {
	for _, s := range series {
		sum := latmath.Summarize(s.Latencies)
		s.Summary = &sum
	}
}

// Rank returns series ordered by descending mean latency. Series with
// equal means keep their relative order, and a series without a
// Summary ranks as if its mean were zero. If limit is positive, only the
// first limit series are returned.
//
// series itself is not reordered.
func Rank(series []*Series, limit int) []*Series {
	out := make([]*Series, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool {
		return mean(out[i]) > mean(out[j])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func mean(s *Series) float64 {
	if s.Summary == nil || !s.Summary.Defined() {
		return 0
	}
	return s.Summary.Mean
}

// A Row is one line of the statistics report. Label is for display
// only: an element may be named like the total, so consumers tell the
// total apart by Kind.
type Row struct {
	Label    string
	Kind     Kind
	Median   float64
	Mean     float64
	StdDev   float64
	Variance float64
}

// Rows returns one statistics row per series, in the order given.
// Series without a Summary are summarized first.
func Rows(series []*Series) []Row {
	rows := make([]Row, 0, len(series))
	for _, s := range series {
		if s.Summary == nil {
			Summarize(s)
		}
		sum := s.Summary
		rows = append(rows, Row{
			Label:    s.Label(),
			Kind:     s.Kind,
			Median:   sum.Median,
			Mean:     sum.Mean,
			StdDev:   sum.StdDev,
			Variance: sum.Variance,
		})
	}
	return rows
}
