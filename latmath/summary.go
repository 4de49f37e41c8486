// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package latmath computes descriptive statistics over latency
// measurements.
package latmath

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/stat"
)

// A Summary describes the distribution of a set of latency values.
//
// Variance and StdDev are population statistics: the sum of squared
// deviations is divided by N, not N-1.
type Summary struct {
	N int

	Median   float64
	Mean     float64
	Variance float64
	StdDev   float64

	Min, Max float64
}

// Summarize computes the Summary of values. values is not modified.
//
// If values is empty, every statistic in the result is NaN.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		nan := math.NaN()
		return Summary{Median: nan, Mean: nan, Variance: nan, StdDev: nan, Min: nan, Max: nan}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	sample := stats.Sample{Xs: sorted, Sorted: true}

	mean, variance := stat.PopMeanVariance(values, nil)
	// Rounding can leave a tiny negative variance for constant input.
	if variance < 0 {
		variance = 0
	}
	min, max := sample.Bounds()

	return Summary{
		N:        len(values),
		Median:   sample.Quantile(0.5),
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Min:      min,
		Max:      max,
	}
}

// Defined reports whether s was computed from at least one value.
func (s Summary) Defined() bool {
	return s.N > 0
}
