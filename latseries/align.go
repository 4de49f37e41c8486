// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latseries

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerate is returned by Align when its input cannot span a
// timeline: there are no series, a series is empty, or the number of
// bins is not positive.
var ErrDegenerate = errors.New("degenerate aggregation input")

// DefaultBins is the default number of bins for Align.
const DefaultBins = 300

// AlignOptions configures Align.
type AlignOptions struct {
	// Bins is the number of intervals the timeline is divided into.
	// The total has Bins+1 points. It must be positive.
	Bins int

	// Tolerance selects which sample contributes to a bin. If
	// Tolerance is positive, an element's nearest sample contributes
	// when it lies within Tolerance seconds of the bin. Otherwise the
	// sample contributes when its distance to the bin is less than the
	// bin's own timestamp, which is how the plotter has always
	// computed TOTAL.
	Tolerance float64
}

func (o AlignOptions) include(binTS, dist float64) bool {
	if o.Tolerance > 0 {
		return dist <= o.Tolerance
	}
	return dist < binTS
}

// Align resamples elems onto Bins+1 evenly spaced timestamps spanning
// the earliest first sample to the latest last sample, and returns the
// Total series whose value at each timestamp is the sum of every
// element's nearest sample that passes the tolerance check.
//
// Nearest samples are found with one forward-only cursor per element,
// so each element's timestamps must be non-decreasing for the result
// to be meaningful.
func Align(elems []*Series, opts AlignOptions) (*Series, error) {
	total, _, err := align(elems, opts, false)
	return total, err
}

// AlignTrace is like Align, but it also returns the sample index
// chosen for every element at every bin: picks[n][i] is the index
// into elems[i] used for bin n.
func AlignTrace(elems []*Series, opts AlignOptions) (total *Series, picks [][]int, err error) {
	return align(elems, opts, true)
}

func align(elems []*Series, opts AlignOptions, trace bool) (*Series, [][]int, error) {
	if opts.Bins <= 0 {
		return nil, nil, fmt.Errorf("%w: %d bins", ErrDegenerate, opts.Bins)
	}
	if len(elems) == 0 {
		return nil, nil, fmt.Errorf("%w: no element series", ErrDegenerate)
	}
	minTS, maxTS := math.Inf(1), math.Inf(-1)
	for _, s := range elems {
		if s.Kind == Total {
			return nil, nil, fmt.Errorf("cannot align total series %q", s.Name)
		}
		if s.Len() == 0 || len(s.Latencies) != s.Len() {
			return nil, nil, fmt.Errorf("%w: series %q has %d timestamps and %d latencies",
				ErrDegenerate, s.Name, s.Len(), len(s.Latencies))
		}
		minTS = math.Min(minTS, s.Timestamps[0])
		maxTS = math.Max(maxTS, s.Timestamps[s.Len()-1])
	}

	dt := (maxTS - minTS) / float64(opts.Bins)
	cursors := make([]int, len(elems))
	total := &Series{
		Name:       TotalName,
		Kind:       Total,
		Timestamps: make([]float64, 0, opts.Bins+1),
		Latencies:  make([]float64, 0, opts.Bins+1),
	}
	var picks [][]int
	if trace {
		picks = make([][]int, 0, opts.Bins+1)
	}

	for n := 0; n <= opts.Bins; n++ {
		ts := minTS + dt*float64(n)
		sum := 0.0
		for i, s := range elems {
			idx := cursors[i]
			xs := s.Timestamps
			for idx+1 < len(xs) && math.Abs(ts-xs[idx+1]) < math.Abs(ts-xs[idx]) {
				idx++
			}
			cursors[i] = idx
			if opts.include(ts, math.Abs(ts-xs[idx])) {
				sum += s.Latencies[idx]
			}
		}
		total.add(ts, sum)
		if trace {
			picks = append(picks, append([]int(nil), cursors...))
		}
	}
	return total, picks, nil
}
