// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package latseries builds per-element latency time series from a
// GStreamer trace and derives an aggregated total latency series.
//
// Observations are accumulated in a Store as the trace is read. Once
// the trace is exhausted, Align resamples every element series onto a
// common timeline and sums them into a Total series, Summarize
// attaches descriptive statistics, and Rank orders the series for
// presentation.
package latseries

import (
	"fmt"
	"slices"

	"github.com/latencyplot/gstlatency/latmath"
	"github.com/latencyplot/gstlatency/tracefmt"
)

// A Kind distinguishes measured element series from the derived
// total.
type Kind int

const (
	// Element is the series of a single pipeline element.
	Element Kind = iota
	// Total is the aggregated latency of all elements.
	Total
)

func (k Kind) String() string {
	switch k {
	case Element:
		return "element"
	case Total:
		return "total"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// TotalName is the Name of the series produced by Align.
const TotalName = "total"

// A Series is a time series of latency measurements.
//
// Timestamps and Latencies always have the same length. For element
// series, Timestamps are in log order, which the latency tracer
// emits in non-decreasing order.
type Series struct {
	Name string
	Kind Kind

	Timestamps []float64 // seconds
	Latencies  []float64 // milliseconds

	// Summary is nil until Summarize is called.
	Summary *latmath.Summary
}

// Len returns the number of points in s.
func (s *Series) Len() int {
	return len(s.Timestamps)
}

// Label returns the name under which s is reported in statistics
// tables.
func (s *Series) Label() string {
	if s.Kind == Total {
		return "TOTAL"
	}
	return s.Name
}

func (s *Series) add(ts, latency float64) {
	s.Timestamps = append(s.Timestamps, ts)
	s.Latencies = append(s.Latencies, latency)
}

// A Store accumulates observations into one Series per element.
//
// The zero Store is empty and ready to use. A Store is not safe for
// concurrent use.
type Store struct {
	byName map[string]*Series
	order  []*Series
}

// Record appends o to the series of its element, creating the series
// the first time the element is seen.
//
// Observations are not reordered. Out-of-order timestamps within one
// element are kept as given and will degrade Align's results.
func (st *Store) Record(o tracefmt.Observation) {
	st.lookupOrInsert(o.Element).add(o.Timestamp, o.Latency)
}

func (st *Store) lookupOrInsert(name string) *Series {
	if s, ok := st.byName[name]; ok {
		return s
	}
	if st.byName == nil {
		st.byName = make(map[string]*Series)
	}
	s := &Series{Name: name, Kind: Element}
	st.byName[name] = s
	st.order = append(st.order, s)
	return s
}

// AddFrom records every observation r yields and returns r's error,
// if any.
func (st *Store) AddFrom(r *tracefmt.Reader) error {
	for r.Scan() {
		st.Record(r.Result())
	}
	return r.Err()
}

// Lookup returns the series of the named element.
func (st *Store) Lookup(name string) (*Series, bool) {
	s, ok := st.byName[name]
	return s, ok
}

// Len returns the number of distinct elements seen.
func (st *Store) Len() int {
	return len(st.order)
}

// Series returns the element series in the order their elements first
// appeared. The returned slice is a copy; the series are shared.
func (st *Store) Series() []*Series {
	return slices.Clone(st.order)
}
