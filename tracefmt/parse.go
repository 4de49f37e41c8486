// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracefmt reads the element-latency records written by the
// GStreamer latency tracer.
//
// A trace is produced by running a pipeline with
//
//	GST_DEBUG_COLOR_MODE=off GST_TRACERS="latency(flags=pipeline+element)" \
//	GST_DEBUG=GST_TRACER:7 GST_DEBUG_FILE=trace.log app
//
// Every element-latency record occupies one line of exactly twelve
// whitespace-separated fields:
//
//	0:00:01.234 4242 0x55d0 TRACE GST_TRACER :0:: element-latency, element-id=(string)0x55d0, element=(string)queue0, src=(string)src, time=(guint64)1234, ts=(guint64)5678;
//
// All other lines in the file are ignored.
package tracefmt

import (
	"strconv"
	"strings"
)

// An Observation is one latency measurement of one pipeline element.
type Observation struct {
	// Element is the name of the pipeline element.
	Element string

	// Timestamp is the pipeline clock time of the measurement, in
	// seconds.
	Timestamp float64

	// Latency is the element latency, in milliseconds. It may be
	// negative.
	Latency float64
}

const (
	tracerField  = "GST_TRACER"
	latencyField = "element-latency,"

	// Fixed field count of an element-latency line.
	numFields = 12

	elementPrefix = "element=(string)"
	timePrefix    = "time=(guint64)"
	tsPrefix      = "ts=(guint64)"
)

// ParseLine parses a single trace line. It reports false if line is
// not a well-formed element-latency record.
func ParseLine(line string) (Observation, bool) {
	f := strings.Fields(line)
	if len(f) < 7 || f[4] != tracerField || f[6] != latencyField {
		return Observation{}, false
	}
	if len(f) != numFields {
		return Observation{}, false
	}

	name, ok := fieldValue(f[8], elementPrefix)
	if !ok || name == "" {
		return Observation{}, false
	}
	rawTime, ok := uintField(f[10], timePrefix)
	if !ok {
		return Observation{}, false
	}
	rawTS, ok := uintField(f[11], tsPrefix)
	if !ok {
		return Observation{}, false
	}

	return Observation{
		Element:   name,
		Timestamp: nanosToSeconds(rawTS),
		Latency:   nanosToMillis(rawTime),
	}, true
}

// fieldValue strips prefix and a single trailing delimiter from field.
func fieldValue(field, prefix string) (string, bool) {
	v, ok := strings.CutPrefix(field, prefix)
	if !ok {
		return "", false
	}
	if n := len(v); n > 0 && (v[n-1] == ',' || v[n-1] == ';') {
		v = v[:n-1]
	}
	return v, true
}

func uintField(field, prefix string) (uint64, bool) {
	v, ok := fieldValue(field, prefix)
	if !ok {
		return 0, false
	}
	x, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return x, true
}

// nanosToMillis interprets raw as a two's-complement signed duration
// in nanoseconds and returns it in milliseconds.
func nanosToMillis(raw uint64) float64 {
	return float64(int64(raw)) / 1e6
}

// nanosToSeconds interprets raw as an unsigned clock time in
// nanoseconds and returns it in seconds.
func nanosToSeconds(raw uint64) float64 {
	return float64(raw) / 1e9
}

// A Window restricts observations to a range of timestamps. A negative
// bound leaves that side of the window open.
type Window struct {
	Begin, End float64
}

// Unbounded is a Window that contains every timestamp.
var Unbounded = Window{Begin: -1, End: -1}

// Contains reports whether ts falls inside w. Both bounds are
// inclusive.
func (w Window) Contains(ts float64) bool {
	if w.Begin >= 0 && ts < w.Begin {
		return false
	}
	if w.End >= 0 && ts > w.End {
		return false
	}
	return true
}
