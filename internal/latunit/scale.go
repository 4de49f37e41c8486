// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package latunit formats latencies, given in milliseconds, with a
// time unit chosen to show at least three significant digits.
package latunit

import (
	"fmt"
	"math"
	"strconv"
)

// A Scaler represents a time unit and precision for formatting
// millisecond values.
type Scaler struct {
	Prec   int     // Digits after the decimal point
	Factor float64 // Milliseconds in one Unit
	Unit   string  // "s", "ms", "µs", "ns"
}

// Format formats ms, a value in milliseconds, in s's unit.
// For example, with a microsecond Scaler, Format(0.0125) returns
// "12.50µs".
func (s Scaler) Format(ms float64) string {
	buf := make([]byte, 0, 20)
	buf = strconv.AppendFloat(buf, ms/s.Factor, 'f', s.Prec, 64)
	buf = append(buf, s.Unit...)
	return string(buf)
}

type factor struct {
	factor float64
	unit   string
	// Thresholds for 100.0, 10.00, 1.000.
	t100, t10, t1 float64
}

var factors = mkFactors()

func mkFactors() []factor {
	// Construct the thresholds by parsing the printed representation
	// so they exactly match how Format rounds.
	var fs []factor
	exp := 3
	for _, unit := range []string{"s", "ms", "µs", "ns"} {
		t100, _ := strconv.ParseFloat(fmt.Sprintf("99.995e%d", exp), 64)
		t10, _ := strconv.ParseFloat(fmt.Sprintf("9.9995e%d", exp), 64)
		t1, _ := strconv.ParseFloat(fmt.Sprintf(".99995e%d", exp), 64)
		fs = append(fs, factor{math.Pow(10, float64(exp)), unit, t100, t10, t1})
		exp -= 3
	}
	return fs
}

// Scale formats ms using at least three significant digits.
func Scale(ms float64) string {
	return CommonScale([]float64{ms}).Format(ms)
}

// CommonScale returns a common Scaler to apply to all values in vals,
// which are in milliseconds. The scale is chosen so the non-zero
// value closest to zero shows at least three significant digits.
func CommonScale(vals []float64) Scaler {
	var min float64
	for _, v := range vals {
		v = math.Abs(v)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v != 0 && (min == 0 || v < min) {
			min = v
		}
	}
	if min == 0 {
		return Scaler{3, 1, "ms"}
	}

	for _, f := range factors {
		switch {
		case min >= f.t100:
			return Scaler{1, f.factor, f.unit}
		case min >= f.t10:
			return Scaler{2, f.factor, f.unit}
		case min >= f.t1:
			return Scaler{3, f.factor, f.unit}
		}
	}

	// Below one nanosecond. Trace timestamps have nanosecond
	// resolution, so this only happens for derived values such as
	// variances.
	f := factors[len(factors)-1]
	prec := 3
	for val := min / f.factor; val < .99995 && prec < 10; val *= 10 {
		prec++
	}
	return Scaler{prec, f.factor, f.unit}
}
