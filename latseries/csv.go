// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package latseries

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteSeriesCSV writes every point of series to out as CSV with the
// header "series,kind,t,latency_ms".
func WriteSeriesCSV(out io.Writer, series []*Series) error {
	csvw := csv.NewWriter(out)
	if err := csvw.Write([]string{"series", "kind", "t", "latency_ms"}); err != nil {
		return err
	}
	for _, s := range series {
		kind := s.Kind.String()
		for i, ts := range s.Timestamps {
			if err := csvw.Write([]string{s.Name, kind, strof(ts), strof(s.Latencies[i])}); err != nil {
				return err
			}
		}
	}
	csvw.Flush()
	return csvw.Error()
}

// WriteRowsCSV writes the statistics rows to out as CSV, using the
// column order of the text report followed by the row's kind.
func WriteRowsCSV(out io.Writer, rows []Row) error {
	tab := [][]string{{"median", "mean", "stdev", "var", "element", "kind"}}
	for _, r := range rows {
		tab = append(tab, []string{strof(r.Median), strof(r.Mean), strof(r.StdDev), strof(r.Variance), r.Label, r.Kind.String()})
	}
	return csv.NewWriter(out).WriteAll(tab)
}

func strof(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
