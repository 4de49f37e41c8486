// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"strconv"

	"github.com/google/safehtml/template"

	"github.com/latencyplot/gstlatency/internal/latunit"
	"github.com/latencyplot/gstlatency/internal/texttab"
	"github.com/latencyplot/gstlatency/latseries"
)

var header = []string{"median", "mean", "stdev", "var", "element"}

// formatVar formats a variance, which is in square milliseconds.
func formatVar(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + "ms²"
}

// formatText writes rows as a text table. The total row is set apart
// by a rule.
func formatText(w io.Writer, rows []latseries.Row) error {
	var tab texttab.Table
	tab.Row()
	for _, h := range header[:4] {
		tab.Cell(h, texttab.Right)
	}
	tab.Cell(header[4], texttab.Left)
	tab.Rule()
	for i, r := range rows {
		if r.Kind == latseries.Total && i > 0 {
			tab.Rule()
		}
		tab.Row()
		tab.Cell(latunit.Scale(r.Median), texttab.Right)
		tab.Cell(latunit.Scale(r.Mean), texttab.Right)
		tab.Cell(latunit.Scale(r.StdDev), texttab.Right)
		tab.Cell(formatVar(r.Variance), texttab.Right)
		tab.Cell(r.Label, texttab.Left)
	}
	return tab.Format(w)
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"scale":    latunit.Scale,
	"variance": formatVar,
	"isTotal":  func(k latseries.Kind) bool { return k == latseries.Total },
}).Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Latency of {{.Input}}</title>
<style>
.gstlatency { border-collapse: collapse; }
.gstlatency th { border-bottom: 1px solid #666; }
.gstlatency td:not(.element) { text-align: right; padding: 0em 1em; }
.gstlatency tr.total td { border-top: 1px solid #ccc; font-weight: bold; }
</style>
</head>
<body>
<table class='gstlatency'>
<tr>{{range .Header}}<th>{{.}}{{end}}
{{range .Rows -}}
<tr{{if isTotal .Kind}} class='total'{{end}}><td>{{scale .Median}}<td>{{scale .Mean}}<td>{{scale .StdDev}}<td>{{variance .Variance}}<td class='element'>{{.Label}}
{{end -}}
</table>
</body>
</html>
`))

// formatHTML writes rows as an HTML page.
func formatHTML(w io.Writer, input string, rows []latseries.Row) error {
	return htmlTemplate.Execute(w, struct {
		Input  string
		Header []string
		Rows   []latseries.Row
	}{input, header, rows})
}
