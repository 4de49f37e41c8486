// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out fixed-width text tables.
package texttab

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table does layout of text-based tables.
//
// Many of its methods return the Table so callers can easily chain
// them to build up many cells at once.
type Table struct {
	rows []row
	cols int
}

type row struct {
	cells []cell
	rule  bool // a horizontal separator instead of cells
}

type cell struct {
	value     string
	alignment align
}

// A CellOption modifies a cell as it is added.
type CellOption func(c *cell)

var (
	Left  CellOption = func(c *cell) { c.alignment = alignLeft }
	Right CellOption = func(c *cell) { c.alignment = alignRight }
)

type align int

const (
	alignLeft align = iota
	alignRight
)

func (a align) pad(s string, w int) string {
	n := w - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if a == alignRight {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// Row starts a new row in table t.
func (t *Table) Row() *Table {
	t.rows = append(t.rows, row{})
	return t
}

// Rule adds a horizontal separator spanning the whole table.
func (t *Table) Rule() *Table {
	t.rows = append(t.rows, row{rule: true})
	return t
}

// Cell adds a cell at the end of the current row.
func (t *Table) Cell(value string, opts ...CellOption) *Table {
	if len(t.rows) == 0 || t.rows[len(t.rows)-1].rule {
		t.Row()
	}
	r := &t.rows[len(t.rows)-1]
	c := cell{value: value}
	for _, o := range opts {
		o(&c)
	}
	r.cells = append(r.cells, c)
	if len(r.cells) > t.cols {
		t.cols = len(r.cells)
	}
	return t
}

// Format lays out table t and writes it to w. Columns are separated
// by two spaces, and trailing spaces are trimmed from every line.
func (t *Table) Format(w io.Writer) error {
	const sep = "  "

	ws := make([]int, t.cols)
	for _, r := range t.rows {
		for i, c := range r.cells {
			if n := utf8.RuneCountInString(c.value); n > ws[i] {
				ws[i] = n
			}
		}
	}
	total := 0
	for i, n := range ws {
		if i > 0 {
			total += len(sep)
		}
		total += n
	}

	var line strings.Builder
	for _, r := range t.rows {
		line.Reset()
		if r.rule {
			line.WriteString(strings.Repeat("─", total))
		}
		for i, c := range r.cells {
			if i > 0 {
				line.WriteString(sep)
			}
			line.WriteString(c.alignment.pad(c.value, ws[i]))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
