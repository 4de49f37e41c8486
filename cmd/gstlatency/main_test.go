// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/latencyplot/gstlatency/internal/config"
	"github.com/latencyplot/gstlatency/latseries"
	"github.com/latencyplot/gstlatency/tracefmt"
)

func TestText(t *testing.T) {
	// Two elements sampled at different instants, summed into three
	// TOTAL samples.
	golden(t, "e2e", "-numbins", "2", "e2e.log")
	// The same, with diagnostics.
	golden(t, "e2eInfo", "-numbins", "2", "-log-level", "info", "e2e.log")
}

func TestTolerance(t *testing.T) {
	// At t=0, both first samples are within the tolerance.
	golden(t, "tolerance", "-numbins", "2", "-tolerance", "0.5", "e2e.log")
}

func TestWindow(t *testing.T) {
	golden(t, "window", "-numbins", "1", "-begin", "1", "-end", "2", "e2e.log")
}

func TestCSV(t *testing.T) {
	golden(t, "smallCSV", "-numbins", "1", "-format", "csv", "small.log")
}

func TestTotalNamedElements(t *testing.T) {
	// Elements named TOTAL and total stay apart from the aggregate.
	golden(t, "namedCSV", "-numbins", "1", "-format", "csv", "named.log")

	out := run(t, "-numbins", "1", "named.log")
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), out)
	}
	// One rule under the header and one before the aggregate only.
	for i, line := range lines {
		isRule := strings.HasPrefix(line, "─")
		if isRule != (i == 1 || i == 4) {
			t.Errorf("line %d = %q, rule: %v", i, line, isRule)
		}
	}

	out = run(t, "-numbins", "1", "-format", "html", "named.log")
	if n := strings.Count(out, "<tr class='total'>"); n != 1 {
		t.Errorf("got %d total rows in HTML, want 1:\n%s", n, out)
	}
}

func TestHTML(t *testing.T) {
	out := run(t, "-numbins", "2", "-format", "html", "e2e.log")
	for _, want := range []string{
		"<title>Latency of e2e.log</title>",
		"<tr><th>median<th>mean<th>stdev<th>var<th>element\n",
		"<tr><td>20.00ms<td>20.00ms<td>8.165ms<td>66.667ms²<td class='element'>queue0\n",
		"<tr class='total'><td>20.00ms<td>21.67ms<td>18.41ms<td>338.889ms²<td class='element'>TOTAL\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML report missing %q:\n%s", want, out)
		}
	}
}

func TestSeriesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")
	run(t, "-numbins", "2", "-maxplots", "2", "-o", path, "e2e.log")
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	inTestdata(t, func() { compare(t, "e2eSeries", "csv", got) })
}

func TestChart(t *testing.T) {
	dir := t.TempDir()
	for _, test := range []struct {
		file, magic string
	}{
		{"chart.png", "\x89PNG"},
		{"chart.svg", "<?xml"},
	} {
		path := filepath.Join(dir, test.file)
		run(t, "-numbins", "10", "-top", "50", "-o", path, "e2e.log")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte(test.magic)) {
			t.Errorf("%s does not start with %q", test.file, test.magic)
		}
	}
}

func TestExports(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	promPath := filepath.Join(dir, "gstlatency.prom")
	run(t, "-numbins", "2", "-db", "sqlite3:"+dbPath, "-prom", promPath, "e2e.log")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var runs, points int
	if err := db.QueryRow("SELECT COUNT(*) FROM Runs").Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM Points").Scan(&points); err != nil {
		t.Fatal(err)
	}
	// 3 + 2 element points, 3 TOTAL points.
	if runs != 1 || points != 8 {
		t.Errorf("database has %d runs and %d points, want 1 and 8", runs, points)
	}

	prom, err := os.ReadFile(promPath)
	if err != nil {
		t.Fatal(err)
	}
	want := `gstlatency_latency_milliseconds{element="total",kind="total",stat="median"} 20`
	if !strings.Contains(string(prom), want) {
		t.Errorf("metrics missing %q:\n%s", want, prom)
	}
}

func TestDebugAlign(t *testing.T) {
	var stdout, stderr bytes.Buffer
	inTestdata(t, func() {
		if err := gstlatency(&stdout, &stderr, []string{"-numbins", "2", "-log-level", "debug", "-debug-align", "e2e.log"}); err != nil {
			t.Fatal(err)
		}
	})
	got := stderr.String()
	if n := strings.Count(got, "\taligned\t"); n != 6 {
		t.Errorf("got %d alignment entries, want 6:\n%s", n, got)
	}
	if want := `"bin": 2, "t": 2, "element": "queue0", "sample": 2`; !strings.Contains(got, want) {
		t.Errorf("log missing %q:\n%s", want, got)
	}
}

func TestErrors(t *testing.T) {
	for _, test := range []struct {
		args    []string
		want    error
		wantErr string
	}{
		{nil, config.ErrUsage, "usage: gstlatency"},
		{[]string{"-numbins", "0", "e2e.log"}, config.ErrUsage, "-numbins must be positive"},
		{[]string{"-bogus", "e2e.log"}, config.ErrUsage, "flag provided but not defined"},
		{[]string{"-input", "e2e.log", "small.log"}, config.ErrUsage, "given by -input and as argument"},
		{[]string{"-log-level", "loud", "e2e.log"}, config.ErrUsage, ""},
		{[]string{"missing.log"}, tracefmt.ErrNotFile, ""},
		{[]string{"."}, tracefmt.ErrNotFile, ""},
		{[]string{"noise.log"}, latseries.ErrDegenerate, ""},
		{[]string{"-db", "postgres:x", "e2e.log"}, nil, ""},
	} {
		var stdout, stderr bytes.Buffer
		var err error
		inTestdata(t, func() {
			err = gstlatency(&stdout, &stderr, test.args)
		})
		if err == nil {
			t.Errorf("%q: unexpected success", test.args)
			continue
		}
		if test.want != nil && !errors.Is(err, test.want) {
			t.Errorf("%q: want %v, got %v", test.args, test.want, err)
		}
		if test.wantErr != "" && !strings.Contains(stderr.String(), test.wantErr) {
			t.Errorf("%q: stderr missing %q:\n%s", test.args, test.wantErr, stderr.String())
		}
		if strings.Count(stderr.String(), "usage: gstlatency") > 1 {
			t.Errorf("%q: usage printed more than once:\n%s", test.args, stderr.String())
		}
	}
}

// run runs gstlatency in testdata and returns its standard output.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	inTestdata(t, func() {
		if err := gstlatency(&stdout, &stderr, args); err != nil {
			t.Fatalf("gstlatency %s: %v\n%s", strings.Join(args, " "), err, stderr.String())
		}
	})
	return stdout.String()
}

func inTestdata(t *testing.T, f func()) {
	t.Helper()
	if err := os.Chdir("testdata"); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir("..")
	f()
}

func golden(t *testing.T, name string, args ...string) {
	t.Helper()
	var got, gotErr bytes.Buffer
	t.Logf("gstlatency %s", strings.Join(args, " "))
	inTestdata(t, func() {
		if err := gstlatency(&got, &gotErr, args); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		// Compare to the golden output.
		compare(t, name, "stdout", got.Bytes())
		compare(t, name, "stderr", gotErr.Bytes())
	})
}

func compare(t *testing.T, name, sub string, got []byte) {
	t.Helper()

	wantPath := name + "." + sub
	want, err := os.ReadFile(wantPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Treat a missing file as empty.
			want = nil
		} else {
			t.Fatal(err)
		}
	}

	if !diff(t, want, got) {
		return
	}
	// diff printed the error.

	// Write a "got" file for reference.
	gotPath := name + ".got-" + sub
	if err := os.WriteFile(gotPath, got, 0666); err != nil {
		t.Fatalf("error writing %s: %s", gotPath, err)
	}
}

func diff(t *testing.T, want, got []byte) bool {
	t.Helper()
	if bytes.Equal(want, got) {
		return false
	}

	d := t.TempDir()
	wantPath, gotPath := filepath.Join(d, "want"), filepath.Join(d, "got")
	if err := os.WriteFile(wantPath, want, 0666); err != nil {
		t.Fatalf("error writing %s: %s", wantPath, err)
	}
	if err := os.WriteFile(gotPath, got, 0666); err != nil {
		t.Fatalf("error writing %s: %s", gotPath, err)
	}

	cmd := exec.Command("diff", "-Nu", "want", "got")
	cmd.Dir = d
	data, _ := cmd.CombinedOutput()
	if len(data) > 0 {
		t.Errorf("\n%s", data)
	} else {
		// Most likely, "diff not found" so print the bad
		// output so there is something.
		t.Errorf("want:\n%sgot:\n%s", want, got)
	}
	return true
}
