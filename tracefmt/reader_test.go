// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracefmt

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseAll(t *testing.T, data string, w Window) ([]Observation, *Reader) {
	t.Helper()
	r := NewReader(strings.NewReader(data), "test", w)
	var out []Observation
	for r.Scan() {
		out = append(out, r.Result())
	}
	if err := r.Err(); err != nil {
		t.Fatal("parsing failed: ", err)
	}
	return out, r
}

func TestReader(t *testing.T) {
	log := strings.Join([]string{
		"0:00:00.000 4242 0x1 INFO GST_INIT gst.c:586:init_pre: Initializing GStreamer Core Library",
		traceLine("src", 1000000, 1000000000),
		"0:00:00.100 4242 0x1 TRACE GST_TRACER :0:: latency, src=(string)src, sink=(string)sink, time=(guint64)1, ts=(guint64)1;",
		traceLine("queue0", 2000000, 1500000000),
		"",
		traceLine("src", 3000000, 2000000000),
	}, "\n")

	got, r := parseAll(t, log, Unbounded)
	want := []Observation{
		{"src", 1, 1},
		{"queue0", 1.5, 2},
		{"src", 2, 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("observations mismatch (-want +got):\n%s", diff)
	}
	if r.Lines() != 6 {
		t.Errorf("want 6 lines, got %d", r.Lines())
	}
	if r.Skipped() != 3 {
		t.Errorf("want 3 skipped lines, got %d", r.Skipped())
	}
	if r.Scan() {
		t.Errorf("Scan after EOF returned true")
	}
	if (r.Result() != Observation{}) {
		t.Errorf("Result after EOF = %+v, want zero", r.Result())
	}
}

func TestReaderWindow(t *testing.T) {
	var lines []string
	for _, ts := range []uint64{4999000000, 5000000000, 10000000000, 10001000000} {
		lines = append(lines, traceLine("e", 1, ts))
	}
	got, r := parseAll(t, strings.Join(lines, "\n"), Window{Begin: 5, End: 10})
	var ts []float64
	for _, o := range got {
		ts = append(ts, o.Timestamp)
	}
	if diff := cmp.Diff([]float64{5, 10}, ts); diff != "" {
		t.Errorf("timestamps mismatch (-want +got):\n%s", diff)
	}
	if r.Skipped() != 2 {
		t.Errorf("want 2 skipped lines, got %d", r.Skipped())
	}
}

func TestReaderLongLines(t *testing.T) {
	long := strings.Repeat("x", maxLineLen+10)
	log := long + "\n" +
		traceLine("src", 1000000, 1000000000) + "\n" +
		strings.Repeat("y", 2*maxLineLen)

	got, r := parseAll(t, log, Unbounded)
	if diff := cmp.Diff([]Observation{{"src", 1, 1}}, got); diff != "" {
		t.Errorf("observations mismatch (-want +got):\n%s", diff)
	}
	if r.Lines() != 3 {
		t.Errorf("want 3 lines, got %d", r.Lines())
	}
	if r.Skipped() != 2 {
		t.Errorf("want 2 skipped lines, got %d", r.Skipped())
	}

	// Reset forgets a long line cut off by the end of the input.
	r.Reset(strings.NewReader(strings.Repeat("z", maxLineLen)+"\n"+traceLine("sink", 2000000, 0)), "again", Unbounded)
	if !r.Scan() || r.Result().Element != "sink" {
		t.Fatalf("Scan after Reset = %+v, %v", r.Result(), r.Err())
	}
	if r.Lines() != 2 || r.Skipped() != 1 {
		t.Errorf("after Reset: %d lines, %d skipped, want 2 and 1", r.Lines(), r.Skipped())
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestReaderIOError(t *testing.T) {
	r := NewReader(errReader{}, "broken", Unbounded)
	if r.Scan() {
		t.Fatal("Scan succeeded on failing reader")
	}
	err := r.Err()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("want ErrUnexpectedEOF, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "broken:1:") {
		t.Errorf("error %q lacks position", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.log")
	if err := os.WriteFile(path, []byte(traceLine("e", 1, 2)+"\n"), 0666); err != nil {
		t.Fatal(err)
	}

	f, err := Open(ctx, path, OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := parseAll(t, mustReadAll(t, f), Unbounded)
	f.Close()
	if len(got) != 1 || got[0].Element != "e" {
		t.Errorf("unexpected observations %+v", got)
	}

	for _, bad := range []string{filepath.Join(dir, "missing.log"), dir} {
		if _, err := Open(ctx, bad, OpenOptions{}); !errors.Is(err, ErrNotFile) {
			t.Errorf("Open(%q): want ErrNotFile, got %v", bad, err)
		}
	}
	if _, err := Open(ctx, "-", OpenOptions{}); !errors.Is(err, ErrNotFile) {
		t.Errorf("Open(-) without AllowStdin: want ErrNotFile, got %v", err)
	}
}

func mustReadAll(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestSplitGCSPath(t *testing.T) {
	for _, test := range []struct {
		path, bucket, object string
		ok                   bool
	}{
		{"gs://traces/run1/trace.log", "traces", "run1/trace.log", true},
		{"gs://traces/x", "traces", "x", true},
		{"gs://traces", "", "", false},
		{"gs:///x", "", "", false},
		{"gs://traces/", "", "", false},
		{"/tmp/trace.log", "", "", false},
	} {
		bucket, object, err := SplitGCSPath(test.path)
		if (err == nil) != test.ok {
			t.Errorf("SplitGCSPath(%q) error = %v, want ok=%v", test.path, err, test.ok)
			continue
		}
		if bucket != test.bucket || object != test.object {
			t.Errorf("SplitGCSPath(%q) = %q, %q, want %q, %q", test.path, bucket, object, test.bucket, test.object)
		}
	}
}
