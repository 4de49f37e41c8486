// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracefmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// maxLineLen bounds the length of a line the Reader parses. GStreamer
// debug lines can be much longer than bufio.MaxScanTokenSize when
// other categories dump caps or buffers. Longer lines are skipped.
const maxLineLen = 1 << 20

// lineSplitter is a bufio.SplitFunc state that splits like
// bufio.ScanLines but drops lines of maxLineLen bytes or more instead
// of failing with bufio.ErrTooLong.
type lineSplitter struct {
	discarding bool // inside a long line, dropping up to its newline
	long       int  // long lines dropped
}

func (l *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if l.discarding {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			l.discarding = false
			return i + 1, nil, nil
		}
		return len(data), nil, nil
	}
	advance, token, err := bufio.ScanLines(data, atEOF)
	if err == nil && token == nil && len(data) >= maxLineLen {
		// The buffer is full and holds no newline.
		l.discarding = true
		l.long++
		return len(data), nil, nil
	}
	return advance, token, err
}

// A Reader reads element-latency observations from a trace log.
//
// Its API is modeled on bufio.Scanner. Lines that are not
// element-latency records, or whose timestamp falls outside the
// Reader's Window, are skipped without error, as are lines of
// 1 MiB or more.
//
// To construct a new Reader, either call NewReader, or call Reset on
// a zeroed Reader.
type Reader struct {
	s     *bufio.Scanner
	split lineSplitter
	err   error // current I/O error

	window   Window
	fileName string

	obs     Observation
	valid   bool
	lines   int
	skipped int
}

// NewReader constructs a reader to parse trace lines from r, keeping
// only observations inside w. fileName is used in error messages; it
// is purely diagnostic.
func NewReader(r io.Reader, fileName string, w Window) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName, w)
	return reader
}

// Reset resets the reader to begin reading from a new input.
func (r *Reader) Reset(ior io.Reader, fileName string, w Window) {
	r.split = lineSplitter{}
	r.s = bufio.NewScanner(ior)
	r.s.Buffer(nil, maxLineLen)
	r.s.Split(r.split.split)
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.fileName = fileName
	r.window = w
	r.err = nil
	r.obs = Observation{}
	r.valid = false
	r.lines = 0
	r.skipped = 0
}

// Scan advances the reader to the next observation and reports
// whether one was read. The caller should use the Result method to get
// the observation. If Scan reaches EOF or an I/O error occurs, it
// returns false, in which case the caller should use the Err method to
// check for errors.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	r.valid = false
	for r.s.Scan() {
		r.lines++
		obs, ok := ParseLine(r.s.Text())
		if !ok || !r.window.Contains(obs.Timestamp) {
			r.skipped++
			continue
		}
		r.obs, r.valid = obs, true
		return true
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.Lines()+1, err)
	}
	return false
}

// Result returns the observation that was just read by Scan.
func (r *Reader) Result() Observation {
	if !r.valid {
		return Observation{}
	}
	return r.obs
}

// Err returns the first non-EOF I/O error that was encountered by the
// Reader.
func (r *Reader) Err() error {
	return r.err
}

// Lines returns the number of input lines consumed so far.
func (r *Reader) Lines() int {
	return r.lines + r.split.long
}

// Skipped returns the number of consumed lines that did not produce an
// observation, long lines included.
func (r *Reader) Skipped() int {
	return r.skipped + r.split.long
}
