// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracefmt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrNotFile is returned by Open when a local path does not name an
// existing regular file.
var ErrNotFile = errors.New("not a valid file")

const gcsScheme = "gs://"

// OpenOptions configures how Open reaches its input.
type OpenOptions struct {
	// AllowStdin indicates that the path "-" should be treated as
	// stdin.
	AllowStdin bool

	// GCSOptions are passed to the Cloud Storage client used for
	// gs://bucket/object paths.
	GCSOptions []option.ClientOption
}

// Open opens a trace log for reading. path may be a local file, a
// gs://bucket/object URL, or "-" for stdin if opts allows it.
//
// Local paths are checked before anything is read, so a missing input
// fails before any processing begins.
func Open(ctx context.Context, path string, opts OpenOptions) (io.ReadCloser, error) {
	switch {
	case opts.AllowStdin && path == "-":
		return io.NopCloser(os.Stdin), nil
	case strings.HasPrefix(path, gcsScheme):
		return openGCS(ctx, path, opts.GCSOptions)
	}

	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%q: %w", path, ErrNotFile)
	}
	return os.Open(path)
}

// SplitGCSPath splits a gs://bucket/object URL into its bucket and
// object names.
func SplitGCSPath(path string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(path, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("%q is not a gs:// URL", path)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%q: want gs://bucket/object", path)
	}
	return bucket, object, nil
}

func openGCS(ctx context.Context, path string, copts []option.ClientOption) (io.ReadCloser, error) {
	bucket, object, err := SplitGCSPath(path)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, copts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &gcsReader{Reader: r, client: client}, nil
}

// gcsReader closes the storage client together with the object reader.
type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}
