package retrace

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var firstErr error
	for _, closer := range rc.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Open opens a mapping file or a stack trace file. Files ending in ".gz" or
// ".xz" are decompressed on the fly.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %s", path)
	}

	reader, err := NewReader(file, path)
	if err != nil {
		file.Close()
		return nil, err
	}

	return reader, nil
}

// NewReader wraps the given stream, decompressing it if its name ends in
// ".gz" or ".xz". Closing the returned reader closes the stream.
func NewReader(stream io.ReadCloser, name string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		gzipReader, err := gzip.NewReader(stream)
		if err != nil {
			return nil, errors.Wrapf(err, "can't decompress %s", name)
		}
		return &readCloser{Reader: gzipReader, closers: []io.Closer{gzipReader, stream}}, nil
	case strings.HasSuffix(name, ".xz"):
		xzReader, err := xz.NewReader(bufio.NewReader(stream))
		if err != nil {
			return nil, errors.Wrapf(err, "can't decompress %s", name)
		}
		return &readCloser{Reader: xzReader, closers: []io.Closer{stream}}, nil
	default:
		return &readCloser{Reader: bufio.NewReader(stream), closers: []io.Closer{stream}}, nil
	}
}
