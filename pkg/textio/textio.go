// Package textio reads the line-oriented text inputs of the evaluation tools
// (queries, document names, lexicons, stopword lists). Files ending in .zst
// or .lz4 are decompressed transparently.
package textio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxLineSize bounds a single input line.
const maxLineSize = 16 << 20

// Open opens path for reading, wrapping it in a decompressor chosen by file
// extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
		}
		rc := dec.IOReadCloser()
		return &stackedCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	case ".lz4":
		return &stackedCloser{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// ForEachLine calls fn for every line of r, without the trailing newline.
// A trailing carriage return is stripped as well.
func ForEachLine(r io.Reader, fn func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := fn(strings.TrimSuffix(scanner.Text(), "\r")); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning lines: %w", err)
	}
	return nil
}

// ReadLines returns every line of the file at path.
func ReadLines(path string) ([]string, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	lines := make([]string, 0, 1024)
	err = ForEachLine(rc, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
