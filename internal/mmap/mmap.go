// Package mmap maps immutable data files (indexes, score-bound data) into
// memory read-only for the lifetime of a run.
package mmap

import (
	"errors"
	"fmt"
	"os"
)

// File is a read-only memory-mapped file. Data stays valid until Close.
type File struct {
	Data   []byte
	f      *os.File
	mapped bool
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	size := fi.Size()
	if size == 0 {
		return &File{f: f}, nil
	}
	if size < 0 || int64(int(size)) != size {
		f.Close()
		return nil, errors.New("mmap: file size out of range")
	}

	data, mapped, err := mmap(f, int(size))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return &File{Data: data, f: f, mapped: mapped}, nil
}

// Len returns the size of the mapping in bytes.
func (m *File) Len() int {
	return len(m.Data)
}

// Close unmaps the memory and closes the underlying file.
func (m *File) Close() error {
	if m == nil {
		return nil
	}
	var err error
	if m.Data != nil && m.mapped {
		err = munmap(m.Data)
	}
	m.Data = nil
	if m.f != nil {
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		m.f = nil
	}
	return err
}
