// Package mmap provides read-only memory-mapped access to shard files.
package mmap

import (
	"fmt"
	"os"
)

// Reader exposes the contents of a file mapped into memory. The slice
// returned by Bytes is valid until Close.
type Reader struct {
	file   *os.File
	data   []byte
	mapped bool
}

// NewReader maps filename read-only. An empty file yields a Reader with no
// data and no mapping.
func NewReader(filename string) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	if size == 0 {
		return &Reader{file: file}, nil
	}
	if int64(int(size)) != size {
		file.Close()
		return nil, fmt.Errorf("file of %d bytes is too large to map", size)
	}

	data, err := mapFile(file, int(size))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}

	return &Reader{file: file, data: data, mapped: true}, nil
}

// Bytes returns the mapped contents.
func (r *Reader) Bytes() []byte {
	return r.data
}

// Len returns the number of mapped bytes.
func (r *Reader) Len() int {
	return len(r.data)
}

// Close unmaps the data and closes the file.
func (r *Reader) Close() error {
	var unmapErr error
	if r.mapped {
		unmapErr = unmapFile(r.data)
		r.mapped = false
	}
	r.data = nil

	closeErr := r.file.Close()
	if unmapErr != nil {
		return fmt.Errorf("failed to munmap file: %w", unmapErr)
	}
	return closeErr
}
