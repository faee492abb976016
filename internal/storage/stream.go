package storage

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// DeleteOnClose is a read-only file that removes itself when closed
type DeleteOnClose struct {
	*os.File
	size int64
	once sync.Once
	err  error
}

// OpenDeleteOnClose opens path for reading. Closing the returned file
// removes it from disk; on open failure the file is removed immediately.
func OpenDeleteOnClose(path string) (*DeleteOnClose, error) {
	f, err := os.Open(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}
	return &DeleteOnClose{File: f, size: info.Size()}, nil
}

// Size returns the file size at open time
func (d *DeleteOnClose) Size() int64 {
	return d.size
}

// Close closes and removes the file. It is safe to call more than once.
func (d *DeleteOnClose) Close() error {
	d.once.Do(func() {
		closeErr := d.File.Close()
		removeErr := os.Remove(d.File.Name())
		if closeErr != nil {
			d.err = closeErr
		} else if removeErr != nil && !os.IsNotExist(removeErr) {
			d.err = removeErr
		}
	})
	return d.err
}

var _ io.ReadCloser = (*DeleteOnClose)(nil)
