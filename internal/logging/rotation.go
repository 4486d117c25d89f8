package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotatingWriter is a size-based log file rotator. It is safe for concurrent use.
type RotatingWriter struct {
	mu         sync.Mutex
	file       *os.File
	path       string
	maxSize    int64
	maxBackups int
	written    int64
}

// NewRotatingWriter opens path for appending and rotates it once it grows past
// maxSizeMB. At most maxBackups rotated files (path.1 ... path.N) are kept.
func NewRotatingWriter(path string, maxSizeMB, maxBackups int) (*RotatingWriter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	if maxBackups <= 0 {
		maxBackups = 2
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rw := &RotatingWriter{
		path:       path,
		maxSize:    int64(maxSizeMB) * 1024 * 1024,
		maxBackups: maxBackups,
	}
	if err := rw.open(); err != nil {
		return nil, err
	}
	return rw, nil
}

// Write implements io.Writer.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return 0, os.ErrClosed
	}
	if rw.written > 0 && rw.written+int64(len(p)) > rw.maxSize {
		if err := rw.rotate(); err != nil {
			return 0, fmt.Errorf("log rotation: %w", err)
		}
	}

	n, err := rw.file.Write(p)
	rw.written += int64(n)
	return n, err
}

// Close closes the underlying file. Further writes fail with os.ErrClosed.
func (rw *RotatingWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}

func (rw *RotatingWriter) open() error {
	f, err := os.OpenFile(rw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	rw.file = f
	rw.written = info.Size()
	return nil
}

func (rw *RotatingWriter) rotate() error {
	if rw.file != nil {
		rw.file.Close()
		rw.file = nil
	}

	// path.N is dropped, path.(i-1) becomes path.i, path becomes path.1
	os.Remove(rw.backupName(rw.maxBackups))
	for i := rw.maxBackups; i >= 2; i-- {
		os.Rename(rw.backupName(i-1), rw.backupName(i))
	}
	os.Rename(rw.path, rw.backupName(1))

	return rw.open()
}

func (rw *RotatingWriter) backupName(index int) string {
	if index == 0 {
		return rw.path
	}
	return fmt.Sprintf("%s.%d", rw.path, index)
}

// Setup initializes the global logger from config values. An empty path logs to
// stderr. The returned closer must be closed on exit.
func Setup(format, level, path string, maxSizeMB, maxBackups int) (io.Closer, error) {
	if path == "" {
		Init(format, level, os.Stderr)
		return nopCloser{}, nil
	}

	rw, err := NewRotatingWriter(path, maxSizeMB, maxBackups)
	if err != nil {
		return nil, err
	}
	Init(format, level, rw)
	return rw, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
