package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// RotatingWriter is an io.Writer over a log file that is shifted to
// "<path>.1", "<path>.2", ... once it would grow past a size limit.
// At most maxFiles rotated generations are kept.
type RotatingWriter struct {
	path     string
	maxSize  int64
	maxFiles int

	mu      sync.Mutex
	file    *os.File
	size    int64
	syncing bool
}

// NewRotatingWriter opens path for appending, creating its directory.
// Every write is synced so `amanpack logs -f` sees it immediately; call
// SetImmediateSync(false) to trade that for throughput.
func NewRotatingWriter(path string, maxSizeMB, maxFiles int) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	w := &RotatingWriter{
		path:     path,
		maxSize:  int64(maxSizeMB) << 20,
		maxFiles: max(maxFiles, 1),
		syncing:  true,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// SetImmediateSync toggles the fsync after each write.
func (w *RotatingWriter) SetImmediateSync(enabled bool) {
	w.mu.Lock()
	w.syncing = enabled
	w.mu.Unlock()
}

// Write appends p, rotating first when p would push the file past the limit.
// A failed rotation is reported on stderr and the write goes to the current
// file.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, fs.ErrClosed
	}
	if w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "amanpack: log rotation failed: %v\n", err)
			if w.file == nil {
				return 0, err
			}
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err == nil && w.syncing {
		_ = w.file.Sync()
	}
	return n, err
}

// Sync flushes the current file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close closes the current file. Further writes fail with fs.ErrClosed.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file, w.size = f, info.Size()
	return nil
}

// generation returns the path of the n-th rotated file.
func (w *RotatingWriter) generation(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

// rotate drops the oldest generation, shifts the rest up by one and moves
// the live file to generation 1 before reopening it empty.
func (w *RotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		w.file = nil
	}

	if err := os.Remove(w.generation(w.maxFiles)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove oldest log: %w", err)
	}
	for n := w.maxFiles - 1; n >= 1; n-- {
		if err := os.Rename(w.generation(n), w.generation(n+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to shift rotated log: %w", err)
		}
	}
	if err := os.Rename(w.path, w.generation(1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_ = w.open()
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return w.open()
}
