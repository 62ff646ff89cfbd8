package pack

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	amanerrors "github.com/Aman-CERP/amanpack/internal/errors"
)

// WriteFile writes the output of fn to path. A ".gz" suffix gzips and a
// ".zst" suffix zstd-compresses the output. The file is written to a
// temporary sibling and renamed into place while an advisory lock on
// "<path>.lock" is held; a concurrent writer fails with
// ERR_207_OUTPUT_LOCKED instead of waiting.
func WriteFile(path string, fn func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire output lock: %w", err)
	}
	if !acquired {
		return amanerrors.OutputLocked(path)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = encode(tmp, path, fn); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// encode writes fn's output to f, compressed according to path's suffix.
func encode(f *os.File, path string, fn func(w io.Writer) error) error {
	bw := bufio.NewWriter(f)

	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(bw)
		if err := fn(zw); err != nil {
			_ = zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(bw)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		if err := fn(zw); err != nil {
			_ = zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	default:
		if err := fn(bw); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
