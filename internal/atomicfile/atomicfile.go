// Package atomicfile replaces files via a temporary sibling and rename so a
// crash mid-write never leaves a truncated target behind.
package atomicfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// copyData writes the payload into the temporary file; tests swap it to
// simulate a failure mid-write.
var copyData = func(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}

// Write stores data at path atomically. The temporary file lives in the same
// directory as path so the final rename never crosses filesystems. Parent
// directories are created when missing.
func Write(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomicfile: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("atomicfile: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if err := copyData(tmp, data); err != nil {
		cleanup()
		return fmt.Errorf("atomicfile: write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("atomicfile: sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("atomicfile: close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("atomicfile: chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("atomicfile: rename to %s: %w", path, err)
	}
	return nil
}
