// Package atomicfile provides crash-safe file writes and no-clobber renames.
package atomicfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrExists is returned by Rename when the destination is a different file.
var ErrExists = errors.New("destination already exists")

// WriteFile replaces the content of path atomically.
//
// Data goes to a temporary file in the same directory which is synced and
// renamed over path, so readers never observe a torn document. The mode of an
// existing file is kept; new files get 0644.
func WriteFile(path string, data []byte) error {
	perm := fs.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	_ = tmp.Chmod(perm)

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("replace %s: %w", path, err)
		}
	}
	committed = true
	return nil
}

// Rename moves oldPath to newPath without overwriting another file.
//
// A destination that is the same file as the source (a case-only rename on a
// case-insensitive filesystem) is allowed.
func Rename(oldPath, newPath string) error {
	src, err := os.Stat(oldPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", oldPath, err)
	}
	if dst, err := os.Lstat(newPath); err == nil {
		if !os.SameFile(src, dst) {
			return fmt.Errorf("rename %s: %w: %s", oldPath, ErrExists, newPath)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", newPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename %s: %w", oldPath, err)
	}
	return nil
}
