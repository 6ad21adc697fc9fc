// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fileutil writes files through a temp file in the destination
// directory and renames on success, so readers never observe a partial file.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic writes data to path, creating parent directories.
func WriteAtomic(path string, data []byte) error {
	return WriteAtomicFunc(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteAtomicFunc streams fill into a temp file next to path, then renames
// it over path. If fill or the rename fails, the temp file is removed and
// path is left untouched.
func WriteAtomicFunc(path string, fill func(w io.Writer) error) error {
	tmpPath, err := WriteTemp(path, fill)
	if err != nil {
		return err
	}
	return Commit(tmpPath, path)
}

// WriteTemp streams fill into a new temp file in path's directory and
// returns the temp file's name. The caller either commits it with Commit
// or removes it.
func WriteTemp(path string, fill func(w io.Writer) error) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	fillErr := fill(tmp)
	closeErr := tmp.Close()
	if fillErr != nil {
		os.Remove(tmpPath)
		return "", fillErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	return tmpPath, nil
}

// Commit renames tmpPath over path, removing tmpPath if the rename fails.
func Commit(tmpPath, path string) error {
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
