// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomicCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")
	require.NoError(t, WriteAtomic(path, []byte("hello")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteAtomicFuncFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	boom := errors.New("boom")
	err := WriteAtomicFunc(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file removed")
}

func TestWriteTempThenCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	tmp, err := WriteTemp(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "%PDF-")
		return err
	})
	require.NoError(t, err)
	assert.NoFileExists(t, path)
	assert.FileExists(t, tmp)

	require.NoError(t, Commit(tmp, path))
	assert.FileExists(t, path)
	assert.NoFileExists(t, tmp)
}
