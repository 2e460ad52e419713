package filex

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureSubdDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureSubdDir("uploads")
	require.NoError(t, err)

	want := filepath.Join(tmp, "uploads")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureSubdDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	first, err := EnsureSubdDir("uploads")
	require.NoError(t, err)

	second, err := EnsureSubdDir("uploads")
	require.NoError(t, err)

	require.Equal(t, first, second)
	fi, err := os.Stat(second)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureSubdDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("uploads", []byte("x"), 0o660))

	_, err := EnsureSubdDir("uploads")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestEnsureSubdDir_AbsolutePathKept(t *testing.T) {
	want := filepath.Join(t.TempDir(), "abs", "uploads")

	got, err := EnsureSubdDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func listDir(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestWithTempFile_ContentVisibleAndRemoved(t *testing.T) {
	dir := t.TempDir()
	var seenPath string

	err := WithTempFile(dir, "avatar-*", bytes.NewReader([]byte("image-bytes")), func(f *os.File) error {
		seenPath = f.Name()
		b, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "image-bytes", string(b))
		require.Len(t, listDir(t, dir), 1)
		return nil
	})
	require.NoError(t, err)

	_, statErr := os.Stat(seenPath)
	require.True(t, os.IsNotExist(statErr), "temp file must be removed")
	require.Empty(t, listDir(t, dir))
}

func TestWithTempFile_RemovedWhenFnFails(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")

	err := WithTempFile(dir, "avatar-*", bytes.NewReader([]byte("x")), func(f *os.File) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Empty(t, listDir(t, dir), "no leftover temp artifact on failure")
}

func TestWithTempFile_BadDir(t *testing.T) {
	called := false
	err := WithTempFile(filepath.Join(t.TempDir(), "missing"), "x-*", bytes.NewReader(nil), func(f *os.File) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}
