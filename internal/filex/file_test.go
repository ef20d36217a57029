package filex

import (
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

func TestEnsureDir_RelativeResolvesAgainstCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("thumbnails")
	require.NoError(t, err)

	want := filepath.Join(tmp, "thumbnails")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_AbsoluteNestedAndIdempotent(t *testing.T) {
	want := filepath.Join(t.TempDir(), "a", "b")

	first, err := EnsureDir(want)
	require.NoError(t, err)
	second, err := EnsureDir(want)
	require.NoError(t, err)

	require.Equal(t, want, first)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("thumbnails", []byte("x"), 0o660))

	_, err := EnsureDir("thumbnails")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestWriteFile_Success(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.png")

	err := WriteFile(p, func(w io.Writer) error {
		_, err := w.Write([]byte("png"))
		return err
	})
	require.NoError(t, err)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, "png", string(b))
}

func TestWriteFile_ErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.png")

	err := WriteFile(p, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "temp file must be removed")
}
