package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))
	return path
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.png"))
	b := touch(t, filepath.Join(dir, "b.JPG"))
	touch(t, filepath.Join(dir, "notes.txt"))
	c := touch(t, filepath.Join(dir, "sub", "c.gif"))
	d := touch(t, filepath.Join(dir, "sub", "deep", "d.webp"))

	t.Run("flat", func(t *testing.T) {
		files, err := Collect(dir, false)
		require.NoError(t, err)
		require.Equal(t, []string{a, b}, files)
	})

	t.Run("recursive", func(t *testing.T) {
		files, err := Collect(dir, true)
		require.NoError(t, err)
		require.Equal(t, []string{a, b, c, d}, files)
	})

	t.Run("single file", func(t *testing.T) {
		files, err := Collect(c, false)
		require.NoError(t, err)
		require.Equal(t, []string{c}, files)
	})

	t.Run("unsupported file", func(t *testing.T) {
		files, err := Collect(filepath.Join(dir, "notes.txt"), false)
		require.NoError(t, err)
		require.Empty(t, files)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := Collect(filepath.Join(dir, "ghost"), true)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty dir", func(t *testing.T) {
		files, err := Collect(t.TempDir(), true)
		require.NoError(t, err)
		require.Empty(t, files)
	})
}
