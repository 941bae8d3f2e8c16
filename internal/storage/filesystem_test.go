package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func TestFilesystemStorage_ListGroups(t *testing.T) {
	ctx := context.Background()

	t.Run("lists sorted directories only", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "naruto"), 0755))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "bleach"), 0755))
		writeFile(t, filepath.Join(root, "stray.png"), "x")

		groups, err := NewFilesystemStorage(root).ListGroups(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"bleach", "naruto"}, groups)
	})

	t.Run("missing root is empty", func(t *testing.T) {
		groups, err := NewFilesystemStorage(filepath.Join(t.TempDir(), "nope")).ListGroups(ctx)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("root that is a file is empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		writeFile(t, path, "x")

		groups, err := NewFilesystemStorage(path).ListGroups(ctx)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})
}

func TestFilesystemStorage_ListFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "naruto", "b.png"), "b")
	writeFile(t, filepath.Join(root, "naruto", "a.png"), "a")
	writeFile(t, filepath.Join(root, "naruto", "nested", "deep.png"), "d")

	fs := NewFilesystemStorage(root)

	files, err := fs.ListFiles(ctx, "naruto")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, files)

	files, err = fs.ListFiles(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = fs.ListFiles(ctx, "../escape")
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestFilesystemStorage_Read(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "naruto", "a.png"), "hello")

	fs := NewFilesystemStorage(root)

	r, err := fs.GetReader(ctx, Key("naruto", "a.png"))
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(data))

	ok, err := fs.Exists(ctx, Key("naruto", "a.png"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.Exists(ctx, Key("naruto", "zzz.png"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = fs.Exists(ctx, "../outside.png")
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, err = fs.GetReader(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, err = fs.GetReader(ctx, Key("naruto", "missing.png"))
	assert.Error(t, err)
}

func TestOutputTree(t *testing.T) {
	t.Run("reset clears stale files", func(t *testing.T) {
		base := t.TempDir()
		out := NewOutputTree(filepath.Join(base, "dist"))
		writeFile(t, filepath.Join(base, "dist", "assets", "old", "gone.jpg"), "stale")

		require.NoError(t, out.Reset(filepath.Join(base, "avatars")))

		_, err := os.Stat(filepath.Join(base, "dist", "assets", "old", "gone.jpg"))
		assert.True(t, os.IsNotExist(err))
		info, err := os.Stat(filepath.Join(base, "dist"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("reset refuses to remove the input root", func(t *testing.T) {
		base := t.TempDir()
		assert.ErrorIs(t, NewOutputTree(base).Reset(filepath.Join(base, "avatars")), ErrUnsafeOutput)
		assert.ErrorIs(t, NewOutputTree(base).Reset(base), ErrUnsafeOutput)
	})

	t.Run("write creates parents", func(t *testing.T) {
		out := NewOutputTree(t.TempDir())
		path, err := out.Write("thumbs/naruto/a.jpg", []byte("jpg"))
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "jpg", string(data))

		_, err = out.Write("../outside.txt", []byte("x"))
		assert.ErrorIs(t, err, ErrPathTraversal)
	})
}
