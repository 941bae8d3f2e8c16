package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrPathTraversal is returned when a key resolves outside the base directory
var ErrPathTraversal = errors.New("invalid key: path traversal detected")

// FilesystemStorage reads groups and images from a local input root
type FilesystemStorage struct {
	baseDir string
}

// NewFilesystemStorage creates a filesystem storage reader.
// The root does not need to exist; a missing root lists as empty.
func NewFilesystemStorage(baseDir string) *FilesystemStorage {
	return &FilesystemStorage{
		baseDir: filepath.Clean(baseDir),
	}
}

// BaseDir returns the input root
func (fs *FilesystemStorage) BaseDir() string {
	return fs.baseDir
}

// ListGroups returns the immediate subdirectories of the root.
// A missing or unreadable root yields an empty list.
func (fs *FilesystemStorage) ListGroups(ctx context.Context) ([]string, error) {
	entries := listDirSafe(fs.baseDir)

	groups := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			groups = append(groups, e.Name())
		}
	}
	sort.Strings(groups)
	return groups, nil
}

// ListFiles returns the regular files directly inside a group.
// An unreadable group yields an empty list, like the root.
func (fs *FilesystemStorage) ListFiles(ctx context.Context, group string) ([]string, error) {
	dir, err := fs.resolve(group)
	if err != nil {
		return nil, err
	}

	entries := listDirSafe(dir)

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// GetReader returns a reader for the file at the given key
func (fs *FilesystemStorage) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Exists checks if a file exists at the given key
func (fs *FilesystemStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := fs.resolve(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	return true, nil
}

// Key joins a group and filename into a storage key
func Key(group, filename string) string {
	return group + "/" + filename
}

func (fs *FilesystemStorage) resolve(key string) (string, error) {
	return resolveUnder(fs.baseDir, key)
}

// resolveUnder joins key onto base and rejects results that escape base
func resolveUnder(base, key string) (string, error) {
	path := filepath.Join(base, filepath.FromSlash(key))
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return path, nil
}

func listDirSafe(dir string) []os.DirEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	return entries
}
