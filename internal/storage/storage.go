package storage

import (
	"context"
	"io"
)

// Reader provides read access to source images
type Reader interface {
	// GetReader returns a reader for the content at the given key
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if content exists at the given key
	Exists(ctx context.Context, key string) (bool, error)
}

// Scanner lists groups and candidate files under an input root
type Scanner interface {
	// ListGroups returns the immediate subdirectories of the root, sorted
	ListGroups(ctx context.Context) ([]string, error)

	// ListFiles returns the regular files directly inside a group, sorted
	ListFiles(ctx context.Context, group string) ([]string, error)
}

// Source combines everything the build needs from the input tree
type Source interface {
	Scanner
	Reader
}
