package workflows

import (
	"errors"
	"fmt"
)

var (
	// ErrTranscodeFailed is returned when an image cannot be decoded, resized or encoded
	ErrTranscodeFailed = errors.New("transcode failed")

	// ErrDuplicateItem is returned in transcode mode when two files in a group share an item id
	ErrDuplicateItem = errors.New("duplicate item id")

	// ErrSourceMissing is returned when a scanned file is gone before it is materialized
	ErrSourceMissing = errors.New("source file missing")

	// ErrInvalidOptions is returned when the build is missing a dependency
	ErrInvalidOptions = errors.New("invalid build options")
)

// ItemError identifies the group and file a build step failed on
type ItemError struct {
	Group string
	File  string
	Op    string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Group, e.File, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func newItemError(src Source, op string, err error) *ItemError {
	return &ItemError{Group: src.Group, File: src.Filename, Op: op, Err: err}
}
