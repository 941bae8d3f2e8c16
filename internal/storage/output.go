package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafeOutput is returned when resetting the output directory would
// remove the input root
var ErrUnsafeOutput = errors.New("output directory overlaps input root")

// OutputTree writes generated files under an output directory
type OutputTree struct {
	baseDir string
}

// NewOutputTree creates an output tree rooted at baseDir
func NewOutputTree(baseDir string) *OutputTree {
	return &OutputTree{baseDir: filepath.Clean(baseDir)}
}

// BaseDir returns the output directory
func (o *OutputTree) BaseDir() string {
	return o.baseDir
}

// Reset removes and recreates the output directory.
// inputRoot is protected: Reset fails if the output directory is, or contains, it.
func (o *OutputTree) Reset(inputRoot string) error {
	if overlaps(o.baseDir, inputRoot) {
		return fmt.Errorf("%w: %s contains %s", ErrUnsafeOutput, o.baseDir, inputRoot)
	}

	if err := os.RemoveAll(o.baseDir); err != nil {
		return fmt.Errorf("failed to clear output directory: %w", err)
	}
	if err := os.MkdirAll(o.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Write stores data at the relative key, creating parent directories
func (o *OutputTree) Write(key string, data []byte) (string, error) {
	path, err := o.Path(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return path, nil
}

// Path returns the filesystem path for a relative key
func (o *OutputTree) Path(key string) (string, error) {
	return resolveUnder(o.baseDir, key)
}

// overlaps reports whether dir equals target or is one of its ancestors
func overlaps(dir, target string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return true
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return true
	}

	rel, err := filepath.Rel(absDir, absTarget)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
