// Package revision resolves the source revision recorded in the manifest.
package revision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// Resolve returns explicit when set. Otherwise, if detect is true, it returns
// the HEAD commit of the git repository containing dir. An empty string means
// no revision is known.
func Resolve(explicit, dir string, detect bool) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if !detect {
		return "", nil
	}
	return Head(dir)
}

// Head returns the HEAD commit hash of the repository containing dir.
// A directory outside any repository, or a repository without commits,
// yields an empty string and no error.
func Head(dir string) (string, error) {
	dir = existingAncestor(dir)

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	ref, err := repo.Head()
	if err != nil {
		// unborn branch
		return "", nil
	}
	return ref.Hash().String(), nil
}

// existingAncestor walks up from dir until it finds a path that exists
func existingAncestor(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	dir = abs
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
