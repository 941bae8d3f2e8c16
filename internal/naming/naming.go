// Package naming derives identifiers and display names from directory and
// file names, and decides which files are eligible images.
package naming

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// ImageExtensions is the set of recognized raster-image extensions (lowercase)
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

var (
	separatorsRegex = regexp.MustCompile(`[-_]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// IsEligible reports whether filename has a recognized image extension.
// Matching is case-insensitive; a bare extension such as ".png" is not eligible.
func IsEligible(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if !ImageExtensions[ext] {
		return false
	}
	return ItemID(filename) != ""
}

// GroupID returns the stable identifier of a group directory
func GroupID(dirName string) string {
	return dirName
}

// ItemID returns the filename without its final extension
func ItemID(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// DisplayName turns "my_folder-name" into "My Folder Name"
func DisplayName(raw string) string {
	s := separatorsRegex.ReplaceAllString(raw, " ")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	prevWord := false
	for _, r := range s {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if isWord && !prevWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevWord = isWord
	}
	return b.String()
}
