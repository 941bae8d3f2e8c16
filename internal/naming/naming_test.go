package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"mixed separators", "my_folder-name", "My Folder Name"},
		{"single word", "naruto", "Naruto"},
		{"runs of separators", "one__two--three_-four", "One Two Three Four"},
		{"surrounding separators", "_edge-", "Edge"},
		{"collapses whitespace", "  lots   of\tspace ", "Lots Of Space"},
		{"keeps existing capitals", "DragonBall_Z", "DragonBall Z"},
		{"digits start words", "season_2", "Season 2"},
		{"apostrophe inside word", "o'brien", "O'Brien"},
		{"unicode letters", "élan_vital", "Élan Vital"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayName(tt.input))
		})
	}
}

func TestDisplayName_Idempotent(t *testing.T) {
	inputs := []string{
		"my_folder-name", "naruto", "__x__", "a-b_c d", "ÜBER_cool", "123abc", "o'brien-san", "",
	}
	for _, in := range inputs {
		once := DisplayName(in)
		assert.Equal(t, once, DisplayName(once), "input %q", in)
	}
}

func TestIsEligible(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"a.png", true},
		{"a.PNG", true},
		{"photo.JpG", true},
		{"photo.jpeg", true},
		{"anim.gif", true},
		{"pic.webp", true},
		{"readme.txt", false},
		{"b.txt", false},
		{"noext", false},
		{".png", false},
		{"archive.png.zip", false},
		{"double.tar.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsEligible(tt.filename))
		})
	}
}

func TestItemID(t *testing.T) {
	assert.Equal(t, "a", ItemID("a.png"))
	assert.Equal(t, "a", ItemID("a.PNG"))
	assert.Equal(t, "double.tar", ItemID("double.tar.png"))
	assert.Equal(t, "noext", ItemID("noext"))
	assert.Equal(t, "naruto", GroupID("naruto"))
}
