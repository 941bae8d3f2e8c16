package output

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/avatar-manifest/pkg/manifest"
)

func sampleManifest() *manifest.Manifest {
	return manifest.Assemble(manifest.Meta{
		GeneratedAt: "2024-01-01T00:00:00Z",
		BaseURL:     "https://o.github.io/r",
	}, []manifest.Group{
		{ID: "naruto", Name: "Naruto", BaseURL: "https://o.github.io/r/avatars/naruto", Items: []manifest.Item{
			{ID: "a", Filename: "a.png", URL: "https://o.github.io/r/avatars/naruto/a.png"},
		}},
	})
}

func TestNewWriter_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("dist", "index.json"), NewWriter(WriterOptions{}).Path())
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "index.json")
	w := NewWriter(WriterOptions{Path: path})

	written, err := w.Write(sampleManifest())
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasSuffix(text, "}\n"))
	assert.Contains(t, text, "\n  \"version\": 1,")
	assert.Less(t, strings.Index(text, `"version"`), strings.Index(text, `"groups"`))

	parsed, err := manifest.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, sampleManifest(), parsed)

	_, err = os.Stat(path + ".gz")
	assert.True(t, os.IsNotExist(err))
}

func TestWriter_WriteGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	w := NewWriter(WriterOptions{Path: path, Gzip: true})

	_, err := w.Write(sampleManifest())
	require.NoError(t, err)

	plain, err := os.ReadFile(path)
	require.NoError(t, err)
	compressed, err := os.ReadFile(path + ".gz")
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	inflated, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, plain, inflated)
}

func TestEncode_Stable(t *testing.T) {
	a, err := Encode(sampleManifest())
	require.NoError(t, err)
	b, err := Encode(sampleManifest())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
