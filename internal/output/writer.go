package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/tendant/avatar-manifest/pkg/manifest"
)

// Writer serializes manifests to a fixed path
type Writer struct {
	path string
	gzip bool
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	Path string
	// Gzip also writes <Path>.gz for hosts that serve precompressed files
	Gzip bool
}

// NewWriter creates a new manifest writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.Path == "" {
		opts.Path = filepath.Join("dist", "index.json")
	}
	return &Writer{path: opts.Path, gzip: opts.Gzip}
}

// Path returns the manifest path
func (w *Writer) Path() string {
	return w.path
}

// Encode renders m as indented JSON with a trailing newline
func Encode(m *manifest.Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Write serializes m, creating parent directories as needed
func (w *Writer) Write(m *manifest.Manifest) (string, error) {
	data, err := Encode(m)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	if w.gzip {
		if err := writeGzip(w.path+".gz", data); err != nil {
			return "", err
		}
	}

	return w.path, nil
}

func writeGzip(path string, data []byte) error {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("failed to compress manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress manifest: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write compressed manifest: %w", err)
	}
	return nil
}
