package workflows

import (
	"context"

	"github.com/tendant/avatar-manifest/pkg/manifest"
)

// PassThroughMaterializer publishes source files as they are
type PassThroughMaterializer struct {
	baseURL    string
	publicPath string
}

// NewPassThroughMaterializer creates a materializer that links to the
// original files at <baseURL>/<publicPath>/<group>/<filename>
func NewPassThroughMaterializer(baseURL, publicPath string) *PassThroughMaterializer {
	return &PassThroughMaterializer{baseURL: baseURL, publicPath: publicPath}
}

// Mode implements Materializer
func (m *PassThroughMaterializer) Mode() manifest.Mode {
	return manifest.ModePassThrough
}

// GroupBaseURL implements Materializer
func (m *PassThroughMaterializer) GroupBaseURL(group string) string {
	return joinURL(m.baseURL, m.publicPath, group)
}

// Materialize implements Materializer. No file is read or written.
func (m *PassThroughMaterializer) Materialize(ctx context.Context, src Source) (*manifest.Item, error) {
	return &manifest.Item{
		ID:       src.ID,
		Filename: src.Filename,
		URL:      joinURL(m.baseURL, m.publicPath, src.Group, src.Filename),
	}, nil
}
