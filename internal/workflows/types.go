package workflows

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/tendant/avatar-manifest/internal/ledger"
	"github.com/tendant/avatar-manifest/pkg/manifest"
)

// Source identifies one eligible file inside a group
type Source struct {
	Group    string
	Filename string
	ID       string
}

// Materializer turns an eligible source file into a manifest item
type Materializer interface {
	// Mode reports which asset policy the materializer implements
	Mode() manifest.Mode

	// GroupBaseURL returns the URL under which a group's assets are published
	GroupBaseURL(group string) string

	// Materialize produces the item for src, writing any derived files
	Materialize(ctx context.Context, src Source) (*manifest.Item, error)
}

// AssetWriter stores derived files under an output directory
type AssetWriter interface {
	Write(key string, data []byte) (string, error)
}

// ManifestWriter serializes the finished manifest
type ManifestWriter interface {
	Write(m *manifest.Manifest) (string, error)
}

// AssetLedger records asset hashes across builds
type AssetLedger interface {
	Record(ctx context.Context, buildID, key, sha string, size int64) (ledger.Entry, error)
}

// BuildResult contains the outcome of a successful build
type BuildResult struct {
	BuildID      string
	Manifest     *manifest.Manifest
	ManifestPath string
	Groups       int
	Items        int
	Skipped      int
	Changed      int
	Duration     time.Duration
}

// joinURL appends escaped path segments to base. Segments containing "/"
// are split so each part is escaped on its own.
func joinURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, seg := range segments {
		for _, part := range strings.Split(seg, "/") {
			if part == "" {
				continue
			}
			b.WriteByte('/')
			b.WriteString(url.PathEscape(part))
		}
	}
	return b.String()
}
