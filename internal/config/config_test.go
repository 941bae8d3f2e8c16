package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/avatar-manifest/pkg/manifest"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_REPOSITORY", "")
	t.Setenv("GITHUB_SHA", "")
	t.Setenv("AVATARS_MODE", "")
	t.Setenv("AVATARS_SITE_OWNER_REPO", "")
	t.Setenv("AVATARS_SITE_REVISION", "")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultInputRoot, cfg.Input.Root)
	assert.Equal(t, DefaultOutputDir, cfg.Output.Directory)
	assert.Equal(t, filepath.Join("dist", "index.json"), cfg.ManifestPath())
	assert.Equal(t, manifest.ModePassThrough, cfg.ModeValue())
	assert.Equal(t, DefaultMaxDimension, cfg.Transcode.MaxDimension)
	assert.Equal(t, DefaultWatchDebounce, cfg.Watch.Debounce)
	assert.True(t, cfg.Site.DetectRevision)
	assert.Equal(t, "https://<owner>.github.io/<repo>", cfg.Site.PagesBaseURL())
	assert.False(t, cfg.Site.HasRepository())
}

func TestLoad_GitHubEnvironment(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_REPOSITORY", "octo/avatars-site")
	t.Setenv("GITHUB_SHA", "0123abcd")
	t.Setenv("AVATARS_MODE", "TRANSCODE")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://octo.github.io/avatars-site", cfg.Site.PagesBaseURL())
	assert.Equal(t, "0123abcd", cfg.Site.Revision)
	assert.Equal(t, manifest.ModeTranscode, cfg.ModeValue())
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  root: images
output:
  directory: public
  gzip: true
mode: transcode
site:
  base_url: https://cdn.example.com/
transcode:
  format: png
  thumb_size: 64
watch:
  debounce: 2s
`), 0644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "images", cfg.Input.Root)
	assert.Equal(t, "images", cfg.PublicPath())
	assert.True(t, cfg.Output.Gzip)
	assert.Equal(t, "https://cdn.example.com", cfg.Site.PagesBaseURL())
	assert.Equal(t, "png", cfg.Transcode.Format)
	assert.Equal(t, 64, cfg.Transcode.ThumbSize)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown mode", func(c *Config) { c.Mode = "magic" }, true},
		{"bad owner repo", func(c *Config) { c.Site.OwnerRepo = "justowner" }, true},
		{"jpg alias", func(c *Config) { c.Transcode.Format = "JPG" }, false},
		{"gif output", func(c *Config) { c.Transcode.Format = "gif" }, true},
		{"quality too high", func(c *Config) { c.Transcode.Quality = 101 }, true},
		{"negative size", func(c *Config) { c.Transcode.ThumbSize = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPublicPath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "avatars", cfg.PublicPath())

	cfg.Input.Root = "./static/avatars/"
	assert.Equal(t, "avatars", cfg.PublicPath())

	cfg.Input.PublicPath = "/media/avatars/"
	assert.Equal(t, "media/avatars", cfg.PublicPath())
}
