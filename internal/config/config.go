package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tendant/avatar-manifest/pkg/manifest"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the builder configuration
type Config struct {
	Input     InputConfig     `mapstructure:"input" yaml:"input"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Mode      string          `mapstructure:"mode" yaml:"mode"`
	Site      SiteConfig      `mapstructure:"site" yaml:"site"`
	Transcode TranscodeConfig `mapstructure:"transcode" yaml:"transcode"`
	Ledger    LedgerConfig    `mapstructure:"ledger" yaml:"ledger"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// InputConfig describes the source tree
type InputConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
	// PublicPath is the URL path the root is published under in passthrough mode.
	// Defaults to the base name of Root.
	PublicPath string `mapstructure:"public_path" yaml:"public_path"`
}

// OutputConfig describes where the manifest and assets are written
type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	Manifest  string `mapstructure:"manifest" yaml:"manifest"`
	Gzip      bool   `mapstructure:"gzip" yaml:"gzip"`
}

// SiteConfig contains the public URL settings
type SiteConfig struct {
	OwnerRepo         string `mapstructure:"owner_repo" yaml:"owner_repo"`
	BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
	Revision          string `mapstructure:"revision" yaml:"revision"`
	DetectRevision    bool   `mapstructure:"detect_revision" yaml:"detect_revision"`
	GroupLinkTemplate string `mapstructure:"group_link_template" yaml:"group_link_template"`
}

// TranscodeConfig contains image processing settings
type TranscodeConfig struct {
	MaxDimension int    `mapstructure:"max_dimension" yaml:"max_dimension"`
	ThumbSize    int    `mapstructure:"thumb_size" yaml:"thumb_size"`
	Format       string `mapstructure:"format" yaml:"format"`
	Quality      int    `mapstructure:"quality" yaml:"quality"`
}

// LedgerConfig enables the asset ledger when DSN is set
type LedgerConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// MetricsConfig enables the metrics textfile when Textfile is set
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// WatchConfig contains watch mode settings
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate applies defaults for zero values and rejects invalid settings
func (c *Config) Validate() error {
	if c.Input.Root == "" {
		c.Input.Root = DefaultInputRoot
	}
	if c.Output.Directory == "" {
		c.Output.Directory = DefaultOutputDir
	}
	if c.Output.Manifest == "" {
		c.Output.Manifest = DefaultManifestName
	}
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	c.Mode = strings.ToLower(c.Mode)
	switch manifest.Mode(c.Mode) {
	case manifest.ModePassThrough, manifest.ModeTranscode:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}

	if c.Site.OwnerRepo != "" {
		if _, _, err := splitOwnerRepo(c.Site.OwnerRepo); err != nil {
			return err
		}
	}

	if c.Transcode.MaxDimension == 0 {
		c.Transcode.MaxDimension = DefaultMaxDimension
	}
	if c.Transcode.ThumbSize == 0 {
		c.Transcode.ThumbSize = DefaultThumbSize
	}
	if c.Transcode.MaxDimension < 0 || c.Transcode.ThumbSize < 0 {
		return fmt.Errorf("%w: transcode sizes must be positive", ErrInvalidConfig)
	}
	if c.Transcode.Format == "" {
		c.Transcode.Format = DefaultFormat
	}
	c.Transcode.Format = strings.ToLower(c.Transcode.Format)
	if c.Transcode.Format == "jpg" {
		c.Transcode.Format = "jpeg"
	}
	if c.Transcode.Format != "jpeg" && c.Transcode.Format != "png" {
		return fmt.Errorf("%w: unsupported transcode format %q", ErrInvalidConfig, c.Transcode.Format)
	}
	if c.Transcode.Quality == 0 {
		c.Transcode.Quality = DefaultQuality
	}
	if c.Transcode.Quality < 1 || c.Transcode.Quality > 100 {
		return fmt.Errorf("%w: quality must be between 1 and 100", ErrInvalidConfig)
	}

	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultWatchDebounce
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	return nil
}

// ModeValue returns the configured mode as a manifest.Mode
func (c *Config) ModeValue() manifest.Mode {
	return manifest.Mode(c.Mode)
}

// PublicPath returns the URL path segment for the input root
func (c *Config) PublicPath() string {
	if c.Input.PublicPath != "" {
		return strings.Trim(c.Input.PublicPath, "/")
	}
	return filepath.ToSlash(filepath.Base(filepath.Clean(c.Input.Root)))
}

// ManifestPath returns where the manifest file is written
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Output.Directory, c.Output.Manifest)
}

// HasRepository reports whether an owner/repo or explicit base URL is configured
func (s SiteConfig) HasRepository() bool {
	return s.BaseURL != "" || s.OwnerRepo != ""
}

// PagesBaseURL returns the public base URL of the site without a trailing slash.
// An explicit BaseURL wins; otherwise https://<owner>.github.io/<repo>.
func (s SiteConfig) PagesBaseURL() string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/")
	}

	owner, repo := placeholderOwner, placeholderRepo
	if s.OwnerRepo != "" {
		if o, r, err := splitOwnerRepo(s.OwnerRepo); err == nil {
			owner, repo = o, r
		}
	}
	return fmt.Sprintf("https://%s.github.io/%s", owner, repo)
}

func splitOwnerRepo(ownerRepo string) (string, string, error) {
	parts := strings.Split(ownerRepo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: owner_repo must look like owner/repo, got %q", ErrInvalidConfig, ownerRepo)
	}
	return parts[0], parts[1], nil
}
