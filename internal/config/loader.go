package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from defaults, an optional config file, the
// environment and any flags already bound to v.
// When configFile is empty, avatars.yaml is looked up in the working directory.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (AVATARS_*), plus the GitHub Actions variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("site.owner_repo", EnvPrefix+"_SITE_OWNER_REPO", "GITHUB_REPOSITORY")
	_ = v.BindEnv("site.revision", EnvPrefix+"_SITE_REVISION", "GITHUB_SHA")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("input.root", d.Input.Root)
	v.SetDefault("input.public_path", "")

	v.SetDefault("output.directory", d.Output.Directory)
	v.SetDefault("output.manifest", d.Output.Manifest)
	v.SetDefault("output.gzip", false)

	v.SetDefault("mode", d.Mode)

	v.SetDefault("site.owner_repo", "")
	v.SetDefault("site.base_url", "")
	v.SetDefault("site.revision", "")
	v.SetDefault("site.detect_revision", d.Site.DetectRevision)
	v.SetDefault("site.group_link_template", "")

	v.SetDefault("transcode.max_dimension", d.Transcode.MaxDimension)
	v.SetDefault("transcode.thumb_size", d.Transcode.ThumbSize)
	v.SetDefault("transcode.format", d.Transcode.Format)
	v.SetDefault("transcode.quality", d.Transcode.Quality)

	v.SetDefault("ledger.dsn", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("watch.debounce", d.Watch.Debounce)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
