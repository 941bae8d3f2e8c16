package config

import "time"

// Default values
const (
	DefaultInputRoot    = "avatars"
	DefaultOutputDir    = "dist"
	DefaultManifestName = "index.json"
	DefaultMode         = "passthrough"

	DefaultMaxDimension = 512
	DefaultThumbSize    = 128
	DefaultFormat       = "jpeg"
	DefaultQuality      = 82

	DefaultWatchDebounce = 500 * time.Millisecond

	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"

	// placeholderOwner and placeholderRepo are used when no repository is configured
	placeholderOwner = "<owner>"
	placeholderRepo  = "<repo>"
)

// ConfigName is the config file name looked up without extension
const ConfigName = "avatars"

// EnvPrefix prefixes every environment override (AVATARS_MODE, ...)
const EnvPrefix = "AVATARS"

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Root: DefaultInputRoot,
		},
		Output: OutputConfig{
			Directory: DefaultOutputDir,
			Manifest:  DefaultManifestName,
		},
		Mode: DefaultMode,
		Site: SiteConfig{
			DetectRevision: true,
		},
		Transcode: TranscodeConfig{
			MaxDimension: DefaultMaxDimension,
			ThumbSize:    DefaultThumbSize,
			Format:       DefaultFormat,
			Quality:      DefaultQuality,
		},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
