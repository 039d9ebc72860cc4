package config

import "time"

// Config is the top-level aerialctl configuration.
type Config struct {
	Bucket   BucketConfig   `mapstructure:"bucket"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Bundled  []BundledVideo `mapstructure:"bundled"`
	LogLevel string         `mapstructure:"log_level"`
}

// BucketConfig holds object-store connection settings.
type BucketConfig struct {
	Name         string `mapstructure:"name"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"` // optional override
	AccessKeyEnv string `mapstructure:"access_key_env"`
	SecretKeyEnv string `mapstructure:"secret_key_env"`

	// Resolved at runtime from env, never written to disk.
	AccessKeyID     string `mapstructure:"-"`
	SecretAccessKey string `mapstructure:"-"`
}

// StorageConfig holds local directory layout.
type StorageConfig struct {
	VideosDir     string `mapstructure:"videos_dir"`
	ThumbnailsDir string `mapstructure:"thumbnails_dir"`
	StateFile     string `mapstructure:"state_file"`
}

// SyncConfig tunes fetch behavior.
type SyncConfig struct {
	ListingTimeout    time.Duration `mapstructure:"listing_timeout"`
	MaxConcurrent     int           `mapstructure:"max_concurrent_downloads"`
	ExtractThumbnails bool          `mapstructure:"extract_thumbnails"`
}

// BundledVideo declares a video shipped with the application.
type BundledVideo struct {
	Title   string `mapstructure:"title" yaml:"title"`
	File    string `mapstructure:"file" yaml:"file"`
	Section string `mapstructure:"section" yaml:"section"`
}
