package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "aerialctl", "config.yml")
}

// Load reads the config from disk (or env). Returns defaults if no
// file exists yet — the init command creates one.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("bucket.region", "us-west-2")
	v.SetDefault("bucket.access_key_env", "AWS_ACCESS_KEY_ID")
	v.SetDefault("bucket.secret_key_env", "AWS_SECRET_ACCESS_KEY")
	v.SetDefault("storage.videos_dir", defaultDataDir("videos"))
	v.SetDefault("storage.thumbnails_dir", defaultDataDir("thumbnails"))
	v.SetDefault("storage.state_file", defaultDataDir("state.yml"))
	v.SetDefault("sync.listing_timeout", 30*time.Second)
	v.SetDefault("sync.max_concurrent_downloads", 3)
	v.SetDefault("sync.extract_thumbnails", true)
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix("AERIALCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := os.Getenv("AERIALCTL_CONFIG")
	if configPath == "" {
		configPath = DefaultPath()
	}
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		// Not finding the config file is fine — init creates it.
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Credentials come from env only, never the file.
	cfg.Bucket.AccessKeyID = os.Getenv(cfg.Bucket.AccessKeyEnv)
	cfg.Bucket.SecretAccessKey = os.Getenv(cfg.Bucket.SecretKeyEnv)

	cfg.Storage.VideosDir = ExpandHome(cfg.Storage.VideosDir)
	cfg.Storage.ThumbnailsDir = ExpandHome(cfg.Storage.ThumbnailsDir)
	cfg.Storage.StateFile = ExpandHome(cfg.Storage.StateFile)
	for i := range cfg.Bundled {
		cfg.Bundled[i].File = ExpandHome(cfg.Bundled[i].File)
	}

	return &cfg, nil
}

// Save writes the config to the default path.
func Save(cfg *Config) error {
	path := DefaultPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(saveView(cfg))
}

// saveView strips runtime-only fields before writing.
func saveView(cfg *Config) map[string]interface{} {
	return map[string]interface{}{
		"bucket": map[string]interface{}{
			"name":           cfg.Bucket.Name,
			"region":         cfg.Bucket.Region,
			"endpoint":       cfg.Bucket.Endpoint,
			"access_key_env": cfg.Bucket.AccessKeyEnv,
			"secret_key_env": cfg.Bucket.SecretKeyEnv,
		},
		"storage": map[string]interface{}{
			"videos_dir":     cfg.Storage.VideosDir,
			"thumbnails_dir": cfg.Storage.ThumbnailsDir,
			"state_file":     cfg.Storage.StateFile,
		},
		"sync": map[string]interface{}{
			"listing_timeout":          cfg.Sync.ListingTimeout.String(),
			"max_concurrent_downloads": cfg.Sync.MaxConcurrent,
			"extract_thumbnails":       cfg.Sync.ExtractThumbnails,
		},
		"bundled":   cfg.Bundled,
		"log_level": cfg.LogLevel,
	}
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func defaultDataDir(sub string) string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "aerialctl", sub)
}
