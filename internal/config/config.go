package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

const (
	defaultListen           = "127.0.0.1:7878"
	defaultLogLevel         = "info"
	defaultRefreshCron      = "*/20 * * * *"
	defaultHorizonMinutes   = 7460
	defaultMaxWindowMinutes = 7 * 24 * 60
	defaultCacheDir         = "./var/cache"
)

// SourcesConfig locates the generator input snapshots. Each value is an
// "embedded:<name>" reference, a file path, or an http(s) URL. Empty values
// use the built-in snapshot.
type SourcesConfig struct {
	Events    string `yaml:"events" json:"events"`
	Elections string `yaml:"elections" json:"elections"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFile, if set, receives a copy of every log line.
	LogFile string `yaml:"log_file,omitempty" json:"log_file,omitempty"`

	// RefreshCron is a cron-style schedule string (e.g. "*/20 * * * *")
	// on which the snapshot is reloaded and the global calendar regenerated.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonMinutes is the window generated for the global calendar.
	HorizonMinutes int `yaml:"horizon_minutes" json:"horizon_minutes"`

	// MaxWindowMinutes bounds ad-hoc generation requests over HTTP.
	MaxWindowMinutes int `yaml:"max_window_minutes" json:"max_window_minutes"`

	// CacheDir holds the HTTP cache of remote snapshots.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	Sources SourcesConfig `yaml:"sources" json:"sources"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           defaultListen,
		LogLevel:         defaultLogLevel,
		RefreshCron:      defaultRefreshCron,
		HorizonMinutes:   defaultHorizonMinutes,
		MaxWindowMinutes: defaultMaxWindowMinutes,
		CacheDir:         defaultCacheDir,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	switch c.LogLevel {
	case "debug", "info", "error":
		// ok
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonMinutes <= 0 {
		c.HorizonMinutes = defaultHorizonMinutes
	}
	if c.MaxWindowMinutes <= 0 {
		c.MaxWindowMinutes = defaultMaxWindowMinutes
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
}

// Horizon returns HorizonMinutes as a duration.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.HorizonMinutes) * time.Minute
}

// MaxWindow returns MaxWindowMinutes as a duration.
func (c *Config) MaxWindow() time.Duration {
	return time.Duration(c.MaxWindowMinutes) * time.Minute
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".skycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
