// Package config loads engine settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied for unset fields.
const (
	DefaultMaxConcurrent   = 3
	DefaultDebounceMs      = 300
	DefaultShortTimeoutSec = 60
	DefaultLongTimeoutSec  = 300
)

// LogConfig controls the rotating log file.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Debug      bool   `yaml:"debug"`
}

// Config holds all tunables of the engine.
type Config struct {
	// MaxConcurrent bounds simultaneous git subprocesses across all
	// repositories.
	MaxConcurrent int `yaml:"max_concurrent"`

	// DebounceMs is the watcher quiet period in milliseconds.
	DebounceMs int `yaml:"debounce_ms"`

	// ShortTimeoutSec bounds local operations, LongTimeoutSec bounds
	// network and multi-step operations.
	ShortTimeoutSec int `yaml:"short_timeout_s"`
	LongTimeoutSec  int `yaml:"long_timeout_s"`

	// RegistryPath overrides the repo registry location.
	RegistryPath string `yaml:"registry_path"`

	Log LogConfig `yaml:"log"`
}

// Default returns a Config with every field at its default.
func Default() Config {
	return Config{
		MaxConcurrent:   DefaultMaxConcurrent,
		DebounceMs:      DefaultDebounceMs,
		ShortTimeoutSec: DefaultShortTimeoutSec,
		LongTimeoutSec:  DefaultLongTimeoutSec,
	}
}

// Load reads a YAML config file and fills unset fields with defaults.
// A missing file yields the defaults, not an error, so a fresh install
// works without any configuration.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.DebounceMs < 1 {
		cfg.DebounceMs = DefaultDebounceMs
	}
	if cfg.ShortTimeoutSec < 1 {
		cfg.ShortTimeoutSec = DefaultShortTimeoutSec
	}
	if cfg.LongTimeoutSec < 1 {
		cfg.LongTimeoutSec = DefaultLongTimeoutSec
	}

	return cfg, nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(base, "githulu", "config.yaml"), nil
}

// Debounce returns the watcher quiet period.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ShortTimeout returns the bound for local operations.
func (c Config) ShortTimeout() time.Duration {
	return time.Duration(c.ShortTimeoutSec) * time.Second
}

// LongTimeout returns the bound for network and multi-step operations.
func (c Config) LongTimeout() time.Duration {
	return time.Duration(c.LongTimeoutSec) * time.Second
}
