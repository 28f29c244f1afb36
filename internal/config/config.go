// Package config loads server configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "2h" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all server settings.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	// SessionTTL is how long an idle session survives.
	SessionTTL Duration `yaml:"session_ttl"`

	// MaxUploadBytes caps the multipart upload size.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// DefaultKeyColumn / DefaultItemColumn name the transaction-key and item
	// columns used when the upload does not override them.
	DefaultKeyColumn  string `yaml:"default_key_column"`
	DefaultItemColumn string `yaml:"default_item_column"`

	// Defaults for the mining controls.
	DefaultMinSupport   float64 `yaml:"default_min_support"`
	DefaultMetric       string  `yaml:"default_metric"`
	DefaultMinThreshold float64 `yaml:"default_min_threshold"`

	// MaxItems guards against candidate-generation blowup on wide catalogs.
	MaxItems int `yaml:"max_items"`

	// PreviewRows is the default table preview length.
	PreviewRows int `yaml:"preview_rows"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		ListenAddr:          "0.0.0.0:8080",
		SessionTTL:          Duration(2 * time.Hour),
		MaxUploadBytes:      32 << 20,
		DefaultKeyColumn:    "invoiceno",
		DefaultItemColumn:   "description",
		DefaultMinSupport:   0.05,
		DefaultMetric:       "confidence",
		DefaultMinThreshold: 0.5,
		MaxItems:            4096,
		PreviewRows:         5,
	}
}

// Load reads the configuration: defaults, then the YAML file (if path is
// non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the environment.
func applyEnv(cfg *Config) {
	cfg.ListenAddr = getEnv("CARTLENS_ADDR", cfg.ListenAddr)
	cfg.DefaultKeyColumn = getEnv("CARTLENS_KEY_COLUMN", cfg.DefaultKeyColumn)
	cfg.DefaultItemColumn = getEnv("CARTLENS_ITEM_COLUMN", cfg.DefaultItemColumn)
	if v := os.Getenv("CARTLENS_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTTL = Duration(d)
		}
	}
	if v := os.Getenv("CARTLENS_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("CARTLENS_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxItems = n
		}
	}
}

// validate rejects settings no server could run with.
func (c Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.DefaultMinSupport <= 0 || c.DefaultMinSupport > 1 {
		return fmt.Errorf("default_min_support must be in (0, 1]")
	}
	if c.PreviewRows <= 0 {
		return fmt.Errorf("preview_rows must be positive")
	}
	return nil
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
