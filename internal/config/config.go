// Package config loads service configuration from the environment, with
// an optional YAML overlay file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Volume    VolumeConfig    `yaml:"volume"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Stats     StatsConfig     `yaml:"stats"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// VolumeConfig holds the sandbox root and I/O policy. Root is the sole
// trust boundary; it is established once at startup and never changes for
// the process lifetime.
type VolumeConfig struct {
	Root              string   `envconfig:"VOLUME_ROOT" default:"/var/lib/volumed" yaml:"root"`
	CreateRoot        bool     `envconfig:"VOLUME_CREATE_ROOT" default:"true" yaml:"create_root"`
	MaxReadBytes      int64    `envconfig:"MAX_READ_BYTES" default:"10485760" yaml:"max_read_bytes"`
	AllowedExtensions []string `envconfig:"ALLOWED_EXTENSIONS" yaml:"allowed_extensions"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// StatsConfig holds volume statistics configuration. A zero TTL disables
// caching so every request recomputes the aggregate.
type StatsConfig struct {
	CacheTTL time.Duration `envconfig:"STATS_CACHE_TTL" default:"0s" yaml:"cache_ttl"`
}

// Load reads configuration from environment variables and, when
// CONFIG_FILE is set, overlays values from that YAML file. File values
// win over the environment for anything set in both.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
