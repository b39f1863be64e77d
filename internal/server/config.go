// Package server implements the HTTP data API of the tree browser.
//
// It serves the cluster trees held by a treestore.Store in the REST shape
// the browser frontend and the providerhttp client consume, with structured
// request logging, panic recovery, Prometheus metrics, and a TTL cache over
// the hot node-view lookups.
package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loadable from YAML.
type Config struct {
	// HTTPAddr is the listen address, e.g. ":8080".
	HTTPAddr string `yaml:"http_addr"`

	// DataDir holds the dataset manifest and node files.
	DataDir string `yaml:"data_dir"`

	// AuthToken, when non-empty, requires "Authorization: Bearer <token>"
	// on every /api request.
	AuthToken string `yaml:"auth_token"`

	Cache CacheConfig `yaml:"cache"`
}

// CacheConfig tunes the node-view response cache.
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
	MaxEntries int `yaml:"max_entries"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		HTTPAddr: ":8080",
		DataDir:  "data",
		Cache: CacheConfig{
			TTLSeconds: 300,
			MaxEntries: 4096,
		},
	}
}

// LoadConfig reads a YAML config file, filling unset fields with defaults.
// An empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = 4096
	}
	return cfg, nil
}

// ttl returns the cache TTL as a duration.
func (c CacheConfig) ttl() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
