package config

import (
	"fmt"
	"sync/atomic"
)

// current is the configuration the running command reads from. A reload
// swaps the pointer, so readers holding the previous *Config keep a
// consistent snapshot.
var current atomic.Pointer[Config]

// SetConfig installs cfg as the active configuration.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}

// GetConfig returns the active configuration, or nil before SetConfig or
// ReloadConfig has installed one.
func GetConfig() *Config {
	return current.Load()
}

// ReloadConfig loads path with environment overrides and, when it validates,
// installs the result as the active configuration. On failure the previous
// configuration stays in place and the error is returned.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration from %q: %w", path, err)
	}
	current.Store(cfg)
	return cfg, nil
}
