// Package config provides configuration loading and structs for brainobs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Data     DataConfig     `yaml:"data"`
	Sessions SessionsConfig `yaml:"sessions"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the project database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// Supported file ID strategies.
const (
	StrategyPath    = "path"
	StrategyContent = "content"
)

// DataConfig describes where data files live and how they get their IDs.
type DataConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	IDStrategy  string   `yaml:"id_strategy"`
	IDBase      int      `yaml:"id_base"`
}

// RecursiveOrDefault returns whether to walk directories recursively; defaults to true when unset.
func (d *DataConfig) RecursiveOrDefault() bool {
	if d.Recursive != nil {
		return *d.Recursive
	}
	return true
}

// SessionsConfig holds sessions table defaults.
type SessionsConfig struct {
	IndexColumn string   `yaml:"index_column"`
	Suppress    []string `yaml:"suppress"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Data.Directories {
		cfg.Data.Directories[i] = expandPath(cfg.Data.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate rejects settings no component can honour.
func (c *Config) Validate() error {
	switch c.Data.IDStrategy {
	case StrategyPath, StrategyContent:
	default:
		return fmt.Errorf("invalid data.id_strategy %q: must be %q or %q", c.Data.IDStrategy, StrategyPath, StrategyContent)
	}
	if c.Data.IDBase < 0 {
		return fmt.Errorf("invalid data.id_base %d: must not be negative", c.Data.IDBase)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
