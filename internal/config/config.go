// Package config holds the unified YAML configuration: one struct per
// concern, defaults for every field, environment overrides for the
// secrets that should not live in a file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Oracle OracleConfig `yaml:"oracle"`
	Store  StoreConfig  `yaml:"store"`
}

// ServerConfig configures the HTTP surface and the entitlement policy.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	AdminToken string `yaml:"admin_token"`
	FreeQuota  int    `yaml:"free_quota"` // free readings before activation is required
}

// OracleConfig configures the generative-model collaborator.
type OracleConfig struct {
	Provider        string   `yaml:"provider"` // rest | genai
	APIKey          string   `yaml:"api_key"`
	BaseURL         string   `yaml:"base_url"`
	Models          []string `yaml:"models"` // candidate priority order
	Temperature     float64  `yaml:"temperature"`
	MaxOutputTokens int      `yaml:"max_output_tokens"`
	Timeout         string   `yaml:"timeout"`
}

// StoreConfig configures the entitlement store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":8787",
			FreeQuota: 3,
		},
		Oracle: OracleConfig{
			Provider:        "rest",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Temperature:     0.7,
			MaxOutputTokens: 1024,
			Timeout:         "60s",
		},
		Store: StoreConfig{
			Path: "qiankun.db",
		},
	}
}

// Load reads the config file, applies env overrides, and falls back to
// defaults when the file does not exist.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets secrets come from the environment rather than
// the config file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Oracle.APIKey = key
	}
	if token := os.Getenv("QIANKUN_ADMIN_TOKEN"); token != "" {
		c.Server.AdminToken = token
	}
}

// TimeoutDuration parses the oracle timeout, falling back to the
// default on garbage.
func (o OracleConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(o.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}
