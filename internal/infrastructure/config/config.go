// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	token := cfg.Shopify.AccessToken
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Shopify       ShopifyConfig       `yaml:"shopify"`
	Speedy        SpeedyConfig        `yaml:"speedy"`
	Storage       StorageConfig       `yaml:"storage"`
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ShopifyConfig holds Shopify Admin API credentials
type ShopifyConfig struct {
	StoreDomain string `yaml:"store_domain"` // e.g. "testograph.myshopify.com"
	AccessToken string `yaml:"access_token"`
	APIVersion  string `yaml:"api_version"`
}

// SpeedyConfig holds courier tracking API configuration
type SpeedyConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ReconcileConfig holds reconciliation engine settings
type ReconcileConfig struct {
	// PacingMS is the minimum gap between external calls on the write path,
	// in milliseconds. The Shopify Admin API enforces a low request rate.
	PacingMS int `yaml:"pacing_ms"`

	// DeliveredPhrases overrides the built-in delivered phrase table when
	// non-empty. Matched case-insensitively as substrings.
	DeliveredPhrases []string `yaml:"delivered_phrases"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PacingInterval returns the configured pacing gap as a duration.
func (c ReconcileConfig) PacingInterval() time.Duration {
	if c.PacingMS <= 0 {
		return 600 * time.Millisecond
	}
	return time.Duration(c.PacingMS) * time.Millisecond
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${SHOPIFY_ACCESS_TOKEN})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Shopify: ShopifyConfig{
			StoreDomain: os.Getenv("SHOPIFY_STORE_DOMAIN"),
			AccessToken: os.Getenv("SHOPIFY_ACCESS_TOKEN"),
			APIVersion:  getEnv("SHOPIFY_API_VERSION", "2024-10"),
		},
		Speedy: SpeedyConfig{
			Endpoint: getEnv("SPEEDY_ENDPOINT", "https://api.speedy.bg/v1"),
			APIKey:   os.Getenv("SPEEDY_API_KEY"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("SYNC_DB_PATH", "testograph_sync.db"),
		},
		Reconcile: ReconcileConfig{
			PacingMS: getEnvInt("RECONCILE_PACING_MS", 600),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate checks that all credentials required for a reconciliation run are
// present. A failure here is fatal: a run must not start on partial config.
func (c *Config) Validate() error {
	if c.Shopify.StoreDomain == "" {
		return fmt.Errorf("missing shopify store domain (SHOPIFY_STORE_DOMAIN)")
	}
	if c.Shopify.AccessToken == "" {
		return fmt.Errorf("missing shopify access token (SHOPIFY_ACCESS_TOKEN)")
	}
	if c.Speedy.Endpoint == "" {
		return fmt.Errorf("missing speedy endpoint (SPEEDY_ENDPOINT)")
	}
	if c.Speedy.APIKey == "" {
		return fmt.Errorf("missing speedy api key (SPEEDY_API_KEY)")
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("missing storage database path (SYNC_DB_PATH)")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Shopify.APIVersion == "" {
		c.Shopify.APIVersion = "2024-10"
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "testograph_sync.db"
	}
	if c.Reconcile.PacingMS <= 0 {
		c.Reconcile.PacingMS = 600
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
	}
	return fallback
}
