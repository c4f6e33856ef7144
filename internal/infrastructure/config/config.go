// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for lore-sync configuration.
	DefaultConfigDir = ".lore-sync"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the SQLite file created next to the config.
	DefaultDatabaseFile = "lore-sync.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Oracle     OracleConfig     `yaml:"oracle,omitempty"`
	CrossCheck CrossCheckConfig `yaml:"cross_check,omitempty"`
	Policy     PolicyConfig     `yaml:"policy,omitempty"`
	Sync       SyncConfig       `yaml:"sync,omitempty"`
	Storage    StorageConfig    `yaml:"storage,omitempty"`
	Embedder   EmbedderConfig   `yaml:"embedder,omitempty"`
	Qdrant     QdrantConfig     `yaml:"qdrant,omitempty"`
	Reference  ReferenceConfig  `yaml:"reference,omitempty"`
	Media      MediaConfig      `yaml:"media,omitempty"`
	API        APIConfig        `yaml:"api,omitempty"`
	Log        LogConfig        `yaml:"log,omitempty"`
}

// OracleConfig holds configuration for one oracle provider.
type OracleConfig struct {
	// Provider is one of "openai", "gemini" or "http".
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// Endpoint is the base URL for the "http" provider, or an OpenAI-compatible base URL.
	Endpoint       string        `yaml:"endpoint,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	MaxAttempts    int           `yaml:"max_attempts,omitempty"`
	InitialBackoff time.Duration `yaml:"initial_backoff,omitempty"`
}

// CrossCheckConfig configures the optional second oracle.
type CrossCheckConfig struct {
	Enabled bool         `yaml:"enabled"`
	Oracle  OracleConfig `yaml:"oracle,omitempty"`
}

// PolicyConfig holds the validator thresholds.
type PolicyConfig struct {
	MinConfidence float64 `yaml:"min_confidence,omitempty"`
	MaxGaps       int     `yaml:"max_gaps,omitempty"`
}

// SyncConfig controls batch runs.
type SyncConfig struct {
	ChunkSize int    `yaml:"chunk_size,omitempty"`
	FanOut    int    `yaml:"fan_out,omitempty"`
	Actor     string `yaml:"actor,omitempty"`
}

// StorageConfig selects the relational database.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver,omitempty"`
	// Path is the SQLite database file, relative to the config directory.
	Path string `yaml:"path,omitempty"`
	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// ReferenceConfig enables the reference index of verified entities.
type ReferenceConfig struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit,omitempty"`
}

// MediaConfig selects where media jobs are sent.
type MediaConfig struct {
	// Queue is "none" or "redis".
	Queue    string `yaml:"queue,omitempty"`
	RedisURL string `yaml:"redis_url,omitempty"`
	Key      string `yaml:"key,omitempty"`
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level,omitempty"`
	Development bool   `yaml:"development"`
}

// DefaultOracle returns the primary oracle defaults.
func DefaultOracle() OracleConfig {
	return OracleConfig{
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		Timeout:        30 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
	}
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Oracle: DefaultOracle(),
		CrossCheck: CrossCheckConfig{
			Oracle: OracleConfig{
				Provider:       "gemini",
				Model:          "gemini-2.5-flash",
				Timeout:        30 * time.Second,
				MaxAttempts:    3,
				InitialBackoff: 500 * time.Millisecond,
			},
		},
		Policy: PolicyConfig{
			MinConfidence: 0.8,
			MaxGaps:       3,
		},
		Sync: SyncConfig{
			ChunkSize: 10,
			FanOut:    5,
			Actor:     "content-sync",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   DefaultDatabaseFile,
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "lore_sync_references",
		},
		Reference: ReferenceConfig{
			Limit: 3,
		},
		Media: MediaConfig{
			Queue: "none",
			Key:   "lore-sync:media-jobs",
		},
		API: APIConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the .lore-sync directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'lore-sync init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Policy.MinConfidence < 0 || c.Policy.MinConfidence > 1 {
		return fmt.Errorf("policy.min_confidence must be within [0, 1], got %v", c.Policy.MinConfidence)
	}
	if c.Policy.MaxGaps < 0 {
		return fmt.Errorf("policy.max_gaps must not be negative, got %d", c.Policy.MaxGaps)
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for postgres")
	}
	switch c.Media.Queue {
	case "", "none", "redis":
	default:
		return fmt.Errorf("unknown media queue %q", c.Media.Queue)
	}
	return nil
}

// applyEnvOverrides fills empty secrets from the environment.
func (c *Config) applyEnvOverrides() {
	fillFromEnv(&c.Embedder.APIKey, "OPENAI_API_KEY")
	fillFromEnv(&c.Qdrant.APIKey, "QDRANT_API_KEY")
	fillFromEnv(&c.Media.RedisURL, "REDIS_URL")

	for _, oc := range []*OracleConfig{&c.Oracle, &c.CrossCheck.Oracle} {
		switch oc.Provider {
		case "openai":
			fillFromEnv(&oc.APIKey, "OPENAI_API_KEY")
		case "gemini":
			fillFromEnv(&oc.APIKey, "GEMINI_API_KEY")
		case "http":
			fillFromEnv(&oc.APIKey, "ORACLE_API_KEY")
		}
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" && c.Storage.DSN == "" {
		c.Storage.DSN = dsn
		c.Storage.Driver = "postgres"
	}
}

func fillFromEnv(dst *string, key string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DatabasePath resolves the SQLite file relative to the config directory.
// ":memory:" and absolute paths are returned unchanged.
func (c *Config) DatabasePath(basePath string) string {
	path := c.Storage.Path
	if path == "" {
		path = DefaultDatabaseFile
	}
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ConfigDir(basePath), path)
}

// ConfigDir returns the path to the .lore-sync config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a lore-sync config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
