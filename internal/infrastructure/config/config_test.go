package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 3, cfg.Oracle.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Oracle.InitialBackoff)
	assert.False(t, cfg.CrossCheck.Enabled)
	assert.Equal(t, 0.8, cfg.Policy.MinConfidence)
	assert.Equal(t, 3, cfg.Policy.MaxGaps)
	assert.Equal(t, 10, cfg.Sync.ChunkSize)
	assert.Equal(t, 5, cfg.Sync.FanOut)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "none", cfg.Media.Queue)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	require.NoError(t, cfg.Validate())
}

func TestParse_DefaultYAMLMatchesDefault(t *testing.T) {
	cfg, err := Parse([]byte(DefaultConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
oracle:
  provider: http
  endpoint: https://oracle.example.com
  timeout: 5s
cross_check:
  enabled: true
policy:
  min_confidence: 0.65
sync:
  fan_out: 2
`))
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Oracle.Provider)
	assert.Equal(t, 5*time.Second, cfg.Oracle.Timeout)
	// Unset fields keep their defaults.
	assert.Equal(t, 3, cfg.Oracle.MaxAttempts)
	assert.True(t, cfg.CrossCheck.Enabled)
	assert.Equal(t, "gemini", cfg.CrossCheck.Oracle.Provider)
	assert.Equal(t, 0.65, cfg.Policy.MinConfidence)
	assert.Equal(t, 3, cfg.Policy.MaxGaps)
	assert.Equal(t, 2, cfg.Sync.FanOut)
	assert.Equal(t, 10, cfg.Sync.ChunkSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"confidence above one", func(c *Config) { c.Policy.MinConfidence = 1.5 }, "min_confidence"},
		{"negative gaps", func(c *Config) { c.Policy.MaxGaps = -1 }, "max_gaps"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.dsn"},
		{"unknown queue", func(c *Config) { c.Media.Queue = "kafka" }, "media queue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
	assert.Equal(t, "sk-test", cfg.Embedder.APIKey)
	assert.Equal(t, "gm-test", cfg.CrossCheck.Oracle.APIKey)
	assert.Equal(t, "redis://cache:6379/1", cfg.Media.RedisURL)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestLoad_DatabaseURLSelectsPostgres(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))
	t.Setenv("DATABASE_URL", "postgres://lore@db/lore?sslmode=disable")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://lore@db/lore?sslmode=disable", cfg.Storage.DSN)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lore-sync init")
}

func TestWriteDefault_Twice(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))
	assert.True(t, Exists(dir))

	err := WriteDefault(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Sync.Actor = "night-shift"

	require.NoError(t, Write(dir, cfg))

	data, err := os.ReadFile(filepath.Join(dir, DefaultConfigDir, DefaultConfigFile))
	require.NoError(t, err)
	loaded, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "night-shift", loaded.Sync.Actor)
	assert.Equal(t, cfg.Oracle.InitialBackoff, loaded.Oracle.InitialBackoff)
}

func TestDatabasePath(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "/srv/app/.lore-sync/lore-sync.db", cfg.DatabasePath("/srv/app"))

	cfg.Storage.Path = ":memory:"
	assert.Equal(t, ":memory:", cfg.DatabasePath("/srv/app"))

	cfg.Storage.Path = "/var/lib/lore.db"
	assert.Equal(t, "/var/lib/lore.db", cfg.DatabasePath("/srv/app"))
}

func TestConfigFilePath(t *testing.T) {
	assert.Equal(t, "/home/user/project/.lore-sync", ConfigDir("/home/user/project"))
	assert.Equal(t, "/home/user/project/.lore-sync/config.yaml", ConfigFilePath("/home/user/project"))
}
