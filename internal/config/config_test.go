package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults without a file", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())

		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Store.Driver)
		assert.Equal(t, 200, cfg.Store.ListLimit)
		assert.Equal(t, 500, cfg.Store.BatchSize)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Logger.Level)
		assert.Equal(t, 20.0, cfg.Remote.RateLimit)
	})

	t.Run("File overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		content := `
store:
  driver: mongo
  list_limit: 50
mongo:
  uri: mongodb://db:27017
  database: trades
server:
  port: 9090
logger:
  level: debug
  format: json
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o644))

		cfg, err := LoadConfig(dir)

		require.NoError(t, err)
		assert.Equal(t, "mongo", cfg.Store.Driver)
		assert.Equal(t, 50, cfg.Store.ListLimit)
		assert.Equal(t, 500, cfg.Store.BatchSize)
		assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
		assert.Equal(t, "trades", cfg.Mongo.Database)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "json", cfg.Logger.Format)
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "http")
		t.Setenv("REMOTE_BASE_URL", "http://journal:8080")

		cfg, err := LoadConfig(t.TempDir())

		require.NoError(t, err)
		assert.Equal(t, "http", cfg.Store.Driver)
		assert.Equal(t, "http://journal:8080", cfg.Remote.BaseURL)
	})

	t.Run("Malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("store: [unclosed"), 0o644))

		_, err := LoadConfig(dir)

		assert.Error(t, err)
	})
}
