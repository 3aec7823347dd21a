package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults when nothing is set", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, ":3001", cfg.Server.Addr)
		assert.Equal(t, DriverMemory, cfg.Storage.Driver)
		assert.Equal(t, 10*time.Second, cfg.Collaborators.AgeTimeout)
		assert.Equal(t, 15*time.Second, cfg.Collaborators.LivenessTimeout)
		assert.Equal(t, 2*time.Second, cfg.Collaborators.HealthTimeout)
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "verity.yaml")
		content := []byte("server:\n  addr: \":9000\"\ncollaborators:\n  age_url: http://age:5000\n  age_timeout: 3s\n")
		require.NoError(t, os.WriteFile(path, content, 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Server.Addr)
		assert.Equal(t, "http://age:5000", cfg.Collaborators.AgeURL)
		assert.Equal(t, 3*time.Second, cfg.Collaborators.AgeTimeout)
		assert.Equal(t, 15*time.Second, cfg.Collaborators.DocumentTimeout, "unset keys keep defaults")
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "verity.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o600))
		t.Setenv("VERITY_SERVER__ADDR", ":7000")
		t.Setenv("VERITY_LOG__LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Server.Addr)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("invalid storage driver", func(t *testing.T) {
		t.Setenv("VERITY_STORAGE__DRIVER", "cassandra")
		_, err := Load("")
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Storage.Driver = DriverPostgres
	require.Error(t, cfg.Validate())
	cfg.Postgres.DSN = "postgres://localhost/verity"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Driver = DriverRedis
	require.Error(t, cfg.Validate())
	cfg.Redis.URL = "redis://localhost:6379/0"
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.Window = 0
	require.Error(t, cfg.Validate())
	cfg.RateLimit.Enabled = false
	require.NoError(t, cfg.Validate())
}
