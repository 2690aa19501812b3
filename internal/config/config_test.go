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
	t.Run("Reads values from yaml file", func(t *testing.T) {
		// Given: a config file overriding some keys
		path := filepath.Join(t.TempDir(), "config.yml")
		content := "log-level: debug\nhttp-port: \"8080\"\nsession:\n  ttl: 5m\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// When: loading it
		conf, err := Load(path)

		// Then: file values win and the rest falls back to defaults
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.Equal(t, 5*time.Minute, conf.Session.TTL)
		assert.Equal(t, time.Minute, conf.Session.SweepInterval)
	})

	t.Run("Falls back to env without a file", func(t *testing.T) {
		// Given: no config file and a port set in the environment
		t.Setenv("SOCKET_PORT", "7000")
		path := filepath.Join(t.TempDir(), "missing.yml")

		// When: loading
		conf, err := Load(path)

		// Then: env and defaults are used
		require.NoError(t, err)
		assert.Equal(t, "7000", conf.SocketPort)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "/metrics", conf.MetricsPath)
		assert.Equal(t, 30*time.Minute, conf.Session.TTL)
		assert.Equal(t, 5*time.Second, conf.Shutdown)
	})

	t.Run("Malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("session:\n  ttl: [oops\n"), 0o600))

		_, err := Load(path)

		require.Error(t, err)
	})
}

func TestMustLoad_Panics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("log-level: [\n"), 0o600))

	assert.Panics(t, func() {
		MustLoad(path)
	})
}
