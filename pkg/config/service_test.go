package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService_DefaultPath(t *testing.T) {
	service := NewService("")
	assert.Equal(t, DefaultPath(), service.Path())

	service = NewService("/etc/muninn/config.yaml")
	assert.Equal(t, "/etc/muninn/config.yaml", service.Path())
}

func TestService_Load_CachesValue(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "muninn_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, SaveConfig(DefaultConfig(), configPath))

	service := NewService(configPath)

	first, err := service.Load()
	require.NoError(t, err)

	// Rewriting the file does not disturb the cache.
	changed := DefaultConfig()
	changed.Server.Listen = ":9999"
	require.NoError(t, SaveConfig(changed, configPath))

	second, err := service.Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, ":8489", second.Server.Listen)

	// Invalidate forces a re-read.
	service.Invalidate()
	third, err := service.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", third.Server.Listen)
}

func TestService_Load_MissingFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "muninn_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	service := NewService(filepath.Join(tmpDir, "absent.yaml"))

	_, err = service.Load()
	assert.Error(t, err)
}

func TestService_Save_RefreshesCache(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "muninn_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	service := NewService(configPath)

	config := DefaultConfig()
	config.Pool.MaxIdle = 42
	require.NoError(t, service.Save(config))

	loaded, err := service.Load()
	require.NoError(t, err)
	assert.Same(t, config, loaded)
	assert.True(t, ConfigExists(configPath))
}

func TestService_Bootstrap(t *testing.T) {
	t.Run("writes defaults when absent", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "muninn_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "config.yaml")
		service := NewService(configPath)

		config, err := service.Bootstrap()
		require.NoError(t, err)

		assert.True(t, ConfigExists(configPath))
		assert.Equal(t, 1000, config.Pool.MaxIdle)
		assert.Equal(t, ":8489", config.Server.Listen)
	})

	t.Run("keeps existing file", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "muninn_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "config.yaml")
		existing := DefaultConfig()
		existing.Logging.Level = "debug"
		require.NoError(t, SaveConfig(existing, configPath))

		service := NewService(configPath)
		config, err := service.Bootstrap()
		require.NoError(t, err)

		assert.Equal(t, "debug", config.Logging.Level)
	})
}
