package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "dev-token", cfg.Server.APIToken)
	assert.Equal(t, 12, cfg.Engine.WindowMonths)
	assert.Equal(t, 6, cfg.Engine.FutureHorizonMonths)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("server:\n  http_addr: \":9999\"\nengine:\n  window_months: 24\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path, false)

	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.HTTPAddr)
	assert.Equal(t, 24, cfg.Engine.WindowMonths)
	// Untouched keys keep their defaults
	assert.Equal(t, "dev-token", cfg.Server.APIToken)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [::broken"), 0o600))

	_, err := Load(path, false)

	assert.Error(t, err)
}

func TestLoad_EnvOnlySkipsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_addr: \":9999\"\n"), 0o600))

	cfg, err := Load(path, true)

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
}
