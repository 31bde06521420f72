package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8787", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Server.FreeQuota)
	assert.Equal(t, "rest", cfg.Oracle.Provider)
	assert.Equal(t, 0.7, cfg.Oracle.Temperature)
	assert.Equal(t, "qiankun.db", cfg.Store.Path)
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("QIANKUN_ADMIN_TOKEN", "")

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Oracle.Provider = "genai"
	cfg.Oracle.APIKey = "file-key"
	cfg.Oracle.Models = []string{"model-x"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "genai", loaded.Oracle.Provider)
	assert.Equal(t, "file-key", loaded.Oracle.APIKey)
	assert.Equal(t, []string{"model-x"}, loaded.Oracle.Models)
}

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("QIANKUN_ADMIN_TOKEN", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("QIANKUN_ADMIN_TOKEN", "env-token")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Oracle.APIKey)
	assert.Equal(t, "env-token", cfg.Server.AdminToken)
}

func TestConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a mapping"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestOracleConfig_TimeoutDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, OracleConfig{Timeout: "90s"}.TimeoutDuration())
	assert.Equal(t, 60*time.Second, OracleConfig{Timeout: "garbage"}.TimeoutDuration())
	assert.Equal(t, 60*time.Second, OracleConfig{}.TimeoutDuration())
}
