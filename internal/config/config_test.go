package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with HOME pointed at it so
// no real config.yaml or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".greenpath", "greenpath.db"), cfg.DBPath)
	assert.Equal(t, "", cfg.LiveData.Endpoint)
	assert.Equal(t, 8*time.Second, cfg.LiveData.Timeout)
	assert.Equal(t, 2, cfg.LiveData.MaxRetries)
	assert.Equal(t, 6*time.Hour, cfg.LiveData.CacheTTL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.Equal(t, 12, cfg.Velocity.Window)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GREENPATH_DB_PATH", "/tmp/gp.db")
	t.Setenv("GREENPATH_LIVE_DATA_ENDPOINT", "https://data.example.test/snapshot")
	t.Setenv("GREENPATH_LIVE_DATA_TIMEOUT", "3s")
	t.Setenv("GREENPATH_REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("GREENPATH_VELOCITY_WINDOW", "8")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/gp.db", cfg.DBPath)
	assert.Equal(t, "https://data.example.test/snapshot", cfg.LiveData.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.LiveData.Timeout)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Redis.URL)
	assert.Equal(t, 8, cfg.Velocity.Window)
}

func TestLoad_ConfigFileAndDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"log:\n  level: debug\n  format: json\nhttp:\n  addr: \":9090\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"GREENPATH_CASE_STATUS_TIMEOUT=4s\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("GREENPATH_CASE_STATUS_TIMEOUT") })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 4*time.Second, cfg.CaseStatus.Timeout)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("GREENPATH_VELOCITY_WINDOW", "1")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "velocity.window")
}
