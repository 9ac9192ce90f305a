package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "./data/recession_prediction_data.json", cfg.PayloadPath)
	assert.Equal(t, "./data/views.db", cfg.DatabasePath)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DASHBOARD_PORT", "9191")
	t.Setenv("DASHBOARD_WATCH", "false")
	t.Setenv("DASHBOARD_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Port)
	assert.False(t, cfg.Watch)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DASHBOARD_STATIC_DIR=/srv/dashboard\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("DASHBOARD_STATIC_DIR") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/dashboard", cfg.StaticDir)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DASHBOARD_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{Port: 8080, PortAttempts: 1, PayloadPath: "p.json", RateLimit: 1, RateBurst: 1, LogFormat: "console"}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Port = 70000
	assert.Error(t, bad.Validate())

	bad = valid
	bad.LogFormat = "xml"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.RateBurst = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.PayloadPath = ""
	assert.Error(t, bad.Validate())
}
