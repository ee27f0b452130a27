package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomoguard/internal/platform/config"
)

func TestNewDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("POMOGUARD_STORE", "")
	t.Setenv("POMOGUARD_DB", "")

	cfg, err := config.New(home)
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.Store)
	assert.Equal(t, filepath.Join(home, "pomoguard.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(home, "daemon"), cfg.DaemonDir())
	assert.Equal(t, float64(20), cfg.RateLimit)
	assert.Empty(t, cfg.Warnings)
}

func TestNewRejectsEmptyHome(t *testing.T) {
	_, err := config.New("  ")
	require.Error(t, err)
}

func TestNewEnvOverridesAndWarnings(t *testing.T) {
	home := t.TempDir()
	t.Setenv("POMOGUARD_STORE", "Redis")
	t.Setenv("POMOGUARD_REDIS_DB", "not-a-number")
	t.Setenv("POMOGUARD_RATE_LIMIT", "5")
	t.Setenv("POMOGUARD_HTTP_ADDR", "")
	t.Setenv("POMOGUARD_NOTIFIER", "pigeon")

	cfg, err := config.New(home)
	require.NoError(t, err)
	assert.Equal(t, config.StoreRedis, cfg.Store)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, float64(5), cfg.RateLimit)
	assert.Equal(t, "", cfg.HTTPAddr)
	assert.Equal(t, config.NotifierDesktop, cfg.Notifier)
	assert.Len(t, cfg.Warnings, 2)
}

func TestNewRejectsUnknownStore(t *testing.T) {
	t.Setenv("POMOGUARD_STORE", "etcd")
	_, err := config.New(t.TempDir())
	require.Error(t, err)
}

func TestLoadReadsHomeEnvFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"), []byte("POMOGUARD_PROFILE=work\n"), 0o644))
	t.Setenv("POMOGUARD_PROFILE", "")
	require.NoError(t, os.Unsetenv("POMOGUARD_PROFILE"))

	cfg, err := config.Load(home)
	require.NoError(t, err)
	assert.Equal(t, "work", cfg.Profile)
	require.NoError(t, os.Unsetenv("POMOGUARD_PROFILE"))
}
