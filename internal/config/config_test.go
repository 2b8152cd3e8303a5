package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, BackendFile, cfg.Storage.Backend)
	require.Equal(t, 900*time.Millisecond, cfg.Editor.AutosaveDelay)
	require.Equal(t, 100*time.Millisecond, cfg.Editor.InsertGuard)
	require.Equal(t, "cyber-purple", cfg.Editor.DefaultTheme)
	require.Equal(t, "retro-notes:", cfg.Redis.Prefix)
	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.Editor.FocusMode)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retronote.yaml")
	body := []byte(`
storage:
  backend: redis
redis:
  addr: cache:6379
  db: 3
editor:
  autosave_delay: 2s
  default_theme: amber-terminal
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	t.Setenv("RETRONOTE_EDITOR_FOCUS_MODE", "true")
	t.Setenv("RETRONOTE_REDIS_PREFIX", "test:")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendRedis, cfg.Storage.Backend)
	require.Equal(t, "cache:6379", cfg.Redis.Addr)
	require.Equal(t, 3, cfg.Redis.DB)
	require.Equal(t, "test:", cfg.Redis.Prefix)
	require.Equal(t, 2*time.Second, cfg.Editor.AutosaveDelay)
	require.Equal(t, "amber-terminal", cfg.Editor.DefaultTheme)
	require.True(t, cfg.Editor.FocusMode)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: floppy\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestEncryptionNeedsPassword(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Storage.Encryption = true
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	cfg.Storage.Password = "hunter2"
	require.NoError(t, cfg.Validate())
}
