package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkadas/portfolio-api/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	conf, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", conf.Listen)
	assert.Equal(t, "./data", conf.DataDir)
	assert.Equal(t, "badger", conf.Storage.Backend)
	assert.Equal(t, 5*time.Minute, conf.Backups.CheckpointInterval.Std())
	assert.Equal(t, []string{"http://localhost:3000"}, conf.CORSOrigins)
	assert.Equal(t, 587, conf.SMTP.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
listen: ":9000"
dataDir: /var/lib/portfolio
storage:
  backend: sqlite
  minimumFreeGB: 2
backups:
  compress: true
  keep: 7
  checkpointInterval: 1m
admin:
  username: boss
  password: hunter2
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	conf, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", conf.Listen)
	assert.Equal(t, "/var/lib/portfolio", conf.DataDir)
	assert.Equal(t, "sqlite", conf.Storage.Backend)
	assert.Equal(t, uint(2), conf.Storage.MinimumFreeGB)
	assert.True(t, conf.Backups.Compress)
	assert.Equal(t, 7, conf.Backups.Keep)
	assert.Equal(t, time.Minute, conf.Backups.CheckpointInterval.Std())
	assert.Equal(t, "boss", conf.Admin.Username)
	assert.Equal(t, "hunter2", conf.Admin.Password)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: mongodb\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "envadmin")
	t.Setenv("ADMIN_PASSWORD", "envpass")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_PASSWORD", "abcd efgh ijkl")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	conf, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "envadmin", conf.Admin.Username)
	assert.Equal(t, "envpass", conf.Admin.Password)
	assert.Equal(t, "smtp.example.com", conf.SMTP.Host)
	assert.Equal(t, 2525, conf.SMTP.Port)
	assert.Equal(t, "abcdefghijkl", conf.SMTP.Password, "pasted app passwords lose their spaces")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, conf.CORSOrigins)
}
