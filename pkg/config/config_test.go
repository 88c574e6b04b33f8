package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"SERVER_PORT", "SERVER_ALLOWED_ORIGINS", "ARTIFACTS_DIR", "SHARE_SECRET", "LOG_LEVEL",
	} {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(Default(), cfg))
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "qtool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
  allowed_origins: ["https://app.example.ch"]
database:
  health_interval: 10s
editor:
  canvas_width: 1200
  export_format: png
  join_by_id: true
artifacts:
  share_secret: "0123456789abcdef"
  share_ttl: 48h
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.ch"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.Database.HealthInterval)
	assert.Equal(t, 1200, cfg.Editor.CanvasWidth)
	assert.Equal(t, 400, cfg.Editor.CanvasHeight, "unset keys keep their defaults")
	assert.Equal(t, "png", cfg.Editor.ExportFormat)
	assert.True(t, cfg.Editor.JoinByID)
	assert.Equal(t, 48*time.Hour, cfg.Artifacts.ShareTTL)
	assert.True(t, cfg.Artifacts.SharingEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qtool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://a.ch, https://b.ch,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, []string{"https://a.ch", "https://b.ch"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal ")
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero canvas", func(c *Config) { c.Editor.CanvasWidth = 0 }, "canvas size must be positive"},
		{"unknown format", func(c *Config) { c.Editor.ExportFormat = "gif" }, "editor.export_format"},
		{"short secret", func(c *Config) { c.Artifacts.ShareSecret = "short" }, "share_secret"},
		{"render scale", func(c *Config) { c.Editor.RenderScale = 0 }, "render_scale"},
		{"port", func(c *Config) { c.Server.Port = "http" }, "server.port"},
		{"idle timeout", func(c *Config) { c.Editor.IdleTimeout = -time.Minute }, "idle_timeout"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "qtool.yaml")

	cfg := Default()
	cfg.Editor.GridSize = 20
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, loaded.Editor.GridSize)
}
