package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "_headers", cfg.HeadersFile)
	assert.Equal(t, "_redirects", cfg.RedirectsFile)
	assert.Equal(t, 302, cfg.Redirects.DefaultStatus)
	require.NoError(t, cfg.Validate())
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "statikd.yaml", `
addr: ":9000"
root: /srv/site
watch: true
redirects:
  default_status: 307
hidden:
  - /admin/{*rest}
log:
  level: debug
  format: json
metrics:
  enabled: true
  path: /metrics
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/srv/site", cfg.Root)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 307, cfg.Redirects.DefaultStatus)
	assert.Equal(t, []string{"/admin/{*rest}"}, cfg.Hidden)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)

	// Unset fields keep their defaults.
	assert.Equal(t, "_headers", cfg.HeadersFile)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoadMissingDefaultFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Addr, cfg.Addr)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "addr: [unclosed\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfg.yaml", "addr: \":9000\"\nroot: /from/file\n")

	t.Setenv(EnvAddr, ":7777")
	t.Setenv(EnvRoot, "/from/env")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Addr)
	assert.Equal(t, "/from/env", cfg.Root)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"empty root", func(c *Config) { c.Root = "" }},
		{"bad default status", func(c *Config) { c.Redirects.DefaultStatus = 0 }},
		{"metrics without path", func(c *Config) { c.Metrics = MetricsConfig{Enabled: true} }},
		{"bad hidden pattern", func(c *Config) { c.Hidden = []string{"/{*a}/b"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
