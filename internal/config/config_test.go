package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadFrom_Valid(t *testing.T) {
	p := writeConfig(t, `server:
  host: "127.0.0.1"
  port: ":9000"
render:
  pool_size: 2
  timeout_secs: 3
  jpeg_quality: 75
`)
	cfg := LoadFrom(p)
	assert.Equal(t, ":9000", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Render.PoolSize)
	assert.Equal(t, 3, cfg.Render.TimeoutSecs)
	assert.Equal(t, 75, cfg.Render.JPEGQuality)
	// omitted keys keep their defaults
	assert.Equal(t, 6.4, cfg.Render.DefaultWidthIn)
	assert.Equal(t, 4.8, cfg.Render.DefaultHeightIn)
	assert.Equal(t, 5, cfg.Render.AcquireTimeoutSecs)
}

func TestLoadFrom_PanicsOnInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{name: "zero pool", yml: "render:\n  pool_size: 0\n"},
		{name: "negative timeout", yml: "render:\n  timeout_secs: -1\n"},
		{name: "jpeg quality above range", yml: "render:\n  jpeg_quality: 101\n"},
		{name: "zero default width", yml: "render:\n  default_width_in: 0\n"},
		{name: "empty port", yml: "server:\n  port: \"\"\n"},
		{name: "broken yaml", yml: "render: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := writeConfig(t, tc.yml)
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			_ = LoadFrom(p)
		})
	}
}

func TestLoadFrom_PanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() { LoadFrom(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestLoad_UsesConfigPathEnv(t *testing.T) {
	p := writeConfig(t, `render:
  max_latex_bytes: 128
`)
	t.Setenv("CONFIG_PATH", p)
	cfg := Load()
	if cfg.Render.MaxLatexBytes != 128 {
		t.Fatalf("expected CONFIG_PATH to be used, got %d", cfg.Render.MaxLatexBytes)
	}
}

func TestLoad_PortEnvOverride(t *testing.T) {
	p := writeConfig(t, "server:\n  port: \":9000\"\n")
	t.Setenv("CONFIG_PATH", p)
	t.Setenv("PORT", "7777")
	assert.Equal(t, ":7777", Load().Server.Port)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "")
	t.Chdir(t.TempDir())
	cfg := Load()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":8000", cfg.Server.Port)
}
