package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "config.yaml"

// Config is the service configuration read from YAML.
type Config struct {
	Server struct {
		Host             string `yaml:"host"`
		Port             string `yaml:"port"`
		Prefork          bool   `yaml:"prefork"`
		ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
		WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Render RenderConfig `yaml:"render"`
}

// RenderConfig bounds the rendering backend.
type RenderConfig struct {
	// PoolSize is the number of renders allowed to run at once.
	PoolSize           int `yaml:"pool_size"`
	TimeoutSecs        int `yaml:"timeout_secs"`
	AcquireTimeoutSecs int `yaml:"acquire_timeout_secs"`
	JPEGQuality        int `yaml:"jpeg_quality"`

	// Surface size in inches when the request does not carry both img_size_x and img_size_y.
	DefaultWidthIn  float64 `yaml:"default_width_in"`
	DefaultHeightIn float64 `yaml:"default_height_in"`

	MaxLatexBytes int `yaml:"max_latex_bytes"`
	MaxPixels     int `yaml:"max_pixels"`
}

// Default returns a configuration usable without any file.
func Default() Config {
	var cfg Config
	cfg.Server.Host = ""
	cfg.Server.Port = ":8000"
	cfg.Server.ReadTimeoutSecs = 10
	cfg.Server.WriteTimeoutSecs = 30
	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 7
	cfg.Render = RenderConfig{
		PoolSize:           runtime.NumCPU(),
		TimeoutSecs:        10,
		AcquireTimeoutSecs: 5,
		JPEGQuality:        90,
		DefaultWidthIn:     6.4,
		DefaultHeightIn:    4.8,
		MaxLatexBytes:      4096,
		MaxPixels:          25_000_000,
	}
	return cfg
}

// Load reads the file named by CONFIG_PATH. Without CONFIG_PATH it falls back
// to DefaultPath, and to Default() if that file does not exist.
func Load() Config {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return LoadFrom(p)
	}
	if _, err := os.Stat(DefaultPath); errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		applyEnv(&cfg)
		return cfg
	}
	return LoadFrom(DefaultPath)
}

// LoadFrom reads and validates the config at path. It panics on any error:
// the service cannot start with a broken configuration.
func LoadFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("config: parse %s: %v", path, err))
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: %s: %v", path, err))
	}
	return cfg
}

// applyEnv lets common container env vars override file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = ":" + v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	r := c.Render
	switch {
	case c.Server.Port == "":
		return errors.New("server.port must be set")
	case r.PoolSize <= 0:
		return fmt.Errorf("render.pool_size must be positive, got %d", r.PoolSize)
	case r.TimeoutSecs <= 0:
		return fmt.Errorf("render.timeout_secs must be positive, got %d", r.TimeoutSecs)
	case r.AcquireTimeoutSecs <= 0:
		return fmt.Errorf("render.acquire_timeout_secs must be positive, got %d", r.AcquireTimeoutSecs)
	case r.JPEGQuality < 1 || r.JPEGQuality > 100:
		return fmt.Errorf("render.jpeg_quality must be within 1..100, got %d", r.JPEGQuality)
	case r.DefaultWidthIn <= 0 || r.DefaultHeightIn <= 0:
		return errors.New("render.default_width_in and render.default_height_in must be positive")
	case r.MaxLatexBytes <= 0:
		return fmt.Errorf("render.max_latex_bytes must be positive, got %d", r.MaxLatexBytes)
	case r.MaxPixels <= 0:
		return fmt.Errorf("render.max_pixels must be positive, got %d", r.MaxPixels)
	}
	return nil
}
