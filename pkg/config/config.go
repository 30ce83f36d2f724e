// Package config loads and validates the statikd.yaml server configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/getstatikd/statikd/pkg/rules"
)

// Configuration errors.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
)

// Environment variable overrides. Environment beats file, flags beat both.
const (
	EnvAddr      = "STATIKD_ADDR"
	EnvRoot      = "STATIKD_ROOT"
	EnvLogLevel  = "STATIKD_LOG_LEVEL"
	EnvLogFormat = "STATIKD_LOG_FORMAT"
)

// DefaultFileName is looked up in the working directory when no --config flag
// is given.
const DefaultFileName = "statikd.yaml"

// Config is the full server configuration.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr"`

	// Root is the site directory to serve.
	Root string `yaml:"root"`

	// NotFoundPage is a site-relative file served with status 404 when no
	// file matches. Empty means a bare 404.
	NotFoundPage string `yaml:"not_found_page"`

	// HeadersFile and RedirectsFile are the rule file names, resolved
	// relative to Root.
	HeadersFile   string `yaml:"headers_file"`
	RedirectsFile string `yaml:"redirects_file"`

	// Redirects tunes redirect rule parsing.
	Redirects RedirectsConfig `yaml:"redirects"`

	// Hidden lists extra path patterns that are never served, in the same
	// {name}/{*name} grammar as the rule files. The rule files themselves
	// are always hidden.
	Hidden []string `yaml:"hidden"`

	// Watch enables rule file watching and live reload.
	Watch bool `yaml:"watch"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RedirectsConfig tunes redirect parsing.
type RedirectsConfig struct {
	// DefaultStatus is used for redirect lines without a status field.
	DefaultStatus int `yaml:"default_status"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:          ":8080",
		Root:          ".",
		NotFoundPage:  "404.html",
		HeadersFile:   "_headers",
		RedirectsFile: "_redirects",
		Redirects:     RedirectsConfig{DefaultStatus: rules.DefaultRedirectStatus},
		Watch:         false,
		Log:           LogConfig{Level: "info", Format: "text"},
		Metrics:       MetricsConfig{Enabled: false, Path: "/metrics"},
	}
}

// Load reads configuration from path, falling back to defaults. An empty path
// means "use DefaultFileName if present": its absence is not an error, while
// an explicitly named file must exist. Environment overrides are applied
// last.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
		}
	case os.IsNotExist(err):
		if explicit {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// applyEnv overlays environment variables onto the loaded values.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvRoot); v != "" {
		c.Root = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.Root == "" {
		return errors.New("root must not be empty")
	}
	if c.Redirects.DefaultStatus <= 0 {
		return fmt.Errorf("redirects.default_status must be positive, got %d", c.Redirects.DefaultStatus)
	}
	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return errors.New("metrics.path must not be empty when metrics are enabled")
	}
	for _, h := range c.Hidden {
		if _, err := rules.ParsePattern(h); err != nil {
			return fmt.Errorf("hidden pattern: %w", err)
		}
	}
	return nil
}
