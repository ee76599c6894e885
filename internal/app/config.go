// Package app wires the audit pipeline together: configuration, the service
// that runs audits (synchronously or as background jobs) and its metrics.
package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/farolabs/faro/internal/urlutil"
	"github.com/farolabs/faro/internal/webclient"
)

// Config contains the runtime configuration for the service. Values come from
// the environment; every field has a usable default so `faro serve` works out
// of the box.
type Config struct {
	// ListenAddr is the HTTP listen address for serve mode.
	ListenAddr string `env:"FARO_LISTEN_ADDR" envDefault:":8080"`

	// DBPath is the SQLite database holding audit history.
	DBPath string `env:"FARO_DB_PATH" envDefault:"faro.db"`

	// Backend selects how pages are fetched: "nethttp" or "chromedp".
	Backend string `env:"FARO_BACKEND" envDefault:"nethttp"`

	// FetchTimeout bounds a single page fetch.
	FetchTimeout time.Duration `env:"FARO_FETCH_TIMEOUT" envDefault:"30s"`

	// UserAgent is sent on every outgoing request when non-empty.
	UserAgent string `env:"FARO_USER_AGENT" envDefault:"faro-audit/1.0"`

	// CacheSize is the number of reports memoized by snapshot hash.
	CacheSize int `env:"FARO_CACHE_SIZE" envDefault:"128"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"FARO_LOG_LEVEL" envDefault:"info"`

	// URLOpts controls how audit URLs are canonicalized before storage.
	URLOpts urlutil.Options `env:"-"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{URLOpts: urlutil.DefaultOptions()}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns a Config with the same defaults LoadConfig would
// apply, without consulting the environment. Intended for tests and the CLI
// one-shot path.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:   ":8080",
		DBPath:       "faro.db",
		Backend:      webclient.BackendNetHTTP,
		FetchTimeout: 30 * time.Second,
		UserAgent:    "faro-audit/1.0",
		CacheSize:    128,
		LogLevel:     "info",
		URLOpts:      urlutil.DefaultOptions(),
	}
}

// Validate checks the configuration for values that would fail later in a
// less obvious place.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	switch c.Backend {
	case webclient.BackendNetHTTP, webclient.BackendChromedp:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, webclient.BackendNetHTTP, webclient.BackendChromedp)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", c.CacheSize)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
