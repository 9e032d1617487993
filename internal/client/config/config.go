package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	ErrNonPositiveInterval = errors.New("expiry check interval must be positive")
	ErrNegativeTimeout     = errors.New("request timeout must not be negative")
)

// Config holds runtime settings for the folio client.
//
// Units: all intervals are time.Duration values.
type Config struct {
	// APIBaseURL is the backend REST root, e.g. "http://127.0.0.1:8080".
	APIBaseURL string `env:"FOLIO_API_URL"`

	// RequestTimeout bounds a single HTTP request. The session layer itself
	// imposes no timeout.
	RequestTimeout time.Duration `env:"FOLIO_REQUEST_TIMEOUT"`

	// RequestsPerSecond limits outbound request rate; 0 disables the limiter.
	RequestsPerSecond float64 `env:"FOLIO_REQUESTS_PER_SECOND"`

	// StorePath is the sqlite file holding the bearer token.
	StorePath string `env:"FOLIO_STORE_PATH"`

	// StoreSecret, when set, seals the stored token at rest.
	StoreSecret string `env:"FOLIO_STORE_SECRET"`

	// ExpiryCheckInterval is how often the local token expiry is re-checked.
	ExpiryCheckInterval time.Duration `env:"FOLIO_EXPIRY_CHECK_INTERVAL"`

	// DebugAddr is the listen address of the debug HTTP server; empty disables it.
	DebugAddr string `env:"FOLIO_DEBUG_ADDR"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"FOLIO_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.RequestsPerSecond = 10
	c.StorePath = "folio.db"
	c.StoreSecret = ""
	c.ExpiryCheckInterval = 30 * time.Second
	c.DebugAddr = ""
	c.LogLevel = "info"
}

// Load constructs a Config from args (without the program name): defaults
// first, then the optional JSON file, then FOLIO_* environment variables,
// then command-line flags. Later sources take precedence.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with. A zero request
// timeout means no timeout.
func (c *Config) Validate() error {
	if c.ExpiryCheckInterval <= 0 {
		return fmt.Errorf("%w: %s", ErrNonPositiveInterval, c.ExpiryCheckInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeTimeout, c.RequestTimeout)
	}
	return nil
}

// MustLoad is Load over os.Args that panics on error; it is meant for main.
func MustLoad() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
