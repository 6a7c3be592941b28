// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// Default tuning constants. Debounce and search timeout are product-observed
// values, not hard requirements; both are overridable via file or env.
const (
	defaultDebounce        = 300 * time.Millisecond
	defaultSearchTimeout   = 5 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultRecencyCapacity = 10
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// APIBaseURL is the base URL of the remote search/profile API,
	// e.g. "https://api.statiq.app/api/v1".
	APIBaseURL string `koanf:"api_base_url"`

	// DataDir is the directory for the on-device store. Empty selects the
	// in-memory store (state lost on exit).
	DataDir string `koanf:"data_dir"`

	// DebounceMS is the quiet window before a keystroke becomes a query.
	DebounceMS int `koanf:"debounce_ms"`

	// SearchTimeoutMS is the deadline raced against each remote query.
	SearchTimeoutMS int `koanf:"search_timeout_ms"`

	// RequestTimeoutMS bounds individual HTTP requests issued by the API client.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// RecencyCapacity bounds the recently-viewed list.
	RecencyCapacity int `koanf:"recency_capacity"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		APIBaseURL:       "http://localhost:8000/api/v1",
		DataDir:          "",
		DebounceMS:       int(defaultDebounce / time.Millisecond),
		SearchTimeoutMS:  int(defaultSearchTimeout / time.Millisecond),
		RequestTimeoutMS: int(defaultRequestTimeout / time.Millisecond),
		RecencyCapacity:  defaultRecencyCapacity,
	}
}

// Debounce returns the debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// SearchTimeout returns the query race deadline as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

// RequestTimeout returns the HTTP client timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
