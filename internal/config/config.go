// Package config holds server and pipeline configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/FranksOps/grocer/internal/trolley"
)

// Config collects every tunable of the service. Core components receive
// these values through their constructors; nothing reads the environment
// past startup.
type Config struct {
	Host  string
	Port  int
	Debug bool

	BaseURL      string
	FetchTimeout time.Duration

	CacheTTL        time.Duration
	CacheMaxEntries int // 0 = unbounded

	DefaultMaxResults int
	MaxResultsCeiling int
	RetryBackoff      time.Duration

	MaxBatchQueries int
	BatchDelay      time.Duration

	// Rate limits per client.
	SinglePerMinute int
	SinglePerHour   int
	BatchPerMinute  int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:              "0.0.0.0",
		Port:              5000,
		Debug:             false,
		BaseURL:           trolley.BaseURL,
		FetchTimeout:      10 * time.Second,
		CacheTTL:          3600 * time.Second,
		CacheMaxEntries:   0,
		DefaultMaxResults: 5,
		MaxResultsCeiling: 20,
		RetryBackoff:      500 * time.Millisecond,
		MaxBatchQueries:   10,
		BatchDelay:        750 * time.Millisecond,
		SinglePerMinute:   20,
		SinglePerHour:     100,
		BatchPerMinute:    5,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("cache max entries cannot be negative")
	}
	if c.DefaultMaxResults <= 0 {
		return fmt.Errorf("default max results must be positive")
	}
	if c.MaxResultsCeiling < c.DefaultMaxResults {
		return fmt.Errorf("max results ceiling (%d) cannot be below the default (%d)",
			c.MaxResultsCeiling, c.DefaultMaxResults)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.MaxBatchQueries <= 0 {
		return fmt.Errorf("max batch queries must be positive")
	}
	if c.BatchDelay < 0 {
		return fmt.Errorf("batch delay cannot be negative")
	}
	if c.SinglePerMinute <= 0 || c.SinglePerHour <= 0 || c.BatchPerMinute <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

// EnvString reads a string environment variable.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	return value, ok
}

// EnvInt reads an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvBool reads a boolean environment variable.
func EnvBool(key string) (bool, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}
