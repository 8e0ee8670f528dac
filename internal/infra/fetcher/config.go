package fetcher

import (
	"fmt"
	"time"

	"fintech-news/pkg/config"
)

// Config controls outbound page fetching for article enhancement and
// HTML listing sources.
type Config struct {
	// Enabled turns full-text enhancement on. Disabled, feed content is used as-is.
	Enabled bool

	// Threshold is the feed content length below which the full page is fetched.
	Threshold int

	// Timeout bounds one HTTP request.
	Timeout time.Duration

	// Parallelism bounds concurrent article processing during ingestion.
	Parallelism int

	// MaxBodySize is enforced while reading, regardless of Content-Length.
	MaxBodySize int64

	MaxRedirects int

	// DenyPrivateIPs routes requests through an SSRF-safe dialer.
	// Only tests against local servers turn it off.
	DenyPrivateIPs bool
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Threshold:      1500,
		Timeout:        10 * time.Second,
		Parallelism:    10,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate rejects settings that would disable the safety limits.
func (c Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Parallelism < 1 || c.Parallelism > 50 {
		return fmt.Errorf("parallelism must be between 1 and 50, got %d", c.Parallelism)
	}
	const minBody, maxBody = int64(1024), int64(100 * 1024 * 1024)
	if c.MaxBodySize < minBody || c.MaxBodySize > maxBody {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBody, maxBody, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfigFromEnv reads CONTENT_FETCH_* variables over the defaults.
// Unparseable values fall back to the default; the result is validated.
func LoadConfigFromEnv() (Config, error) {
	def := DefaultConfig()
	cfg := Config{
		Enabled:        config.GetEnvBool("CONTENT_FETCH_ENABLED", def.Enabled),
		Threshold:      config.GetEnvInt("CONTENT_FETCH_THRESHOLD", def.Threshold),
		Timeout:        config.GetEnvDuration("CONTENT_FETCH_TIMEOUT", def.Timeout),
		Parallelism:    config.GetEnvInt("CONTENT_FETCH_PARALLELISM", def.Parallelism),
		MaxBodySize:    int64(config.GetEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(def.MaxBodySize))),
		MaxRedirects:   config.GetEnvInt("CONTENT_FETCH_MAX_REDIRECTS", def.MaxRedirects),
		DenyPrivateIPs: config.GetEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", def.DenyPrivateIPs),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("content fetch config: %w", err)
	}
	return cfg, nil
}
