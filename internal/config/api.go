package config

import (
	"fmt"
	"net/url"
	"time"

	envconfig "fintech-news/pkg/config"
)

// APIConfig holds settings for the subscription API server.
type APIConfig struct {
	// Addr is the listen address. Default: ":8080"
	Addr string
	// Version is reported by /health. Default: "dev"
	Version string
	// RegisterPerMinute and RegisterBurst rate limit POST /subscriptions per client IP.
	RegisterPerMinute int
	RegisterBurst     int
	// MaxBodyBytes caps request bodies. Default: 64KiB
	MaxBodyBytes int64
	// QuietHoursTimezone is the preview zone for subscribers without one. Default: UTC
	QuietHoursTimezone string
	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration
	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// Empty disables CORS headers.
	CORSAllowedOrigins []string
	// VAPIDPublicKey is handed to browsers for PushManager.subscribe.
	VAPIDPublicKey string
	// PushDryRun mirrors the worker's PUSH_DRY_RUN for /health.
	PushDryRun bool
}

// LoadAPIConfigFromEnv reads API settings from the environment.
//
// Environment variables:
//   - API_ADDR, VERSION
//   - REGISTER_RATE_LIMIT, REGISTER_RATE_BURST
//   - API_MAX_BODY_BYTES, QUIET_HOURS_TIMEZONE, API_SHUTDOWN_TIMEOUT
//   - CORS_ALLOWED_ORIGINS (comma-separated)
//   - VAPID_PUBLIC_KEY, PUSH_DRY_RUN
func LoadAPIConfigFromEnv() (*APIConfig, error) {
	cfg := &APIConfig{
		Addr:               envconfig.GetEnvString("API_ADDR", ":8080"),
		Version:            envconfig.GetEnvString("VERSION", "dev"),
		RegisterPerMinute:  envconfig.GetEnvInt("REGISTER_RATE_LIMIT", 10),
		RegisterBurst:      envconfig.GetEnvInt("REGISTER_RATE_BURST", 5),
		MaxBodyBytes:       int64(envconfig.GetEnvInt("API_MAX_BODY_BYTES", 64<<10)),
		QuietHoursTimezone: envconfig.GetEnvString("QUIET_HOURS_TIMEZONE", "UTC"),
		ShutdownTimeout:    envconfig.GetEnvDuration("API_SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSAllowedOrigins: envconfig.GetEnvStringList("CORS_ALLOWED_ORIGINS", nil),
		VAPIDPublicKey:     envconfig.GetEnvString("VAPID_PUBLIC_KEY", ""),
		PushDryRun:         envconfig.GetEnvBool("PUSH_DRY_RUN", false),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and the timezone.
func (c *APIConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: API_ADDR", envconfig.ErrMissingConfig)
	}
	if c.RegisterPerMinute < 1 {
		return fmt.Errorf("register rate limit must be positive, got %d", c.RegisterPerMinute)
	}
	if c.RegisterBurst < 1 {
		return fmt.Errorf("register rate burst must be positive, got %d", c.RegisterBurst)
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("max body bytes must be at least 1024, got %d", c.MaxBodyBytes)
	}
	if _, err := time.LoadLocation(c.QuietHoursTimezone); err != nil {
		return fmt.Errorf("invalid QUIET_HOURS_TIMEZONE %q: %w", c.QuietHoursTimezone, err)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", c.ShutdownTimeout)
	}
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Path != "" {
			return fmt.Errorf("invalid CORS origin %q: must be scheme://host[:port]", origin)
		}
	}
	return nil
}

// PushMode names the delivery mode reported by /health.
func (c *APIConfig) PushMode() string {
	if c.PushDryRun || c.VAPIDPublicKey == "" {
		return "dry_run"
	}
	return "webpush"
}

// Location returns the default quiet-hours zone. Validate has already
// rejected unknown zones.
func (c *APIConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.QuietHoursTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
