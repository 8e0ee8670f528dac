package config

import (
	"fmt"
	"time"

	envconfig "fintech-news/pkg/config"
)

// PushConfig holds web-push delivery and dispatch settings.
type PushConfig struct {
	// VAPIDPublicKey and VAPIDPrivateKey are the application server key
	// pair, base64url encoded. Required unless DryRun is set.
	VAPIDPublicKey  string
	VAPIDPrivateKey string

	// DryRun logs notifications instead of sending them. Default: false
	DryRun bool

	// Subject is the VAPID contact. Default: "mailto:admin@example.com"
	Subject string

	// TTL is how long push services keep undelivered messages. Default: 24h
	TTL time.Duration

	// RequestTimeout bounds one push service request. Default: 10s
	RequestTimeout time.Duration

	// DeliveryTimeout bounds one subscriber's delivery inside a pass. Default: 30s
	DeliveryTimeout time.Duration

	// RequestsPerSecond and Burst pace requests to push services.
	RequestsPerSecond float64
	Burst             int

	// QuietHoursTimezone is the zone for subscribers without one. Default: UTC
	QuietHoursTimezone string
}

// LoadPushConfigFromEnv reads push settings from the environment.
//
// Environment variables:
//   - VAPID_PUBLIC_KEY, VAPID_PRIVATE_KEY, VAPID_SUBJECT, PUSH_DRY_RUN
//   - PUSH_TTL, PUSH_REQUEST_TIMEOUT, PUSH_DELIVERY_TIMEOUT
//   - PUSH_RATE_LIMIT, PUSH_RATE_BURST
//   - QUIET_HOURS_TIMEZONE
func LoadPushConfigFromEnv() (*PushConfig, error) {
	cfg := &PushConfig{
		VAPIDPublicKey:     envconfig.GetEnvString("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:    envconfig.GetEnvString("VAPID_PRIVATE_KEY", ""),
		DryRun:             envconfig.GetEnvBool("PUSH_DRY_RUN", false),
		Subject:            envconfig.GetEnvString("VAPID_SUBJECT", "mailto:admin@example.com"),
		TTL:                envconfig.GetEnvDuration("PUSH_TTL", 24*time.Hour),
		RequestTimeout:     envconfig.GetEnvDuration("PUSH_REQUEST_TIMEOUT", 10*time.Second),
		DeliveryTimeout:    envconfig.GetEnvDuration("PUSH_DELIVERY_TIMEOUT", 30*time.Second),
		RequestsPerSecond:  float64(envconfig.GetEnvInt("PUSH_RATE_LIMIT", 50)),
		Burst:              envconfig.GetEnvInt("PUSH_RATE_BURST", 20),
		QuietHoursTimezone: envconfig.GetEnvString("QUIET_HOURS_TIMEZONE", "UTC"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("push configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and, outside dry-run mode, that both keys are set.
func (c *PushConfig) Validate() error {
	if !c.DryRun {
		if c.VAPIDPublicKey == "" {
			return fmt.Errorf("%w: VAPID_PUBLIC_KEY", envconfig.ErrMissingConfig)
		}
		if c.VAPIDPrivateKey == "" {
			return fmt.Errorf("%w: VAPID_PRIVATE_KEY", envconfig.ErrMissingConfig)
		}
	}
	if c.TTL <= 0 {
		return fmt.Errorf("PUSH_TTL must be positive")
	}
	if c.TTL > 28*24*time.Hour {
		return fmt.Errorf("PUSH_TTL must not exceed 28 days")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("PUSH_REQUEST_TIMEOUT must be positive")
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("PUSH_DELIVERY_TIMEOUT must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("PUSH_RATE_LIMIT must not be negative")
	}
	if c.Burst < 1 {
		return fmt.Errorf("PUSH_RATE_BURST must be at least 1")
	}
	if _, err := time.LoadLocation(c.QuietHoursTimezone); err != nil {
		return fmt.Errorf("QUIET_HOURS_TIMEZONE: %w", err)
	}
	return nil
}

// SendsPush reports whether notifications go to real push services.
func (c *PushConfig) SendsPush() bool {
	return !c.DryRun && c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Location returns the default quiet-hours zone. Validate has already
// checked the name.
func (c *PushConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.QuietHoursTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
