// Package worker holds the scheduled ingestion job's configuration,
// metrics, health server and run loop.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintech-news/internal/pkg/config"
	"fintech-news/internal/usecase/ingest"
)

// WorkerConfig controls scheduling and dispatch for the worker.
type WorkerConfig struct {
	// CronSchedule is a five-field expression or descriptor. Default: "*/15 * * * *"
	CronSchedule string

	// Timezone is the IANA zone the schedule runs in. Default: "UTC"
	Timezone string

	// DispatchConcurrency bounds subscribers processed at once. Range 1-50, default 10.
	DispatchConcurrency int

	// IngestTimeout bounds one ingestion run including dispatch. Default: 10m
	IngestTimeout time.Duration

	// HealthPort serves /health, /health/ready and /metrics. Default: 9091
	HealthPort int

	// DispatchMode is "per_article" or "digest". Default: "per_article"
	DispatchMode string

	// RunOnStart triggers one run right after startup. Default: false
	RunOnStart bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:        "*/15 * * * *",
		Timezone:            "UTC",
		DispatchConcurrency: 10,
		IngestTimeout:       10 * time.Minute,
		HealthPort:          9091,
		DispatchMode:        string(ingest.ModePerArticle),
	}
}

func validateConcurrency(v int) error { return config.ValidateIntRange(v, 1, 50) }

func validateIngestTimeout(d time.Duration) error {
	return config.ValidateDuration(d, time.Minute, 2*time.Hour)
}

func validateHealthPort(v int) error { return config.ValidateIntRange(v, 1024, 65535) }

var validateDispatchMode = config.OneOf(string(ingest.ModePerArticle), string(ingest.ModeDigest))

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validateConcurrency(c.DispatchConcurrency); err != nil {
		errs = append(errs, fmt.Errorf("dispatch concurrency: %w", err))
	}
	if err := validateIngestTimeout(c.IngestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("ingest timeout: %w", err))
	}
	if err := validateHealthPort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := validateDispatchMode(c.DispatchMode); err != nil {
		errs = append(errs, fmt.Errorf("dispatch mode: %w", err))
	}
	return errors.Join(errs...)
}

// Location returns the schedule's zone. Invalid names were already
// replaced by the default during loading.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Mode returns the parsed dispatch mode.
func (c *WorkerConfig) Mode() ingest.DispatchMode {
	mode, err := ingest.ParseDispatchMode(c.DispatchMode)
	if err != nil {
		return ingest.ModePerArticle
	}
	return mode
}

// LoadConfigFromEnv reads the worker settings. It never fails: each
// invalid value falls back to its default with a warning and a metric.
//
// Environment variables:
//   - CRON_SCHEDULE, WORKER_TIMEZONE
//   - DISPATCH_CONCURRENCY, DISPATCH_MODE
//   - INGEST_TIMEOUT, WORKER_HEALTH_PORT, WORKER_RUN_ON_START
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	anyFallback := false

	track := func(field string, applied bool, warning string) {
		if !applied {
			return
		}
		anyFallback = true
		metrics.Config.RecordFallback(field)
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}

	schedule := config.LoadString("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = schedule.Value
	track("cron_schedule", schedule.FallbackApplied, schedule.Warning)

	tz := config.LoadString("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = tz.Value
	track("timezone", tz.FallbackApplied, tz.Warning)

	concurrency := config.LoadInt("DISPATCH_CONCURRENCY", cfg.DispatchConcurrency, validateConcurrency)
	cfg.DispatchConcurrency = concurrency.Value
	track("dispatch_concurrency", concurrency.FallbackApplied, concurrency.Warning)

	timeout := config.LoadDuration("INGEST_TIMEOUT", cfg.IngestTimeout, validateIngestTimeout)
	cfg.IngestTimeout = timeout.Value
	track("ingest_timeout", timeout.FallbackApplied, timeout.Warning)

	port := config.LoadInt("WORKER_HEALTH_PORT", cfg.HealthPort, validateHealthPort)
	cfg.HealthPort = port.Value
	track("health_port", port.FallbackApplied, port.Warning)

	mode := config.LoadString("DISPATCH_MODE", cfg.DispatchMode, validateDispatchMode)
	cfg.DispatchMode = mode.Value
	track("dispatch_mode", mode.FallbackApplied, mode.Warning)

	runOnStart := config.LoadBool("WORKER_RUN_ON_START", cfg.RunOnStart)
	cfg.RunOnStart = runOnStart.Value
	track("run_on_start", runOnStart.FallbackApplied, runOnStart.Warning)

	metrics.Config.Loaded(anyFallback)
	return &cfg
}
