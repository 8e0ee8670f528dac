package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fintech-news/internal/observability/logging"
	"fintech-news/internal/observability/slo"
	"fintech-news/internal/usecase/ingest"
)

// Job is one ingestion cycle.
type Job interface {
	Run(ctx context.Context) (*ingest.Stats, error)
}

// Runner executes the job on each cron tick. Ticks that arrive while a run
// is in progress are dropped and counted. Runs started outside the scheduler
// go through the same Runner so Shutdown sees them.
type Runner struct {
	job     Job
	timeout time.Duration
	metrics *WorkerMetrics
	health  *HealthServer
	logger  *slog.Logger

	mu       sync.Mutex
	stopping bool
	done     chan struct{} // non-nil while a run is in progress
}

// NewRunner creates a Runner. health may be nil.
func NewRunner(job Job, timeout time.Duration, metrics *WorkerMetrics, health *HealthServer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{job: job, timeout: timeout, metrics: metrics, health: health, logger: logger}
}

// Run implements cron.Job.
func (r *Runner) Run() {
	r.RunOnce(context.Background())
}

// RunOnce executes one run bounded by the configured timeout. It reports
// false when a run was already in progress or Shutdown has been called.
//
// The run context is detached from shutdown signals: Shutdown waits for the
// run to finish instead of cutting dispatch short.
func (r *Runner) RunOnce(ctx context.Context) bool {
	r.mu.Lock()
	if r.stopping {
		r.mu.Unlock()
		r.logger.Info("worker shutting down, ingestion run not started")
		return false
	}
	if r.done != nil {
		r.mu.Unlock()
		r.metrics.RecordSkipped()
		r.logger.Warn("previous ingestion run still in progress, skipping tick")
		return false
	}
	done := make(chan struct{})
	r.done = done
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.done = nil
		r.mu.Unlock()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	r.logger.Info("ingestion run started")

	stats, err := r.job.Run(ctx)
	r.metrics.RecordRun(stats, err)

	status := RunStatus{StartedAt: started, FinishedAt: time.Now(), Success: err == nil}
	if stats != nil {
		status.Stored = stats.Stored
		slo.UpdateIngestDuration(stats.Duration)
		slo.UpdateDeliverySuccess(stats.Dispatch.Sent, stats.Dispatch.Failed)
	}
	if err != nil {
		status.Error = logging.SanitizeError(err)
		r.logger.Error("ingestion run failed", slog.String("error", status.Error))
	} else {
		r.logger.Info("ingestion run finished",
			slog.Int("stored", status.Stored),
			slog.Duration("duration", status.FinishedAt.Sub(started)))
	}
	if r.health != nil {
		r.health.RecordRun(status)
	}
	return true
}

// Running reports whether a run is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done != nil
}

// Shutdown stops new runs from starting and waits for the one in progress,
// if any. It returns ctx.Err() if ctx ends first.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.stopping = true
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewScheduler builds a cron scheduler in loc that runs r on schedule and
// recovers from panics in the job.
func NewScheduler(schedule string, loc *time.Location, r *Runner, logger *slog.Logger) (*cron.Cron, error) {
	cl := CronLogger(logger)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
	if _, err := c.AddJob(schedule, r); err != nil {
		return nil, fmt.Errorf("add cron job: %w", err)
	}
	return c, nil
}

type cronLogger struct {
	logger *slog.Logger
}

// CronLogger adapts slog to cron.Logger. Cron's routine Info messages are
// logged at debug level.
func CronLogger(logger *slog.Logger) cron.Logger {
	return cronLogger{logger: logger}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]any{slog.Any("error", err)}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
