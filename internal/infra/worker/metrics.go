package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fintech-news/internal/pkg/config"
	"fintech-news/internal/usecase/ingest"
)

// WorkerMetrics are the cron job metrics plus the worker's config metrics.
type WorkerMetrics struct {
	Config *config.Metrics

	JobRunsTotal         *prometheus.CounterVec
	JobDurationSeconds   prometheus.Histogram
	ArticlesStoredTotal  prometheus.Counter
	SourceErrorsTotal    prometheus.Counter
	LastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics on reg.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		Config: config.NewMetrics(reg, "worker"),

		JobRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Ingestion job runs by status (success, failure, skipped)",
		}, []string{"status"}),

		JobDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of ingestion job runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 180, 300, 600},
		}),

		ArticlesStoredTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_articles_stored_total",
			Help: "Articles stored across all job runs",
		}),

		SourceErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_source_errors_total",
			Help: "Sources that failed to fetch across all job runs",
		}),

		LastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful job run",
		}),
	}
}

// RecordRun records one finished run. stats may be nil when the run never started.
func (m *WorkerMetrics) RecordRun(stats *ingest.Stats, err error) {
	if stats != nil {
		m.JobDurationSeconds.Observe(stats.Duration.Seconds())
		m.ArticlesStoredTotal.Add(float64(stats.Stored))
		m.SourceErrorsTotal.Add(float64(stats.SourceErrors))
	}
	if err != nil {
		m.JobRunsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.JobRunsTotal.WithLabelValues("success").Inc()
	m.LastSuccessTimestamp.SetToCurrentTime()
}

// RecordSkipped counts a tick dropped because the previous run was still going.
func (m *WorkerMetrics) RecordSkipped() {
	m.JobRunsTotal.WithLabelValues("skipped").Inc()
}
