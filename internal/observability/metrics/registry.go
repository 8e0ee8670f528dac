// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Ingestion metrics track the news fetch job
var (
	// ArticlesFetchedTotal counts raw articles returned by each source
	ArticlesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_articles_fetched_total",
			Help: "Total number of raw articles returned by news sources",
		},
		[]string{"source"},
	)

	// ArticlesProcessedTotal counts fetched articles by what happened to them
	ArticlesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_articles_processed_total",
			Help: "Total number of fetched articles by result",
		},
		[]string{"result"}, // stored, duplicate, invalid, failed
	)

	// ArticlesClassifiedTotal counts stored articles per assigned category
	ArticlesClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_articles_classified_total",
			Help: "Total number of stored articles by category",
		},
		[]string{"category"},
	)

	// SourceFetchDuration measures time to fetch one source
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_source_fetch_duration_seconds",
			Help:    "Time taken to fetch a news source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	// SourceFetchErrors counts failed source fetches
	SourceFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_source_errors_total",
			Help: "Total number of failed news source fetches",
		},
		[]string{"source"},
	)

	// IngestRunDuration measures a complete ingestion run including dispatch
	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Time taken by one ingestion run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// ContentFetchAttemptsTotal counts full-text fetch attempts by result
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of content fetch attempts",
		},
		[]string{"result"}, // success, failure, skipped
	)

	// ContentFetchDuration measures time to fetch article content
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)
)

// Subscription metrics track the public subscription API
var (
	// SubscriptionOperationsTotal counts subscription API operations by result
	SubscriptionOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_operations_total",
			Help: "Total number of subscription operations",
		},
		[]string{"operation", "result"},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
