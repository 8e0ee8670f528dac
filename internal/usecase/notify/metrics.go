package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for dispatch monitoring
var (
	// notificationDecisionsTotal counts eligibility outcomes
	notificationDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_decisions_total",
			Help: "Total number of eligibility decisions",
		},
		[]string{"decision"},
	)

	// notificationDeliveriesTotal counts push attempts by outcome
	notificationDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Total number of push deliveries",
		},
		[]string{"outcome"}, // delivered|transient_failure|permanent_failure
	)

	// notificationDeliveryDuration tracks push latency
	notificationDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_delivery_duration_seconds",
			Help:    "Push delivery duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	// subscriberDeactivationsTotal counts endpoints flipped to inactive
	subscriberDeactivationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_subscriber_deactivations_total",
			Help: "Total number of subscribers deactivated after permanent delivery failure",
		},
	)

	// writebackFailuresTotal counts failed last-notified stamps and deactivations
	writebackFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_writeback_failures_total",
			Help: "Total number of failed subscriber write-backs",
		},
		[]string{"op"}, // touch_last_notified|deactivate
	)

	// dispatchPassResults counts per-pass tallies
	dispatchPassResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_results_total",
			Help: "Subscribers processed by dispatch result",
		},
		[]string{"mode", "result"}, // result: sent|failed|skipped
	)

	// dispatchPassDuration tracks a full pass over all subscribers
	dispatchPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_dispatch_pass_duration_seconds",
			Help:    "Dispatch pass duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"mode"},
	)

	// activeDispatchWorkers tracks subscribers currently being processed
	activeDispatchWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_active_workers",
			Help: "Number of subscribers currently being processed",
		},
	)
)

// RecordDecision records one eligibility decision.
func RecordDecision(d Decision) {
	notificationDecisionsTotal.WithLabelValues(d.String()).Inc()
}

// RecordDelivery records one push attempt and its latency.
func RecordDelivery(outcome DeliveryOutcome, duration time.Duration) {
	notificationDeliveriesTotal.WithLabelValues(outcome.String()).Inc()
	notificationDeliveryDuration.WithLabelValues(outcome.String()).Observe(duration.Seconds())
}

// RecordDeactivation records a subscriber flipped to inactive.
func RecordDeactivation() {
	subscriberDeactivationsTotal.Inc()
}

// RecordWritebackFailure records a failed repository write-back.
func RecordWritebackFailure(op string) {
	writebackFailuresTotal.WithLabelValues(op).Inc()
}

// RecordPass records the tallies and duration of one dispatch pass.
func RecordPass(mode string, r Result, duration time.Duration) {
	dispatchPassResults.WithLabelValues(mode, "sent").Add(float64(r.Sent))
	dispatchPassResults.WithLabelValues(mode, "failed").Add(float64(r.Failed))
	dispatchPassResults.WithLabelValues(mode, "skipped").Add(float64(r.Skipped))
	dispatchPassDuration.WithLabelValues(mode).Observe(duration.Seconds())
}
