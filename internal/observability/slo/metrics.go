// Package slo exposes the worker's service level objectives as gauges so
// alerts can compare the latest run against its target.
package slo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets.
const (
	// DeliverySuccessSLO is the minimum share of attempted pushes that must
	// be accepted by push services (99%).
	DeliverySuccessSLO = 0.99

	// IngestDurationSLO is the longest acceptable ingestion run, dispatch included.
	IngestDurationSLO = 5 * time.Minute
)

var (
	// SLODeliverySuccess is sent / (sent + failed) for the latest run that
	// attempted at least one delivery.
	SLODeliverySuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_delivery_success_ratio",
			Help: "Delivery success ratio of the latest dispatching run (0-1), target: 0.99",
		},
	)

	// SLOIngestDuration is the duration of the latest ingestion run.
	SLOIngestDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_ingest_duration_seconds",
			Help: "Duration of the latest ingestion run in seconds, target: 300",
		},
	)

	// SLOBreached is 1 per objective the latest run missed.
	SLOBreached = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slo_breached",
			Help: "1 if the latest run missed the objective, 0 otherwise",
		},
		[]string{"objective"},
	)
)

// UpdateDeliverySuccess records the delivery ratio of one run. Runs that
// attempted nothing leave the gauges untouched.
func UpdateDeliverySuccess(sent, failed int) {
	attempted := sent + failed
	if attempted == 0 {
		return
	}
	ratio := float64(sent) / float64(attempted)
	SLODeliverySuccess.Set(ratio)
	setBreached("delivery_success", ratio < DeliverySuccessSLO)
}

// UpdateIngestDuration records the duration of one run.
func UpdateIngestDuration(d time.Duration) {
	SLOIngestDuration.Set(d.Seconds())
	setBreached("ingest_duration", d > IngestDurationSLO)
}

func setBreached(objective string, breached bool) {
	v := 0.0
	if breached {
		v = 1
	}
	SLOBreached.WithLabelValues(objective).Set(v)
}
