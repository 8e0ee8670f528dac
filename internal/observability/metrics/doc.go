// Package metrics holds the Prometheus metrics shared by the API and the
// worker: HTTP request metrics, ingestion metrics, and subscription API
// counters. All metrics register with the default registry through promauto
// and are exposed on /metrics.
//
// Dispatch metrics live next to the coordinator in internal/usecase/notify.
package metrics
