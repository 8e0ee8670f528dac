// Package tracing provides the OpenTelemetry tracer used for ingestion runs,
// dispatch passes and HTTP requests, plus an HTTP middleware that extracts
// W3C trace context and records one server span per request.
//
// No exporter is configured here; cmd binaries install a provider when one
// is wanted and tests install an in-memory exporter.
package tracing
