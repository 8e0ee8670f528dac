package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans created by this service.
const InstrumentationName = "fintech-news"

// GetTracer returns the service tracer from the current global provider.
// It is looked up on every call so a provider installed after package
// initialisation, such as the in-memory exporter in tests, is honoured.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "ingest.run")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
