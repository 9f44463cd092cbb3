// Package tracing reports reactive engine activity as OpenTelemetry spans.
//
// The tracer comes from the global OpenTelemetry tracer provider unless one
// is given. Configure it in main() before creating engines:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
package tracing
