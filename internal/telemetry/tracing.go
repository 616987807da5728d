// Package telemetry wraps otel spans around a canal run and the
// synchronizer pass, for offline profiling of slow programs. Adapted from
// the teacher's internal/infrastructure/monitoring/trace.go ExecutionTrace,
// which accumulated an in-memory slice of TraceEvents per execution; here
// the same two call sites (canal run, synchronizer pass) open real otel
// spans instead, so a profiler can attach without this package buffering
// anything itself.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ncplot7go/ncengine"

// Tracer returns the engine's named otel tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartCanalSpan opens a span covering one canal's full parse+walk,
// tagged with its canal number and machine name.
func StartCanalSpan(ctx context.Context, canalNr, machineName string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "canal.run",
		trace.WithAttributes(
			attribute.String("canal.nr", canalNr),
			attribute.String("canal.machine", machineName),
		),
	)
}

// StartSyncSpan opens a span covering one multi-canal synchronizer pass.
func StartSyncSpan(ctx context.Context, canalCount int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "canalsync.synchronize",
		trace.WithAttributes(attribute.Int("canalsync.canal_count", canalCount)),
	)
}

// RecordError marks span as failed and attaches err, a no-op if err is nil.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
