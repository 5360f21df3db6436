// Package tracing wraps the OpenTelemetry global tracer for service spans.
// Without a configured provider the global tracer is a no-op.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "syncvault/pkg/domain-errors"
)

const tracerName = "syncvault"

// Start opens a span named op.
func Start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, op, trace.WithAttributes(attrs...))
}

// End closes span, recording *errp when set. Business rejections are tagged
// with their code; only internal failures mark the span as errored.
func End(span trace.Span, errp *error) {
	defer span.End()
	if errp == nil || *errp == nil {
		return
	}
	err := *errp
	code := dErrors.CodeOf(err)
	span.SetAttributes(attribute.String("error.code", string(code)))
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
