package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// GetTraceIDAndSpanID extracts both trace ID and span ID from context.
func GetTraceIDAndSpanID(ctx context.Context) (string, string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}

// LogFields returns trace_id and span_id fields for the span in ctx, or nil.
func LogFields(ctx context.Context) []zap.Field {
	traceID, spanID := GetTraceIDAndSpanID(ctx)
	if traceID == "" {
		return nil
	}
	return []zap.Field{zap.String("trace_id", traceID), zap.String("span_id", spanID)}
}

// AddAttribute adds an attribute to the current span.
func AddAttribute(ctx context.Context, key string, value string) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String(key, value))
}
