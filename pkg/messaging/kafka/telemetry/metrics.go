package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome values recorded on message counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics counts published and consumed messages per topic and outcome.
type Metrics struct {
	published metric.Int64Counter
	consumed  metric.Int64Counter
}

// NewMetrics uses mp, or the global provider when mp is nil.
// Instrument creation errors fall back to no-op instruments.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	published, err := meter.Int64Counter("messaging.publish.messages",
		metric.WithDescription("Messages handed to the broker"),
		metric.WithUnit("{message}"))
	if err != nil {
		otel.Handle(err)
	}
	consumed, err := meter.Int64Counter("messaging.process.messages",
		metric.WithDescription("Messages read by listeners"),
		metric.WithUnit("{message}"))
	if err != nil {
		otel.Handle(err)
	}

	return &Metrics{published: published, consumed: consumed}
}

// Published counts n messages sent to topic. A nil Metrics is a no-op.
func (m *Metrics) Published(ctx context.Context, topic, outcome string, n int) {
	if m == nil || m.published == nil {
		return
	}
	m.published.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("messaging.destination", topic),
		attribute.String("outcome", outcome),
	))
}

// Consumed counts one message read from topic.
func (m *Metrics) Consumed(ctx context.Context, topic, outcome string) {
	if m == nil || m.consumed == nil {
		return
	}
	m.consumed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("messaging.destination", topic),
		attribute.String("outcome", outcome),
	))
}
