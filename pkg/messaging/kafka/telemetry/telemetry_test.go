package telemetry

import (
	"context"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMessageTracer_InjectExtract(t *testing.T) {
	// Arrange
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	tracer := NewMessageTracer(tp)

	ctx, span := tracer.StartProducerSpan(context.Background(), "memorial-vectorizing-response", []byte("1"))
	defer span.End()
	topic := "memorial-vectorizing-response"
	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic},
		Headers:        []kafka.Header{{Key: "source", Value: []byte("feed")}},
	}

	// Act
	tracer.InjectContext(ctx, message)
	extracted := tracer.ExtractContext(context.Background(), message)

	// Assert
	keys := make([]string, 0, len(message.Headers))
	for _, h := range message.Headers {
		keys = append(keys, h.Key)
	}
	assert.ElementsMatch(t, []string{"source", "traceparent"}, keys)
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(extracted).TraceID())
}

func TestMessageTracer_ExtractWithoutHeaders(t *testing.T) {
	tracer := NewMessageTracer(nil)
	ctx := context.Background()

	assert.Equal(t, ctx, tracer.ExtractContext(ctx, &kafka.Message{}))
}

func TestMetrics_Counters(t *testing.T) {
	// Arrange
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewMetrics(mp)

	// Act
	m.Published(context.Background(), "t", OutcomeSuccess, 3)
	m.Consumed(context.Background(), "t", OutcomeFailure)

	// Assert
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	names := map[string]int64{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		names[metric.Name] = sum.DataPoints[0].Value
	}
	assert.Equal(t, map[string]int64{"messaging.publish.messages": 3, "messaging.process.messages": 1}, names)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Published(context.Background(), "t", OutcomeSuccess, 1)
		m.Consumed(context.Background(), "t", OutcomeSuccess)
	})
}
