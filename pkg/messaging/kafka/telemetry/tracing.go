// Package telemetry carries OpenTelemetry context through Kafka headers and
// records publish/consume spans and counters.
package telemetry

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka"

// MessageTracer creates messaging spans and propagates their context in headers.
type MessageTracer struct {
	tracer trace.Tracer
}

// NewMessageTracer uses tp, or the global provider when tp is nil.
func NewMessageTracer(tp trace.TracerProvider) *MessageTracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &MessageTracer{tracer: tp.Tracer(instrumentationName)}
}

// ExtractContext returns ctx enriched with the trace context found in message headers.
func (t *MessageTracer) ExtractContext(ctx context.Context, message *kafka.Message) context.Context {
	if len(message.Headers) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier(message.Headers))
}

// InjectContext writes the trace context of ctx into message headers, keeping other headers.
func (t *MessageTracer) InjectContext(ctx context.Context, message *kafka.Message) {
	carrier := headerCarrier(message.Headers)
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	message.Headers = message.Headers[:0]
	for key, value := range carrier {
		message.Headers = append(message.Headers, kafka.Header{Key: key, Value: []byte(value)})
	}
}

// StartProducerSpan starts a producer span for one message sent to topic.
func (t *MessageTracer) StartProducerSpan(ctx context.Context, topic string, key []byte) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.message.key", string(key)),
		),
	)
}

// StartConsumerSpan starts a consumer span for message.
func (t *MessageTracer) StartConsumerSpan(ctx context.Context, message *kafka.Message) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topicOf(message)),
			attribute.Int("messaging.partition", int(message.TopicPartition.Partition)),
			attribute.Int64("messaging.offset", int64(message.TopicPartition.Offset)),
			attribute.String("messaging.message.key", string(message.Key)),
		),
	)
}

func headerCarrier(headers []kafka.Header) propagation.MapCarrier {
	carrier := make(propagation.MapCarrier, len(headers))
	for _, h := range headers {
		carrier[h.Key] = string(h.Value)
	}
	return carrier
}

func topicOf(message *kafka.Message) string {
	if message.TopicPartition.Topic == nil {
		return ""
	}
	return *message.TopicPartition.Topic
}
