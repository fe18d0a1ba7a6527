package producer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/logger"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/telemetry"
)

const flushTimeout = 10 * time.Second

// connection owns the lazily created Kafka producer shared by a publisher's calls.
type connection struct {
	conf      config.Config
	factory   Factory
	log       *zap.Logger
	tracer    *telemetry.MessageTracer
	metrics   *telemetry.Metrics
	throttler *logger.LogThrottler

	mu       sync.Mutex
	producer Producer
}

func newConnection(conf config.Config, factory Factory, log *zap.Logger, tracer *telemetry.MessageTracer, metrics *telemetry.Metrics) *connection {
	return &connection{
		conf:      conf,
		factory:   factory,
		log:       log,
		tracer:    tracer,
		metrics:   metrics,
		throttler: logger.NewLogThrottler(log, time.Minute),
	}
}

func (c *connection) start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.producer != nil {
		c.log.Warn("publisher already started")
		return nil
	}
	return c.startLocked(ctx)
}

func (c *connection) startLocked(ctx context.Context) error {
	p, err := c.factory(producerConfigMap(c.conf))
	if err != nil {
		return messaging.NewBrokerError("connect", "", err)
	}

	pc := c.conf.ProducerConfig
	if err := waitForBrokers(ctx, p, c.log, pc.ReadinessTimeoutSeconds, pc.FailOnBrokerError); err != nil {
		p.Close()
		return messaging.NewBrokerError("connect", "", err)
	}

	c.producer = p
	go c.watchEvents(p.Events())

	c.log.Info("publisher started", zap.String("brokers", c.conf.Brokers))
	return nil
}

// ensureStarted returns the producer, starting it on first use.
func (c *connection) ensureStarted(ctx context.Context) (Producer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.producer == nil {
		if err := c.startLocked(ctx); err != nil {
			return nil, err
		}
	}
	return c.producer, nil
}

// watchEvents drains producer-level events until the producer closes the channel.
// Delivery reports go to per-call channels, so only client errors arrive here.
func (c *connection) watchEvents(events chan kafka.Event) {
	for e := range events {
		if ev, ok := e.(kafka.Error); ok {
			c.throttler.Warn(ev.Code().String(), "kafka producer error",
				zap.String("code", ev.Code().String()),
				zap.Bool("fatal", ev.IsFatal()),
				zap.Error(ev),
			)
		}
	}
}

func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.producer == nil {
		return
	}

	if remaining := c.producer.Flush(int(flushTimeout.Milliseconds())); remaining > 0 {
		c.log.Warn("messages left unflushed on close", zap.Int("remaining", remaining))
	}
	c.producer.Close()
	c.producer = nil
	c.log.Info("publisher closed")
}

// produce sends one message and waits for its delivery report.
func (c *connection) produce(ctx context.Context, topic string, key, value []byte) error {
	return c.produceBatch(ctx, topic, [][]byte{key}, [][]byte{value})
}

// produceBatch enqueues every value, then waits for all delivery reports.
// Enqueuing stops at the first rejected message; reports for already
// enqueued messages are still awaited.
func (c *connection) produceBatch(ctx context.Context, topic string, keys, values [][]byte) error {
	p, err := c.ensureStarted(ctx)
	if err != nil {
		return err
	}

	ctx, span := c.tracer.StartProducerSpan(ctx, topic, keyAt(keys, 0))
	defer span.End()

	pending := make([]chan kafka.Event, 0, len(values))
	var firstErr error
	for i, value := range values {
		ch, err := c.enqueue(ctx, p, topic, keyAt(keys, i), value)
		if err != nil {
			firstErr = err
			break
		}
		pending = append(pending, ch)
	}

	failed := len(values) - len(pending)
	for _, ch := range pending {
		if err := awaitDelivery(ctx, topic, ch); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	c.record(ctx, span, topic, len(values)-failed, failed, firstErr)
	return firstErr
}

func (c *connection) enqueue(ctx context.Context, p Producer, topic string, key, value []byte) (chan kafka.Event, error) {
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          value,
	}
	c.tracer.InjectContext(ctx, msg)

	ch := make(chan kafka.Event, 1)
	if err := p.Produce(msg, ch); err != nil {
		return nil, messaging.NewBrokerError("produce", topic, err)
	}
	return ch, nil
}

func (c *connection) record(ctx context.Context, span trace.Span, topic string, ok, failed int, err error) {
	if ok > 0 {
		c.metrics.Published(ctx, topic, telemetry.OutcomeSuccess, ok)
	}
	if failed > 0 {
		c.metrics.Published(ctx, topic, telemetry.OutcomeFailure, failed)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func awaitDelivery(ctx context.Context, topic string, ch chan kafka.Event) error {
	select {
	case e := <-ch:
		return deliveryError(topic, e)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func deliveryError(topic string, e kafka.Event) error {
	switch ev := e.(type) {
	case *kafka.Message:
		return messaging.NewBrokerError("deliver", topic, ev.TopicPartition.Error)
	case kafka.Error:
		return messaging.NewBrokerError("deliver", topic, ev)
	default:
		return messaging.NewBrokerError("deliver", topic, fmt.Errorf("unexpected delivery event %T", e))
	}
}

func keyAt(keys [][]byte, i int) []byte {
	if i < len(keys) {
		return keys[i]
	}
	return nil
}
