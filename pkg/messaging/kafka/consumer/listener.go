package consumer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/logger"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/avro"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/telemetry"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/observability/tracing"
)

// State is the lifecycle state of a Listener.
type State string

const (
	StateStopped   State = "stopped"
	StateStarted   State = "started"
	StateConsuming State = "consuming"
)

const defaultPollTimeout = time.Second

// MessageHandler processes one decoded record. A returned error is logged and
// the listener moves on to the next message.
type MessageHandler func(ctx context.Context, message map[string]any) error

type listenerOptions struct {
	factory     Factory
	decoder     *avro.Deserializer
	tracer      *telemetry.MessageTracer
	metrics     *telemetry.Metrics
	pollTimeout time.Duration
}

// Option configures a Listener.
type Option func(*listenerOptions)

// WithConsumerFactory replaces the librdkafka consumer, mainly for tests.
func WithConsumerFactory(f Factory) Option {
	return func(o *listenerOptions) {
		o.factory = f
	}
}

// WithTelemetry sets the tracer and metrics; nil values use the global providers.
func WithTelemetry(tracer *telemetry.MessageTracer, metrics *telemetry.Metrics) Option {
	return func(o *listenerOptions) {
		o.tracer = tracer
		o.metrics = metrics
	}
}

// WithDecoder shares a Deserializer, and its writer-schema cache, between listeners.
func WithDecoder(d *avro.Deserializer) Option {
	return func(o *listenerOptions) {
		o.decoder = d
	}
}

// WithPollTimeout bounds how long one read blocks, and so how quickly
// Consume notices cancellation.
func WithPollTimeout(d time.Duration) Option {
	return func(o *listenerOptions) {
		o.pollTimeout = d
	}
}

// Listener consumes Avro records from one topic and hands them to a MessageHandler.
type Listener struct {
	conf         config.Config
	consumerConf config.ConsumerConfig
	registry     schemaregistry.Registry
	decoder      *avro.Deserializer
	opts         listenerOptions
	log          *zap.Logger
	throttler    *logger.LogThrottler

	handlerMu sync.RWMutex
	handler   MessageHandler

	mu       sync.Mutex
	consumer Consumer

	state atomic.Value // State
}

// NewListener creates a stopped listener for consumerConf.Topic. Nothing
// connects until Start or Consume.
func NewListener(conf config.Config, consumerConf config.ConsumerConfig, registry schemaregistry.Registry, log *zap.Logger, opts ...Option) *Listener {
	o := listenerOptions{factory: NewKafkaConsumer, pollTimeout: defaultPollTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = telemetry.NewMessageTracer(nil)
	}
	if o.metrics == nil {
		o.metrics = telemetry.NewMetrics(nil)
	}
	if o.decoder == nil {
		o.decoder = avro.NewDeserializer(registry)
	}

	log = log.With(
		zap.String("component", "listener"),
		zap.String("listener", consumerConf.Name),
		zap.String("topic", consumerConf.Topic),
		zap.String("group-id", consumerConf.GroupID),
	)

	l := &Listener{
		conf:         conf,
		consumerConf: consumerConf,
		registry:     registry,
		decoder:      o.decoder,
		opts:         o,
		log:          log,
		throttler:    logger.NewLogThrottler(log, time.Minute),
	}
	l.state.Store(StateStopped)
	return l
}

// Name returns the configured listener name.
func (l *Listener) Name() string {
	return l.consumerConf.Name
}

// Topic returns the subscribed topic.
func (l *Listener) Topic() string {
	return l.consumerConf.Topic
}

// State returns the current State as a string.
func (l *Listener) State() string {
	return string(l.state.Load().(State))
}

// SetMessageHandler replaces the handler. It may be called while consuming.
func (l *Listener) SetMessageHandler(h MessageHandler) {
	l.handlerMu.Lock()
	defer l.handlerMu.Unlock()
	l.handler = h
}

func (l *Listener) messageHandler() MessageHandler {
	l.handlerMu.RLock()
	defer l.handlerMu.RUnlock()
	return l.handler
}

// Start creates the consumer and subscribes to the topic. Calling it again only logs a warning.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.consumer != nil {
		l.log.Warn("listener already started")
		return nil
	}
	_, err := l.startLocked(ctx)
	return err
}

func (l *Listener) startLocked(ctx context.Context) (Consumer, error) {
	topic := l.consumerConf.Topic

	c, err := l.opts.factory(consumerConfigMap(l.conf, l.consumerConf))
	if err != nil {
		return nil, messaging.NewBrokerError("connect", topic, err)
	}

	if err := c.SubscribeTopics([]string{topic}, l.rebalance); err != nil {
		_ = c.Close()
		return nil, messaging.NewBrokerError("subscribe", topic, err)
	}

	if err := waitForTopic(ctx, c, topic, l.log, l.consumerConf.ReadinessTimeoutSeconds, l.consumerConf.FailOnTopicError); err != nil {
		_ = c.Close()
		return nil, messaging.NewBrokerError("subscribe", topic, err)
	}

	l.consumer = c
	l.state.Store(StateStarted)
	l.log.Info("listener started", zap.Bool("auto-commit", autoCommitEnabled(l.consumerConf)))
	return c, nil
}

func (l *Listener) rebalance(_ *kafka.Consumer, event kafka.Event) error {
	switch ev := event.(type) {
	case kafka.AssignedPartitions:
		l.log.Info("partitions assigned", zap.Int32s("partitions", partitionIDs(ev.Partitions)))
	case kafka.RevokedPartitions:
		l.log.Info("partitions revoked", zap.Int32s("partitions", partitionIDs(ev.Partitions)))
	}
	return nil
}

// Consume reads messages until ctx is done, Close is called or a fatal broker
// error occurs, starting the listener first if needed. Decode and handler
// failures, panics included, are logged per message and do not stop the loop.
// After Close it returns nil.
func (l *Listener) Consume(ctx context.Context) error {
	c, err := l.beginConsuming(ctx)
	if err != nil {
		return err
	}
	defer l.endConsuming()

	retry := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxInterval(10*time.Second),
		backoff.WithMaxElapsedTime(0),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := c.ReadMessage(l.opts.pollTimeout)
		if l.closedSince(c) {
			l.log.Info("listener closed, stopping consume loop")
			return nil
		}
		if err != nil {
			if fatal := l.onReadError(ctx, err, retry); fatal != nil {
				return fatal
			}
			continue
		}

		retry.Reset()
		l.handle(ctx, msg)
	}
}

func (l *Listener) beginConsuming(ctx context.Context) (Consumer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.consumer
	if c == nil {
		var err error
		if c, err = l.startLocked(ctx); err != nil {
			return nil, err
		}
	}
	l.state.Store(StateConsuming)
	l.log.Info("consuming")
	return c, nil
}

// closedSince reports whether Close has released c. A message read from c
// after that is left uncommitted and is redelivered.
func (l *Listener) closedSince(c Consumer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consumer != c
}

func (l *Listener) endConsuming() {
	l.state.CompareAndSwap(StateConsuming, StateStarted)
}

// onReadError returns a non-nil error only when consuming must stop.
func (l *Listener) onReadError(ctx context.Context, err error, retry backoff.BackOff) error {
	re := classifyReadError(err)
	switch {
	case re.isTimeout():
		return nil
	case re.isFatal():
		l.log.Error(re.description, zap.Error(err))
		return messaging.NewBrokerError("consume", l.consumerConf.Topic, err)
	case re.isTemporary():
		l.throttler.Warn(re.key, re.description, zap.Error(err))
		sleep(ctx, retry.NextBackOff())
	default:
		l.throttler.Warn(re.key, re.description, zap.Error(err))
	}
	return nil
}

func (l *Listener) handle(ctx context.Context, msg *kafka.Message) {
	topic := l.consumerConf.Topic

	ctx = l.opts.tracer.ExtractContext(ctx, msg)
	ctx, span := l.opts.tracer.StartConsumerSpan(ctx, msg)
	defer span.End()

	log := l.log.With(
		zap.Int32("partition", msg.TopicPartition.Partition),
		zap.Int64("offset", int64(msg.TopicPartition.Offset)),
	).With(tracing.LogFields(ctx)...)
	ctx = logger.WithLogger(ctx, log)

	err := l.process(ctx, log, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.opts.metrics.Consumed(ctx, topic, telemetry.OutcomeFailure)
	} else {
		l.opts.metrics.Consumed(ctx, topic, telemetry.OutcomeSuccess)
	}

	l.markProcessed(log, msg)
}

func (l *Listener) process(ctx context.Context, log *zap.Logger, msg *kafka.Message) error {
	record, err := l.decoder.Decode(ctx, msg.Value)
	if err != nil {
		log.Error("failed to decode message", zap.Error(err))
		return err
	}
	if record == nil {
		log.Debug("skipping tombstone")
		return nil
	}

	h := l.messageHandler()
	if h == nil {
		log.Info("message received without handler", zap.Any("message", record))
		return nil
	}

	if err := callHandler(ctx, h, record); err != nil {
		fields := []zap.Field{zap.Error(err)}
		var panicErr *PanicError
		if errors.As(err, &panicErr) {
			fields = append(fields, zap.ByteString("stack", panicErr.Stack))
		}
		log.Error("message handler failed", fields...)
		return err
	}
	return nil
}

// markProcessed stores the offset for the periodic auto commit, or commits it
// synchronously when auto commit is off.
func (l *Listener) markProcessed(log *zap.Logger, msg *kafka.Message) {
	l.mu.Lock()
	c := l.consumer
	l.mu.Unlock()
	if c == nil {
		return
	}

	var err error
	if autoCommitEnabled(l.consumerConf) {
		_, err = c.StoreMessage(msg)
	} else {
		_, err = c.CommitMessage(msg)
	}
	if err != nil {
		log.Warn("failed to record offset", zap.Error(err))
	}
}

// Close commits stored offsets, closes the consumer and the registry client.
// It is safe to call more than once and while Consume is running.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.consumer != nil {
		if autoCommitEnabled(l.consumerConf) {
			if _, err := l.consumer.Commit(); err != nil && !isNoOffset(err) {
				l.log.Warn("failed to commit offsets on close", zap.Error(err))
			}
		}
		if err := l.consumer.Close(); err != nil {
			l.log.Warn("failed to close consumer", zap.Error(err))
		}
		l.consumer = nil
		l.log.Info("listener closed")
	}
	l.state.Store(StateStopped)

	if err := l.registry.Close(); err != nil {
		l.log.Warn("failed to close schema registry client", zap.Error(err))
	}
}

// WithListener starts l, runs fn and closes l, whatever fn returns.
func WithListener(ctx context.Context, l *Listener, fn func(*Listener) error) error {
	defer l.Close()

	if err := l.Start(ctx); err != nil {
		return err
	}
	return fn(l)
}

func isNoOffset(err error) bool {
	var kafkaErr kafka.Error
	return errors.As(err, &kafkaErr) && kafkaErr.Code() == kafka.ErrNoOffset
}

func partitionIDs(partitions []kafka.TopicPartition) []int32 {
	ids := make([]int32, len(partitions))
	for i, p := range partitions {
		ids[i] = p.Partition
	}
	return ids
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
