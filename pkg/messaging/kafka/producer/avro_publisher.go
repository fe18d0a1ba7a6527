package producer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/avro"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/telemetry"
)

// ErrKeyCountMismatch is returned by PublishBatch when keys and messages differ in length.
var ErrKeyCountMismatch = errors.New("number of keys does not match number of messages")

type publisherOptions struct {
	factory Factory
	tracer  *telemetry.MessageTracer
	metrics *telemetry.Metrics
}

// PublisherOption configures AvroPublisher and JSONPublisher.
type PublisherOption func(*publisherOptions)

// WithProducerFactory replaces the librdkafka producer, mainly for tests.
func WithProducerFactory(f Factory) PublisherOption {
	return func(o *publisherOptions) {
		o.factory = f
	}
}

// WithTelemetry sets the tracer and metrics; nil values use the global providers.
func WithTelemetry(tracer *telemetry.MessageTracer, metrics *telemetry.Metrics) PublisherOption {
	return func(o *publisherOptions) {
		o.tracer = tracer
		o.metrics = metrics
	}
}

func buildPublisherOptions(opts []PublisherOption) publisherOptions {
	o := publisherOptions{factory: NewKafkaProducer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = telemetry.NewMessageTracer(nil)
	}
	if o.metrics == nil {
		o.metrics = telemetry.NewMetrics(nil)
	}
	return o
}

// AvroPublisher publishes records encoded in the Confluent Avro wire format.
// One serializer is kept per registry subject.
type AvroPublisher struct {
	conn           *connection
	registry       schemaregistry.Registry
	defaultSubject string
	autoRegister   bool
	log            *zap.Logger

	codecMu     sync.Mutex
	serializers map[string]*avro.Serializer
}

// NewAvroPublisher creates an Avro publisher over registry. Nothing connects until Start or the first publish.
func NewAvroPublisher(conf config.Config, registry schemaregistry.Registry, log *zap.Logger, opts ...PublisherOption) *AvroPublisher {
	o := buildPublisherOptions(opts)
	log = log.With(zap.String("component", "avro-publisher"))

	return &AvroPublisher{
		conn:           newConnection(conf, o.factory, log, o.tracer, o.metrics),
		registry:       registry,
		defaultSubject: conf.SchemaRegistry.DefaultSubject,
		autoRegister:   lo.FromPtrOr(conf.SchemaRegistry.AutoRegisterSchemas, true),
		log:            log,
		serializers:    make(map[string]*avro.Serializer),
	}
}

// Start creates the producer and waits for the brokers. Calling it again only logs a warning.
func (p *AvroPublisher) Start(ctx context.Context) error {
	return p.conn.start(ctx)
}

// Publish reports whether message was encoded and acknowledged by the broker.
func (p *AvroPublisher) Publish(ctx context.Context, topic string, message map[string]any, opts ...PublishOption) bool {
	if err := p.PublishE(ctx, topic, message, opts...); err != nil {
		p.log.Error("failed to publish message", zap.String("topic", topic), zap.Error(err))
		return false
	}
	return true
}

// PublishE is Publish returning the failure cause.
func (p *AvroPublisher) PublishE(ctx context.Context, topic string, message map[string]any, opts ...PublishOption) error {
	o := applyOptions(opts)

	value, err := p.encode(ctx, topic, o, message)
	if err != nil {
		return err
	}
	return p.conn.produce(ctx, topic, o.key, value)
}

// PublishBatch encodes and enqueues every message, then waits for all
// delivery reports. keys may be nil; otherwise it must match messages in length.
func (p *AvroPublisher) PublishBatch(ctx context.Context, topic string, messages []map[string]any, keys []string, opts ...PublishOption) bool {
	if err := p.PublishBatchE(ctx, topic, messages, keys, opts...); err != nil {
		p.log.Error("failed to publish batch",
			zap.String("topic", topic),
			zap.Int("size", len(messages)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// PublishBatchE is PublishBatch returning the failure cause.
func (p *AvroPublisher) PublishBatchE(ctx context.Context, topic string, messages []map[string]any, keys []string, opts ...PublishOption) error {
	if keys != nil && len(keys) != len(messages) {
		return fmt.Errorf("%w: %d keys, %d messages", ErrKeyCountMismatch, len(keys), len(messages))
	}
	if len(messages) == 0 {
		return nil
	}

	o := applyOptions(opts)
	values := make([][]byte, len(messages))
	for i, message := range messages {
		value, err := p.encode(ctx, topic, o, message)
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		values[i] = value
	}

	var byteKeys [][]byte
	if keys != nil {
		byteKeys = lo.Map(keys, func(k string, _ int) []byte { return []byte(k) })
	}
	return p.conn.produceBatch(ctx, topic, byteKeys, values)
}

// RegisterSchema registers schema under the subject resolved for topic and
// returns its id. The serializer for that subject is replaced.
func (p *AvroPublisher) RegisterSchema(ctx context.Context, topic, schema, subject string) (int, error) {
	subject = ResolveSubject(subject, p.defaultSubject, topic)
	s := avro.NewSerializer(p.registry, subject, schema, avro.WithAutoRegister(true))

	id, err := s.Resolve(ctx)
	if err != nil {
		return 0, err
	}

	p.codecMu.Lock()
	p.serializers[subject] = s
	p.codecMu.Unlock()

	p.log.Info("schema registered", zap.String("subject", subject), zap.Int("schema-id", id))
	return id, nil
}

// Close flushes pending messages and releases the producer and registry client.
// It is safe to call more than once.
func (p *AvroPublisher) Close() {
	p.conn.close()

	if err := p.registry.Close(); err != nil {
		p.log.Warn("failed to close schema registry client", zap.Error(err))
	}

	p.codecMu.Lock()
	clear(p.serializers)
	p.codecMu.Unlock()
}

func (p *AvroPublisher) encode(ctx context.Context, topic string, o publishOptions, message map[string]any) ([]byte, error) {
	return p.serializer(topic, o).Encode(ctx, message)
}

func (p *AvroPublisher) serializer(topic string, o publishOptions) *avro.Serializer {
	subject := ResolveSubject(o.subject, p.defaultSubject, topic)

	p.codecMu.Lock()
	defer p.codecMu.Unlock()

	if s, ok := p.serializers[subject]; ok {
		return s
	}
	s := avro.NewSerializer(p.registry, subject, o.schema, avro.WithAutoRegister(p.autoRegister))
	p.serializers[subject] = s
	return s
}

// WithAvroPublisher starts p, runs fn and closes p, whatever fn returns.
func WithAvroPublisher(ctx context.Context, p *AvroPublisher, fn func(*AvroPublisher) error) error {
	defer p.Close()

	if err := p.Start(ctx); err != nil {
		return err
	}
	return fn(p)
}
