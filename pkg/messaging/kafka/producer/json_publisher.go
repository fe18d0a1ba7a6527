package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
)

// JSONPublisher publishes messages as JSON documents. Schema options are ignored.
type JSONPublisher struct {
	conn *connection
	log  *zap.Logger
}

// NewJSONPublisher creates a JSON publisher. Nothing connects until Start or the first publish.
func NewJSONPublisher(conf config.Config, log *zap.Logger, opts ...PublisherOption) *JSONPublisher {
	o := buildPublisherOptions(opts)
	log = log.With(zap.String("component", "json-publisher"))

	return &JSONPublisher{
		conn: newConnection(conf, o.factory, log, o.tracer, o.metrics),
		log:  log,
	}
}

// Start creates the producer and waits for the brokers.
func (p *JSONPublisher) Start(ctx context.Context) error {
	return p.conn.start(ctx)
}

// Publish reports whether message was encoded and acknowledged by the broker.
func (p *JSONPublisher) Publish(ctx context.Context, topic string, message map[string]any, opts ...PublishOption) bool {
	if err := p.PublishE(ctx, topic, message, opts...); err != nil {
		p.log.Error("failed to publish message", zap.String("topic", topic), zap.Error(err))
		return false
	}
	return true
}

// PublishE is Publish returning the failure cause.
func (p *JSONPublisher) PublishE(ctx context.Context, topic string, message map[string]any, opts ...PublishOption) error {
	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to encode message as json: %w", err)
	}
	return p.conn.produce(ctx, topic, applyOptions(opts).key, value)
}

// Close flushes pending messages and closes the producer.
func (p *JSONPublisher) Close() {
	p.conn.close()
}
