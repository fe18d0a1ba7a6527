// Package kafka assembles the Avro-over-Kafka messaging stack: configuration,
// schema registry, codec, publishers and listeners.
package kafka

import (
	"go.uber.org/fx"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/avro"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/consumer"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/producer"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
)

type messagingOptions struct {
	kafkaConfig     *config.Config
	disableConsumer bool
}

// Option configures the messaging module.
type Option func(*messagingOptions)

// WithKafkaConfig provides a static Kafka Config (useful for tests).
// When set, the Kafka configuration will not be loaded from viper.
func WithKafkaConfig(cfg config.Config) Option {
	return func(opts *messagingOptions) {
		opts.kafkaConfig = &cfg
	}
}

// WithoutListeners leaves out the listener module, for publish-only processes.
func WithoutListeners() Option {
	return func(opts *messagingOptions) {
		opts.disableConsumer = true
	}
}

// NewMessagingModule provides config.Config, the schema registry, the shared
// Deserializer, both publishers and consumer.Listeners.
//
//	// production, config from viper
//	kafka.NewMessagingModule()
//
//	// tests
//	kafka.NewMessagingModule(kafka.WithKafkaConfig(config.Config{...}))
func NewMessagingModule(opts ...Option) fx.Option {
	cfg := &messagingOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	modules := []fx.Option{
		kafkaConfigModule(cfg),
		schemaregistry.NewSchemaRegistryModule(),
		avro.NewAvroModule(),
		producer.NewProducerModule(),
	}
	if !cfg.disableConsumer {
		modules = append(modules, consumer.NewListenerModule())
	}
	return fx.Options(modules...)
}

func kafkaConfigModule(cfg *messagingOptions) fx.Option {
	if cfg.kafkaConfig != nil {
		return config.NewKafkaConfigModule(config.WithKafkaConfig(*cfg.kafkaConfig))
	}
	return config.NewKafkaConfigModule()
}
