package config

import "time"

// Config represents the main Kafka configuration.
type Config struct {
	Brokers         string               `mapstructure:"brokers"`          // Comma-separated list of Kafka broker addresses (e.g., "localhost:9092,localhost:9093")
	ClientID        string               `mapstructure:"client-id"`        // client.id reported to the brokers
	SchemaRegistry  SchemaRegistryConfig `mapstructure:"schema-registry"`  // Schema Registry configuration for Avro serialization/deserialization
	ConsumersConfig ConsumersConfig      `mapstructure:"consumers-config"` // Global and individual consumer (listener) configurations
	ProducerConfig  ProducerConfig       `mapstructure:"producer-config"`  // Producer-specific configuration
}

// ConsumersConfig holds global default settings and individual consumer configurations.
type ConsumersConfig struct {
	DefaultGroupID            string           `mapstructure:"default-group-id"`             // Default consumer group ID (applied to consumers without explicit group-id)
	DefaultAutoOffsetReset    string           `mapstructure:"default-auto-offset-reset"`    // Default offset reset policy: "earliest" or "latest"
	DefaultAutoCommitInterval time.Duration    `mapstructure:"default-auto-commit-interval"` // Default auto commit interval (100ms-1m)
	ConsumerConfig            []ConsumerConfig `mapstructure:"consumers"`                    // Individual consumer configurations
}

// ConsumerConfig represents configuration for an individual Kafka listener.
type ConsumerConfig struct {
	Name                    string        `mapstructure:"name"`                      // Unique consumer name/identifier (required)
	Topic                   string        `mapstructure:"topic"`                     // Kafka topic to consume from (required)
	GroupID                 string        `mapstructure:"group-id"`                  // Consumer group ID (defaults to DefaultGroupID)
	AutoOffsetReset         string        `mapstructure:"auto-offset-reset"`         // Offset reset policy: "earliest" or "latest" (defaults to DefaultAutoOffsetReset)
	AutoCommit              *bool         `mapstructure:"auto-commit"`               // Commit offsets on a timer regardless of handler outcome (default true)
	AutoCommitInterval      time.Duration `mapstructure:"auto-commit-interval"`      // Auto commit interval (defaults to DefaultAutoCommitInterval)
	ReadinessTimeoutSeconds int           `mapstructure:"readiness-timeout-seconds"` // Timeout in seconds for waiting topic readiness (0 = no timeout, max 600s)
	FailOnTopicError        bool          `mapstructure:"fail-on-topic-error"`       // Whether to fail application startup if topic is not available
}

// ProducerConfig represents configuration for Kafka producer.
type ProducerConfig struct {
	CompressionType         string `mapstructure:"compression-type"`          // none, gzip, snappy, lz4, zstd (default gzip)
	BatchSize               int    `mapstructure:"batch-size"`                // Maximum batch size in bytes (default 16384)
	LingerMs                int    `mapstructure:"linger-ms"`                 // Delay to wait for batching (default 10)
	Acks                    string `mapstructure:"acks"`                      // "all", "1" or "0" (default all)
	ReadinessTimeoutSeconds int    `mapstructure:"readiness-timeout-seconds"` // Timeout in seconds for waiting brokers readiness (0 = no timeout, max 600s, default 30s)
	FailOnBrokerError       bool   `mapstructure:"fail-on-broker-error"`      // Whether to fail startup if brokers are not available (default false)
}

// SchemaRegistryConfig represents Confluent Schema Registry configuration.
type SchemaRegistryConfig struct {
	URL                 string        `mapstructure:"url"`                   // Schema Registry URL (e.g., "http://schema-registry:8081" or "mock://local")
	Username            string        `mapstructure:"username"`              // Basic auth username (optional)
	Password            string        `mapstructure:"password"`              // Basic auth password (optional)
	Timeout             time.Duration `mapstructure:"timeout"`               // HTTP timeout per request (default 10s)
	DefaultSubject      string        `mapstructure:"default-subject"`       // Subject used when a publish call names none (optional)
	AutoRegisterSchemas *bool         `mapstructure:"auto-register-schemas"` // Register schemas supplied on publish (default true)
}

// Consumer returns the consumer configuration with the given name.
func (c ConsumersConfig) Consumer(name string) (ConsumerConfig, bool) {
	for _, consumer := range c.ConsumerConfig {
		if consumer.Name == name {
			return consumer, true
		}
	}
	return ConsumerConfig{}, false
}
