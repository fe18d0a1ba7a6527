package config

import (
	"os"

	"github.com/samber/lo"
)

// applyEnvFallbacks fills connection endpoints from the conventional environment variables
func applyEnvFallbacks(cfg *Config) {
	if cfg.Brokers == "" {
		cfg.Brokers = lo.CoalesceOrEmpty(os.Getenv(envBootstrapServers), defaultBrokers)
	}
	if cfg.SchemaRegistry.URL == "" {
		cfg.SchemaRegistry.URL = lo.CoalesceOrEmpty(os.Getenv(envSchemaRegistryURL), defaultSchemaRegistryURL)
	}
}

// applyDefaults applies default values to the configuration
func applyDefaults(cfg *Config) {
	if cfg.ClientID == "" {
		cfg.ClientID = defaultClientID
	}

	// Apply defaults for schema registry
	if cfg.SchemaRegistry.Timeout == 0 {
		cfg.SchemaRegistry.Timeout = defaultSchemaRegistryTimeout
	}
	if cfg.SchemaRegistry.AutoRegisterSchemas == nil {
		cfg.SchemaRegistry.AutoRegisterSchemas = lo.ToPtr(true)
	}

	// Apply defaults for producer
	if cfg.ProducerConfig.CompressionType == "" {
		cfg.ProducerConfig.CompressionType = defaultCompressionType
	}
	if cfg.ProducerConfig.BatchSize == 0 {
		cfg.ProducerConfig.BatchSize = defaultBatchSize
	}
	if cfg.ProducerConfig.LingerMs == 0 {
		cfg.ProducerConfig.LingerMs = defaultLingerMs
	}
	if cfg.ProducerConfig.Acks == "" {
		cfg.ProducerConfig.Acks = defaultAcks
	}
	if cfg.ProducerConfig.ReadinessTimeoutSeconds == 0 {
		cfg.ProducerConfig.ReadinessTimeoutSeconds = defaultProducerReadinessTimeout
	}

	// Apply defaults for global consumer config
	if cfg.ConsumersConfig.DefaultAutoOffsetReset == "" {
		cfg.ConsumersConfig.DefaultAutoOffsetReset = defaultAutoOffsetReset
	}
	if cfg.ConsumersConfig.DefaultAutoCommitInterval == 0 {
		cfg.ConsumersConfig.DefaultAutoCommitInterval = defaultAutoCommitInterval
	}

	// Apply defaults from global consumer config to individual consumers
	for i := range cfg.ConsumersConfig.ConsumerConfig {
		applyConsumerDefaults(&cfg.ConsumersConfig.ConsumerConfig[i], &cfg.ConsumersConfig)
	}
}

// applyConsumerDefaults applies defaults to an individual consumer configuration
func applyConsumerDefaults(consumer *ConsumerConfig, globalConfig *ConsumersConfig) {
	if consumer.GroupID == "" {
		consumer.GroupID = globalConfig.DefaultGroupID
	}
	if consumer.AutoOffsetReset == "" {
		consumer.AutoOffsetReset = globalConfig.DefaultAutoOffsetReset
	}
	if consumer.AutoCommit == nil {
		consumer.AutoCommit = lo.ToPtr(true)
	}
	if consumer.AutoCommitInterval == 0 {
		consumer.AutoCommitInterval = globalConfig.DefaultAutoCommitInterval
	}
	if consumer.ReadinessTimeoutSeconds == 0 {
		consumer.ReadinessTimeoutSeconds = defaultConsumerReadinessTimeout
	}
}
