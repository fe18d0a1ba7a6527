package config

import (
	"fmt"
	"slices"
	"strings"
)

// validateConfig validates the entire Kafka configuration
func validateConfig(cfg *Config) error {
	if err := validateBrokers(cfg); err != nil {
		return err
	}
	if err := validateSchemaRegistry(&cfg.SchemaRegistry); err != nil {
		return err
	}
	if err := validateProducerConfig(&cfg.ProducerConfig); err != nil {
		return err
	}
	if err := validateIndividualConsumers(cfg.ConsumersConfig.ConsumerConfig); err != nil {
		return err
	}
	return nil
}

// validateBrokers validates Kafka brokers configuration
func validateBrokers(cfg *Config) error {
	if strings.TrimSpace(cfg.Brokers) == "" {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	return nil
}

// validateSchemaRegistry validates Schema Registry configuration
func validateSchemaRegistry(cfg *SchemaRegistryConfig) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return fmt.Errorf("schema registry URL cannot be empty")
	}
	if cfg.Timeout < minRegistryTimeout || cfg.Timeout > maxRegistryTimeout {
		return fmt.Errorf("schema registry timeout must be between %v and %v, got: %v",
			minRegistryTimeout, maxRegistryTimeout, cfg.Timeout)
	}
	if cfg.Password != "" && cfg.Username == "" {
		return fmt.Errorf("schema registry password is set without a username")
	}
	return nil
}

// validateProducerConfig validates producer configuration
func validateProducerConfig(cfg *ProducerConfig) error {
	if !slices.Contains(validCompressionTypes, cfg.CompressionType) {
		return fmt.Errorf("producer compression type must be one of %v, got: %s",
			validCompressionTypes, cfg.CompressionType)
	}
	if !slices.Contains(validAcks, cfg.Acks) {
		return fmt.Errorf("producer acks must be one of %v, got: %s", validAcks, cfg.Acks)
	}
	if cfg.BatchSize < 0 {
		return fmt.Errorf("producer batch size cannot be negative, got: %d", cfg.BatchSize)
	}
	if cfg.LingerMs < 0 || cfg.LingerMs > maxLingerMs {
		return fmt.Errorf("producer linger ms must be between 0 and %d, got: %d", maxLingerMs, cfg.LingerMs)
	}
	if cfg.ReadinessTimeoutSeconds > maxReadinessTimeout {
		return fmt.Errorf("producer readiness timeout cannot exceed %d seconds, got: %d",
			maxReadinessTimeout, cfg.ReadinessTimeoutSeconds)
	}
	return nil
}

// validateIndividualConsumers validates all individual consumer configurations
func validateIndividualConsumers(consumers []ConsumerConfig) error {
	names := make(map[string]struct{}, len(consumers))
	for i, consumer := range consumers {
		if err := validateConsumer(i, &consumer); err != nil {
			return err
		}
		if _, dup := names[consumer.Name]; dup {
			return fmt.Errorf("consumer[%d] (%s): duplicate consumer name", i, consumer.Name)
		}
		names[consumer.Name] = struct{}{}
	}
	return nil
}

// validateConsumer validates a single consumer configuration
func validateConsumer(index int, consumer *ConsumerConfig) error {
	if strings.TrimSpace(consumer.Name) == "" {
		return fmt.Errorf("consumer[%d]: name cannot be empty", index)
	}
	if strings.TrimSpace(consumer.Topic) == "" {
		return fmt.Errorf("consumer[%d] (%s): topic cannot be empty", index, consumer.Name)
	}
	if strings.TrimSpace(consumer.GroupID) == "" {
		return fmt.Errorf("consumer[%d] (%s): group id cannot be empty", index, consumer.Name)
	}
	if consumer.AutoOffsetReset != "earliest" && consumer.AutoOffsetReset != "latest" {
		return fmt.Errorf("consumer[%d] (%s): auto offset reset must be 'earliest' or 'latest', got: %s",
			index, consumer.Name, consumer.AutoOffsetReset)
	}
	if consumer.AutoCommitInterval < minAutoCommitInterval || consumer.AutoCommitInterval > maxAutoCommitInterval {
		return fmt.Errorf("consumer[%d] (%s): auto commit interval must be between %v and %v, got: %v",
			index, consumer.Name, minAutoCommitInterval, maxAutoCommitInterval, consumer.AutoCommitInterval)
	}
	if consumer.ReadinessTimeoutSeconds > maxReadinessTimeout {
		return fmt.Errorf("consumer[%d] (%s): readiness timeout cannot exceed %d seconds, got: %d",
			index, consumer.Name, maxReadinessTimeout, consumer.ReadinessTimeoutSeconds)
	}
	return nil
}
