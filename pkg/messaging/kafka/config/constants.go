package config

import "time"

const (
	// Environment fallbacks for the connection endpoints.
	envBootstrapServers  = "KAFKA_BOOTSTRAP_SERVERS"
	envSchemaRegistryURL = "SCHEMA_REGISTRY_URL"

	// Default values.
	defaultBrokers                  = "localhost:9092"
	defaultSchemaRegistryURL        = "http://localhost:8081"
	defaultClientID                 = "avro-kafka-publisher"
	defaultSchemaRegistryTimeout    = 10 * time.Second
	defaultCompressionType          = "gzip"
	defaultBatchSize                = 16384
	defaultLingerMs                 = 10
	defaultAcks                     = "all"
	defaultAutoOffsetReset          = "earliest"
	defaultAutoCommitInterval       = 5 * time.Second
	defaultConsumerReadinessTimeout = 60
	defaultProducerReadinessTimeout = 30

	// Validation bounds.
	minAutoCommitInterval = 100 * time.Millisecond
	maxAutoCommitInterval = 1 * time.Minute
	minRegistryTimeout    = 100 * time.Millisecond
	maxRegistryTimeout    = 5 * time.Minute
	maxLingerMs           = 60000
	maxReadinessTimeout   = 600 // 10 minutes in seconds
)

var (
	validCompressionTypes = []string{"none", "gzip", "snappy", "lz4", "zstd"}
	validAcks             = []string{"all", "-1", "0", "1"}
)
