package producer

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
)

// Producer is the subset of *kafka.Producer used by the publishers.
type Producer interface {
	Produce(message *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
	Close()
}

// Factory creates a Producer from a librdkafka configuration.
type Factory func(conf *kafka.ConfigMap) (Producer, error)

// NewKafkaProducer is the default Factory.
func NewKafkaProducer(conf *kafka.ConfigMap) (Producer, error) {
	p, err := kafka.NewProducer(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return p, nil
}

func producerConfigMap(conf config.Config) *kafka.ConfigMap {
	pc := conf.ProducerConfig
	return &kafka.ConfigMap{
		"bootstrap.servers": conf.Brokers,
		"client.id":         conf.ClientID,
		"compression.type":  pc.CompressionType,
		"batch.size":        pc.BatchSize,
		"linger.ms":         pc.LingerMs,
		"acks":              pc.Acks,
	}
}
