package consumer

import (
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/samber/lo"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
)

// Consumer is the subset of *kafka.Consumer used by Listener.
type Consumer interface {
	SubscribeTopics(topics []string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	StoreMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Commit() ([]kafka.TopicPartition, error)
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
	Close() error
}

// Factory creates a Consumer from a librdkafka configuration.
type Factory func(conf *kafka.ConfigMap) (Consumer, error)

// NewKafkaConsumer is the default Factory.
func NewKafkaConsumer(conf *kafka.ConfigMap) (Consumer, error) {
	c, err := kafka.NewConsumer(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	return c, nil
}

// consumerConfigMap never lets librdkafka store offsets on poll: the listener
// stores each offset after its handler returns, and the periodic auto commit
// only commits stored offsets.
func consumerConfigMap(conf config.Config, cc config.ConsumerConfig) *kafka.ConfigMap {
	autoCommit := autoCommitEnabled(cc)
	cm := &kafka.ConfigMap{
		"bootstrap.servers":        conf.Brokers,
		"client.id":                conf.ClientID,
		"group.id":                 cc.GroupID,
		"auto.offset.reset":        cc.AutoOffsetReset,
		"enable.auto.commit":       autoCommit,
		"enable.auto.offset.store": false,
	}
	if autoCommit {
		(*cm)["auto.commit.interval.ms"] = int(cc.AutoCommitInterval.Milliseconds())
	}
	return cm
}

func autoCommitEnabled(cc config.ConsumerConfig) bool {
	return lo.FromPtrOr(cc.AutoCommit, true)
}
