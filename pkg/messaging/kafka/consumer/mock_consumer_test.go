package consumer

import (
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type readResult struct {
	msg *kafka.Message
	err error
}

// mockConsumer replays reads in order, then calls onDrained and reports timeouts.
// Once closed it fails every read with ErrState, like librdkafka.
type mockConsumer struct {
	mu           sync.Mutex
	reads        []readResult
	onDrained    func()
	subscribed   []string
	subscribeErr error
	metadataErr  error
	stored       []kafka.Offset
	committedMsg []kafka.Offset
	commits      int
	closes       int
}

func (m *mockConsumer) SubscribeTopics(topics []string, _ kafka.RebalanceCb) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed = append(m.subscribed, topics...)
	return m.subscribeErr
}

func (m *mockConsumer) ReadMessage(time.Duration) (*kafka.Message, error) {
	m.mu.Lock()
	if m.closes > 0 {
		m.mu.Unlock()
		return nil, kafka.NewError(kafka.ErrState, "Operation not allowed on closed client", false)
	}
	if len(m.reads) == 0 {
		drained := m.onDrained
		m.mu.Unlock()
		if drained != nil {
			drained()
		}
		time.Sleep(time.Millisecond)
		return nil, kafka.NewError(kafka.ErrTimedOut, "timed out", false)
	}
	r := m.reads[0]
	m.reads = m.reads[1:]
	m.mu.Unlock()
	return r.msg, r.err
}

func (m *mockConsumer) StoreMessage(msg *kafka.Message) ([]kafka.TopicPartition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, msg.TopicPartition.Offset)
	return nil, nil
}

func (m *mockConsumer) CommitMessage(msg *kafka.Message) ([]kafka.TopicPartition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committedMsg = append(m.committedMsg, msg.TopicPartition.Offset)
	return nil, nil
}

func (m *mockConsumer) Commit() ([]kafka.TopicPartition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++
	return nil, nil
}

func (m *mockConsumer) GetMetadata(topic *string, _ bool, _ int) (*kafka.Metadata, error) {
	if m.metadataErr != nil {
		return nil, m.metadataErr
	}
	return &kafka.Metadata{Topics: map[string]kafka.TopicMetadata{
		*topic: {Topic: *topic, Partitions: []kafka.PartitionMetadata{{ID: 0}}},
	}}, nil
}

func (m *mockConsumer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *mockConsumer) storedOffsets() []kafka.Offset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]kafka.Offset(nil), m.stored...)
}
