package producer

import (
	"errors"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// mockProducer acknowledges every message unless produceFunc says otherwise.
type mockProducer struct {
	mu          sync.Mutex
	produced    []*kafka.Message
	produceFunc func(n int, msg *kafka.Message, ch chan kafka.Event) error
	metadataErr error
	events      chan kafka.Event
	flushes     int
	closes      int
}

func newMockProducer() *mockProducer {
	return &mockProducer{events: make(chan kafka.Event, 8)}
}

func (m *mockProducer) Produce(msg *kafka.Message, ch chan kafka.Event) error {
	m.mu.Lock()
	m.produced = append(m.produced, msg)
	n := len(m.produced)
	fn := m.produceFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(n, msg, ch)
	}
	ack(msg, ch, nil)
	return nil
}

func ack(msg *kafka.Message, ch chan kafka.Event, err error) {
	delivered := *msg
	delivered.TopicPartition.Error = err
	ch <- &delivered
}

func (m *mockProducer) Events() chan kafka.Event {
	return m.events
}

func (m *mockProducer) Flush(int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	return 0
}

func (m *mockProducer) GetMetadata(*string, bool, int) (*kafka.Metadata, error) {
	if m.metadataErr != nil {
		return nil, m.metadataErr
	}
	return &kafka.Metadata{Brokers: []kafka.BrokerMetadata{{ID: 1, Host: "localhost", Port: 9092}}}, nil
}

func (m *mockProducer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closes == 0 {
		close(m.events)
	}
	m.closes++
}

func (m *mockProducer) messages() []*kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*kafka.Message(nil), m.produced...)
}

// factoryFor returns a Factory that hands out p and counts how often it was called.
func factoryFor(p *mockProducer, calls *int) Factory {
	return func(*kafka.ConfigMap) (Producer, error) {
		*calls++
		return p, nil
	}
}

var errBrokerDown = errors.New("broker transport failure")
