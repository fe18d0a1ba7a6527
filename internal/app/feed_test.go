package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/avro"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/consumer"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/producer"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
)

// queueConsumer hands out queued messages, then reports poll timeouts.
type queueConsumer struct {
	mu    sync.Mutex
	topic string
	queue []*kafka.Message
}

func (c *queueConsumer) SubscribeTopics([]string, kafka.RebalanceCb) error { return nil }

func (c *queueConsumer) ReadMessage(time.Duration) (*kafka.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		time.Sleep(time.Millisecond)
		return nil, kafka.NewError(kafka.ErrTimedOut, "timed out", false)
	}
	msg := c.queue[0]
	c.queue = c.queue[1:]
	return msg, nil
}

func (c *queueConsumer) StoreMessage(*kafka.Message) ([]kafka.TopicPartition, error) { return nil, nil }

func (c *queueConsumer) CommitMessage(*kafka.Message) ([]kafka.TopicPartition, error) {
	return nil, nil
}

func (c *queueConsumer) Commit() ([]kafka.TopicPartition, error) { return nil, nil }

func (c *queueConsumer) GetMetadata(*string, bool, int) (*kafka.Metadata, error) {
	return &kafka.Metadata{Topics: map[string]kafka.TopicMetadata{
		c.topic: {Topic: c.topic, Partitions: []kafka.PartitionMetadata{{ID: 0}}},
	}}, nil
}

func (c *queueConsumer) Close() error { return nil }

type memoryStore struct {
	mu      sync.Mutex
	vectors map[string][]float32
}

func (s *memoryStore) Upsert(_ context.Context, vectorID string, vector []float32, _ map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[vectorID] = vector
	return nil
}

func (s *memoryStore) Exists(_ context.Context, vectorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.vectors[vectorID]
	return ok, nil
}

func (s *memoryStore) Delete(_ context.Context, vectorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vectors, vectorID)
	return nil
}

func (s *memoryStore) Query(context.Context, []float32, int) ([]feed.Match, error) {
	return nil, nil
}

type published struct {
	topic   string
	message map[string]any
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *recordingPublisher) PublishE(_ context.Context, topic string, message map[string]any, _ ...producer.PublishOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{topic: topic, message: message})
	return nil
}

func (p *recordingPublisher) snapshot() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.sent...)
}

type staticCharacters struct{}

func (staticCharacters) GetCharacter(context.Context, int64) (feed.Character, error) {
	return feed.Character{"name": "Kamina"}, nil
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (staticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func newListener(t *testing.T, registry schemaregistry.Registry, name, topic string, values ...[]byte) *consumer.Listener {
	t.Helper()
	qc := &queueConsumer{topic: topic}
	for i, v := range values {
		tp := topic
		qc.queue = append(qc.queue, &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &tp, Partition: 0, Offset: kafka.Offset(i)},
			Value:          v,
		})
	}

	l := consumer.NewListener(config.Config{Brokers: "localhost:9092"},
		config.ConsumerConfig{Name: name, Topic: topic, GroupID: name + "-consumer-group", AutoOffsetReset: "earliest"},
		registry, zap.NewNop(),
		consumer.WithConsumerFactory(func(*kafka.ConfigMap) (consumer.Consumer, error) { return qc, nil }),
		consumer.WithPollTimeout(10*time.Millisecond),
	)
	t.Cleanup(l.Close)
	return l
}

func encode(t *testing.T, registry schemaregistry.Registry, topic string, record map[string]any) []byte {
	t.Helper()
	value, err := avro.NewSerializer(registry, topic+"-value", feed.MemorialAvroSchema).Encode(context.Background(), record)
	require.NoError(t, err)
	return value
}

func TestFeed_Run(t *testing.T) {
	// Arrange
	registry, err := schemaregistry.NewMockRegistry("mock://"+uuid.NewString(), zap.NewNop())
	require.NoError(t, err)

	request := map[string]any{"memorialId": int64(42), "writerId": "writer-1", "content": "row row", "characterId": int64(7)}
	listeners := consumer.Listeners{
		VectorizingListener: newListener(t, registry, VectorizingListener, feed.TopicVectorizingRequest,
			encode(t, registry, feed.TopicVectorizingRequest, request),
		),
		DeleteListener: newListener(t, registry, DeleteListener, feed.TopicDeleteRequest,
			encode(t, registry, feed.TopicDeleteRequest, map[string]any{"memorialId": int64(9), "writerId": "w", "content": "c", "characterId": int64(1)}),
		),
	}

	store := &memoryStore{vectors: map[string][]float32{"memorial-9": {0, 1}}}
	publisher := &recordingPublisher{}
	app, err := NewFeed(listeners,
		feed.NewVectorizingService(staticCharacters{}, staticEmbedder{}, store, publisher),
		feed.NewDeleteService(store, publisher),
		zap.NewNop(),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- app.Run(ctx) }()
	require.Eventually(t, func() bool { return len(publisher.snapshot()) == 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	// Assert
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop after cancel")
	}

	topics := map[string]map[string]any{}
	for _, p := range publisher.snapshot() {
		topics[p.topic] = p.message
	}
	require.Contains(t, topics, feed.TopicVectorizingResponse)
	require.Contains(t, topics, feed.TopicDeleteResponse)
	assert.Equal(t, "CREATE", topics[feed.TopicVectorizingResponse]["actionType"])
	assert.Equal(t, int64(9), topics[feed.TopicDeleteResponse]["memorialId"])

	assert.Contains(t, store.vectors, "memorial-42")
	assert.NotContains(t, store.vectors, "memorial-9")
}

func TestNewFeed_MissingListener(t *testing.T) {
	registry, err := schemaregistry.NewMockRegistry("mock://"+uuid.NewString(), zap.NewNop())
	require.NoError(t, err)
	listeners := consumer.Listeners{
		VectorizingListener: newListener(t, registry, VectorizingListener, feed.TopicVectorizingRequest),
	}

	_, err = NewFeed(listeners, &feed.VectorizingService{}, &feed.DeleteService{}, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), DeleteListener)
}
