package feed

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/producer"
)

type MockCharacterFetcher struct {
	mock.Mock
}

func (m *MockCharacterFetcher) GetCharacter(ctx context.Context, characterID int64) (Character, error) {
	args := m.Called(ctx, characterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Character), args.Error(1)
}

type MockMemorialFetcher struct {
	mock.Mock
}

func (m *MockMemorialFetcher) RecentMemorialIDs(ctx context.Context, userID string, days int) ([]int64, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockMemorialFetcher) GetMemorials(ctx context.Context, ids []int64) ([]Memorial, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Memorial), args.Error(1)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) Upsert(ctx context.Context, vectorID string, vector []float32, metadata map[string]any) error {
	return m.Called(ctx, vectorID, vector, metadata).Error(0)
}

func (m *MockVectorStore) Exists(ctx context.Context, vectorID string) (bool, error) {
	args := m.Called(ctx, vectorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVectorStore) Delete(ctx context.Context, vectorID string) error {
	return m.Called(ctx, vectorID).Error(0)
}

func (m *MockVectorStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	args := m.Called(ctx, vector, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Match), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishE(ctx context.Context, topic string, message map[string]any, opts ...producer.PublishOption) error {
	return m.Called(ctx, topic, message, opts).Error(0)
}
