package feed

import (
	"context"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/producer"
)

// CharacterFetcher reads character documents from the anime API.
type CharacterFetcher interface {
	GetCharacter(ctx context.Context, characterID int64) (Character, error)
}

// MemorialFetcher reads memorials and visit history from the memorial API.
type MemorialFetcher interface {
	RecentMemorialIDs(ctx context.Context, userID string, days int) ([]int64, error)
	GetMemorials(ctx context.Context, ids []int64) ([]Memorial, error)
}

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists memorial vectors keyed by vector id.
type VectorStore interface {
	Upsert(ctx context.Context, vectorID string, vector []float32, metadata map[string]any) error
	Exists(ctx context.Context, vectorID string) (bool, error)
	Delete(ctx context.Context, vectorID string) error
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

// EventPublisher publishes Avro response events.
type EventPublisher interface {
	PublishE(ctx context.Context, topic string, message map[string]any, opts ...producer.PublishOption) error
}
