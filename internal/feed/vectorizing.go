package feed

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/logger"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/producer"
)

// VectorizingService embeds memorials together with their character and
// announces the stored vector on memorial-vectorizing-response.
type VectorizingService struct {
	characters CharacterFetcher
	embedder   Embedder
	store      VectorStore
	publisher  EventPublisher
	now        func() time.Time
}

// NewVectorizingService creates a VectorizingService.
func NewVectorizingService(characters CharacterFetcher, embedder Embedder, store VectorStore, publisher EventPublisher) *VectorizingService {
	return &VectorizingService{
		characters: characters,
		embedder:   embedder,
		store:      store,
		publisher:  publisher,
		now:        time.Now,
	}
}

// Handle processes one memorial-vectorizing-request record.
func (s *VectorizingService) Handle(ctx context.Context, record map[string]any) error {
	event, err := ParseMemorialEvent(record)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx).With(zap.Int64("memorial-id", event.MemorialID))
	vectorID := VectorID(event.MemorialID)

	action := s.actionFor(ctx, log, vectorID)

	character, err := s.characters.GetCharacter(ctx, event.CharacterID)
	if err != nil {
		return &StepError{Step: "fetch character " + strconv.FormatInt(event.CharacterID, 10), MemorialID: event.MemorialID, Err: err}
	}
	character = character.Filtered()

	vector, err := s.embedder.Embed(ctx, EmbeddingText(event.Content, character))
	if err != nil {
		return &StepError{Step: "embed", MemorialID: event.MemorialID, Err: err}
	}

	if err := s.store.Upsert(ctx, vectorID, vector, VectorMetadata(event, character)); err != nil {
		return &StepError{Step: "store vector", MemorialID: event.MemorialID, Err: err}
	}

	response := VectorizingResponse{
		ActionType:  action,
		MemorialID:  event.MemorialID,
		WriterID:    event.WriterID,
		Content:     event.Content,
		CharacterID: event.CharacterID,
		Timestamp:   s.now().UnixMilli(),
	}
	err = s.publisher.PublishE(ctx, TopicVectorizingResponse, response.Record(),
		producer.WithKey(strconv.FormatInt(event.MemorialID, 10)),
		producer.WithSchema(FeedAvroSchema),
	)
	if err != nil {
		return &StepError{Step: "publish response", MemorialID: event.MemorialID, Err: err}
	}

	log.Info("memorial vectorized", zap.String("action", string(action)), zap.Int("dimensions", len(vector)))
	return nil
}

// actionFor falls back to CREATE when the store cannot answer.
func (s *VectorizingService) actionFor(ctx context.Context, log *zap.Logger, vectorID string) ActionType {
	exists, err := s.store.Exists(ctx, vectorID)
	if err != nil {
		log.Warn("failed to determine action type, assuming CREATE", zap.Error(err))
		return ActionCreate
	}
	if exists {
		return ActionUpdate
	}
	return ActionCreate
}
