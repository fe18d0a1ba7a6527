package feed

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/logger"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/producer"
)

// DeleteService removes memorial vectors and announces the removal on
// memorial-vector-delete-response.
type DeleteService struct {
	store     VectorStore
	publisher EventPublisher
}

// NewDeleteService creates a DeleteService.
func NewDeleteService(store VectorStore, publisher EventPublisher) *DeleteService {
	return &DeleteService{store: store, publisher: publisher}
}

// Handle processes one memorial-vector-delete-request record.
func (s *DeleteService) Handle(ctx context.Context, record map[string]any) error {
	event, err := ParseMemorialEvent(record)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx).With(zap.Int64("memorial-id", event.MemorialID))
	vectorID := VectorID(event.MemorialID)

	if err := s.store.Delete(ctx, vectorID); err != nil {
		return &StepError{Step: "delete vector", MemorialID: event.MemorialID, Err: err}
	}
	log.Info("memorial vector deleted", zap.String("vector-id", vectorID))

	response := DeleteResponse(event)
	err = s.publisher.PublishE(ctx, TopicDeleteResponse, response.Record(),
		producer.WithKey(strconv.FormatInt(event.MemorialID, 10)),
		producer.WithSchema(MemorialAvroSchema),
	)
	if err != nil {
		return &StepError{Step: "publish response", MemorialID: event.MemorialID, Err: err}
	}
	return nil
}
