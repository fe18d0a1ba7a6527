package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
)

// payloadVectorID keeps the logical id next to the UUID point id.
const payloadVectorID = "vectorId"

// pointsAPI is the part of *qdrant.Client the store uses.
type pointsAPI interface {
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Get(ctx context.Context, request *qdrant.GetPoints) ([]*qdrant.RetrievedPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	Close() error
}

// Store keeps memorial vectors in one qdrant collection. Vector ids such as
// "memorial-42" are mapped to UUID point ids with feed.PointID.
type Store struct {
	api        pointsAPI
	collection string
	vectorSize uint64
	log        *zap.Logger
}

// New dials qdrant. The gRPC connection is established lazily.
func New(cfg Config, log *zap.Logger) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   cfg.Port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return newStore(client, cfg, log), nil
}

func newStore(api pointsAPI, cfg Config, log *zap.Logger) *Store {
	return &Store{
		api:        api,
		collection: cfg.Collection,
		vectorSize: cfg.VectorSize,
		log:        log,
	}
}

// EnsureCollection checks connectivity and creates the collection with cosine
// distance when it is missing.
func (s *Store) EnsureCollection(ctx context.Context) error {
	reply, err := s.api.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}

	exists, err := s.api.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %q: %w", s.collection, err)
	}
	if exists {
		s.log.Info("vector collection ready", zap.String("collection", s.collection), zap.String("qdrant-version", reply.GetVersion()))
		return nil
	}

	err = s.api.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %w", s.collection, err)
	}
	s.log.Info("vector collection created", zap.String("collection", s.collection), zap.Uint64("vector-size", s.vectorSize))
	return nil
}

// Upsert stores vector under vectorID and waits for the write to apply.
func (s *Store) Upsert(ctx context.Context, vectorID string, vector []float32, metadata map[string]any) error {
	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	payload[payloadVectorID] = vectorID

	values, err := qdrant.TryValueMap(payload)
	if err != nil {
		return fmt.Errorf("failed to convert payload of %s: %w", vectorID, err)
	}

	_, err = s.api.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(feed.PointID(vectorID)),
			Vectors: qdrant.NewVectors(vector...),
			Payload: values,
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", vectorID, err)
	}
	return nil
}

// Exists reports whether vectorID has been stored.
func (s *Store) Exists(ctx context.Context, vectorID string) (bool, error) {
	points, err := s.api.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(feed.PointID(vectorID))},
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return false, fmt.Errorf("failed to fetch %s: %w", vectorID, err)
	}
	return len(points) > 0, nil
}

// Delete removes vectorID. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, vectorID string) error {
	_, err := s.api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(qdrant.NewID(feed.PointID(vectorID))),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", vectorID, err)
	}
	return nil
}

// Query returns the topK nearest vectors with their payload. Match ids are the
// logical vector ids when the payload carries one.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]feed.Match, error) {
	points, err := s.api.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.collection, err)
	}

	matches := make([]feed.Match, 0, len(points))
	for _, p := range points {
		metadata := payloadToMap(p.GetPayload())
		id, _ := metadata[payloadVectorID].(string)
		if id == "" {
			id = pointIDString(p.GetId())
		}
		delete(metadata, payloadVectorID)
		matches = append(matches, feed.Match{ID: id, Score: p.GetScore(), Metadata: metadata})
	}
	return matches, nil
}

// Close closes the qdrant connection.
func (s *Store) Close() error {
	return s.api.Close()
}

func pointIDString(id *qdrant.PointId) string {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	default:
		return ""
	}
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		items := make([]any, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			items = append(items, valueToAny(item))
		}
		return items
	default:
		return nil
	}
}
