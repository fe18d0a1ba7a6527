package feed

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/logger"
)

// Search defaults and bounds for the look-back window and result size.
const (
	DefaultSearchDays = 7
	MaxSearchDays     = 30
	DefaultTopK       = 10
	MaxTopK           = 100
)

// SearchService builds a personalized feed from the memorials a user visited recently.
type SearchService struct {
	memorials MemorialFetcher
	embedder  Embedder
	store     VectorStore
}

// NewSearchService creates a SearchService.
func NewSearchService(memorials MemorialFetcher, embedder Embedder, store VectorStore) *SearchService {
	return &SearchService{memorials: memorials, embedder: embedder, store: store}
}

// Search averages the embeddings of recently visited memorials and returns the
// topK nearest stored memorials. Out-of-range days and topK are clamped.
func (s *SearchService) Search(ctx context.Context, userID string, days, topK int) (SearchResult, error) {
	days = clamp(days, DefaultSearchDays, MaxSearchDays)
	topK = clamp(topK, DefaultTopK, MaxTopK)
	log := logger.FromContext(ctx).With(zap.String("user-id", userID))
	result := SearchResult{UserID: userID, RecentMemorials: []Memorial{}, Matches: []Match{}}

	visited, err := s.memorials.RecentMemorialIDs(ctx, userID, days)
	if err != nil {
		return result, &SearchError{UserID: userID, Op: "fetch recent memorials", Err: err}
	}
	ids := lo.Uniq(visited)
	if len(ids) == 0 {
		log.Info("no recent memorial visits")
		return result, nil
	}

	memorials, err := s.memorials.GetMemorials(ctx, ids)
	if err != nil {
		return result, &SearchError{UserID: userID, Op: "fetch memorials", Err: err}
	}
	if len(memorials) == 0 {
		log.Warn("no memorial data found for visited ids", zap.Int64s("memorial-ids", ids))
		return result, nil
	}
	result.RecentMemorials = memorials

	texts := lo.FilterMap(memorials, func(m Memorial, _ int) (string, bool) {
		text := m.SearchText()
		return text, text != ""
	})
	if len(texts) == 0 {
		log.Warn("no memorial text to embed")
		return result, nil
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return result, &SearchError{UserID: userID, Op: "embed memorials", Err: err}
	}
	query, err := AverageEmbeddings(embeddings)
	if err != nil {
		return result, &SearchError{UserID: userID, Op: "average embeddings", Err: err}
	}

	matches, err := s.store.Query(ctx, query, topK)
	if err != nil {
		return result, &SearchError{UserID: userID, Op: "query vectors", Err: err}
	}
	result.Matches = matches

	log.Info("feed search completed",
		zap.Int("recent-memorials", len(memorials)),
		zap.Int("matches", len(matches)),
	)
	return result, nil
}

// AverageEmbeddings returns the element-wise mean. The dimension of the first
// embedding wins; longer vectors are truncated and shorter ones contribute zeros.
func AverageEmbeddings(embeddings [][]float32) ([]float32, error) {
	if len(embeddings) == 0 {
		return nil, ErrEmptyEmbeddings
	}

	avg := make([]float32, len(embeddings[0]))
	for _, embedding := range embeddings {
		for i := range min(len(avg), len(embedding)) {
			avg[i] += embedding[i]
		}
	}
	n := float32(len(embeddings))
	for i := range avg {
		avg[i] /= n
	}
	return avg, nil
}

func clamp(v, fallback, maximum int) int {
	if v < 1 {
		return fallback
	}
	return min(v, maximum)
}
