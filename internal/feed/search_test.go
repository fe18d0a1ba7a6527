package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type searchFixture struct {
	memorials *MockMemorialFetcher
	embedder  *MockEmbedder
	store     *MockVectorStore
	service   *SearchService
}

func newSearchFixture() *searchFixture {
	f := &searchFixture{
		memorials: new(MockMemorialFetcher),
		embedder:  new(MockEmbedder),
		store:     new(MockVectorStore),
	}
	f.service = NewSearchService(f.memorials, f.embedder, f.store)
	return f
}

func TestSearchService_Search(t *testing.T) {
	// Arrange
	f := newSearchFixture()
	ctx := context.Background()
	memorials := []Memorial{
		{MemorialID: 1, Content: "first"},
		{MemorialID: 2},
		{MemorialID: 3, Name: "third"},
	}
	matches := []Match{{ID: "p-1", Score: 0.9, Metadata: map[string]any{"memorialId": int64(9)}}}

	f.memorials.On("RecentMemorialIDs", ctx, "user-1", 14).Return([]int64{1, 2, 1, 3, 2}, nil)
	f.memorials.On("GetMemorials", ctx, []int64{1, 2, 3}).Return(memorials, nil)
	f.embedder.On("EmbedBatch", ctx, []string{"Content: first", "Name: third"}).Return([][]float32{{1, 0}, {0, 1}}, nil)
	f.store.On("Query", ctx, []float32{0.5, 0.5}, 5).Return(matches, nil)

	// Act
	result, err := f.service.Search(ctx, "user-1", 14, 5)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-1", result.UserID)
	assert.Equal(t, memorials, result.RecentMemorials)
	assert.Equal(t, matches, result.Matches)
	f.memorials.AssertExpectations(t)
	f.embedder.AssertExpectations(t)
	f.store.AssertExpectations(t)
}

func TestSearchService_Search_ClampsArguments(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		topK     int
		wantDays int
	}{
		{name: "defaults", days: 0, topK: 0, wantDays: DefaultSearchDays},
		{name: "upper bounds", days: 365, topK: 1000, wantDays: MaxSearchDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSearchFixture()
			f.memorials.On("RecentMemorialIDs", mock.Anything, "user-1", tt.wantDays).Return([]int64{}, nil)

			result, err := f.service.Search(context.Background(), "user-1", tt.days, tt.topK)

			require.NoError(t, err)
			assert.Empty(t, result.Matches)
			f.memorials.AssertExpectations(t)
		})
	}

	t.Run("topK", func(t *testing.T) {
		f := newSearchFixture()
		f.memorials.On("RecentMemorialIDs", mock.Anything, mock.Anything, mock.Anything).Return([]int64{1}, nil)
		f.memorials.On("GetMemorials", mock.Anything, mock.Anything).Return([]Memorial{{MemorialID: 1, Content: "c"}}, nil)
		f.embedder.On("EmbedBatch", mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
		f.store.On("Query", mock.Anything, mock.Anything, MaxTopK).Return([]Match{}, nil)

		_, err := f.service.Search(context.Background(), "user-1", 1, 500)

		require.NoError(t, err)
		f.store.AssertExpectations(t)
	})
}

func TestSearchService_Search_EmptyResults(t *testing.T) {
	t.Run("no memorial data", func(t *testing.T) {
		f := newSearchFixture()
		f.memorials.On("RecentMemorialIDs", mock.Anything, "user-1", 7).Return([]int64{1}, nil)
		f.memorials.On("GetMemorials", mock.Anything, []int64{1}).Return([]Memorial{}, nil)

		result, err := f.service.Search(context.Background(), "user-1", 7, 10)

		require.NoError(t, err)
		assert.Empty(t, result.RecentMemorials)
		assert.Empty(t, result.Matches)
		f.embedder.AssertNotCalled(t, "EmbedBatch", mock.Anything, mock.Anything)
	})

	t.Run("nothing to embed", func(t *testing.T) {
		f := newSearchFixture()
		f.memorials.On("RecentMemorialIDs", mock.Anything, "user-1", 7).Return([]int64{1}, nil)
		f.memorials.On("GetMemorials", mock.Anything, []int64{1}).Return([]Memorial{{MemorialID: 1}}, nil)

		result, err := f.service.Search(context.Background(), "user-1", 7, 10)

		require.NoError(t, err)
		assert.Len(t, result.RecentMemorials, 1)
		assert.Empty(t, result.Matches)
		f.store.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSearchService_Search_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		setup  func(f *searchFixture)
		wantOp string
	}{
		{
			name: "recent ids",
			setup: func(f *searchFixture) {
				f.memorials.On("RecentMemorialIDs", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
			},
			wantOp: "fetch recent memorials",
		},
		{
			name: "memorials",
			setup: func(f *searchFixture) {
				f.memorials.On("RecentMemorialIDs", mock.Anything, mock.Anything, mock.Anything).Return([]int64{1}, nil)
				f.memorials.On("GetMemorials", mock.Anything, mock.Anything).Return(nil, boom)
			},
			wantOp: "fetch memorials",
		},
		{
			name: "embedding",
			setup: func(f *searchFixture) {
				f.memorials.On("RecentMemorialIDs", mock.Anything, mock.Anything, mock.Anything).Return([]int64{1}, nil)
				f.memorials.On("GetMemorials", mock.Anything, mock.Anything).Return([]Memorial{{MemorialID: 1, Content: "c"}}, nil)
				f.embedder.On("EmbedBatch", mock.Anything, mock.Anything).Return(nil, boom)
			},
			wantOp: "embed memorials",
		},
		{
			name: "empty embeddings",
			setup: func(f *searchFixture) {
				f.memorials.On("RecentMemorialIDs", mock.Anything, mock.Anything, mock.Anything).Return([]int64{1}, nil)
				f.memorials.On("GetMemorials", mock.Anything, mock.Anything).Return([]Memorial{{MemorialID: 1, Content: "c"}}, nil)
				f.embedder.On("EmbedBatch", mock.Anything, mock.Anything).Return([][]float32{}, nil)
			},
			wantOp: "average embeddings",
		},
		{
			name: "query",
			setup: func(f *searchFixture) {
				f.memorials.On("RecentMemorialIDs", mock.Anything, mock.Anything, mock.Anything).Return([]int64{1}, nil)
				f.memorials.On("GetMemorials", mock.Anything, mock.Anything).Return([]Memorial{{MemorialID: 1, Content: "c"}}, nil)
				f.embedder.On("EmbedBatch", mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
				f.store.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
			},
			wantOp: "query vectors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newSearchFixture()
			tt.setup(f)

			// Act
			_, err := f.service.Search(context.Background(), "user-1", 7, 10)

			// Assert
			var searchErr *SearchError
			require.ErrorAs(t, err, &searchErr)
			assert.Equal(t, tt.wantOp, searchErr.Op)
			assert.Equal(t, "user-1", searchErr.UserID)
			if tt.wantOp != "average embeddings" {
				assert.ErrorIs(t, err, boom)
			} else {
				assert.ErrorIs(t, err, ErrEmptyEmbeddings)
			}
		})
	}
}
