package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/logger"
	httpclient "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/http/client"
)

// MemorialClient reads memorials and visit history from the memorial API.
type MemorialClient struct {
	http     *http.Client
	baseURL  string
	attempts uint64
}

// NewMemorialClient creates a client for the memorial API at cfg.BaseURL.
func NewMemorialClient(c *http.Client, cfg httpclient.ClientConfig) *MemorialClient {
	return &MemorialClient{http: c, baseURL: cfg.BaseURL, attempts: lo.FromPtrOr(cfg.MaxAttempts, 1)}
}

type visitRecord struct {
	MemorialID *int64 `json:"memorialId"`
}

// RecentMemorialIDs returns the memorial ids the user visited in the last days,
// in visit order. Duplicates are kept.
func (c *MemorialClient) RecentMemorialIDs(ctx context.Context, userID string, days int) ([]int64, error) {
	var resp envelope[[]visitRecord]
	err := httpclient.DoJSON(ctx, c.http, c.baseURL, httpclient.Request{
		Method:   http.MethodGet,
		Path:     "/memorials/tracing/recent",
		Query:    url.Values{"day": {strconv.Itoa(days)}},
		Header:   http.Header{"user-id": {userID}},
		Attempts: c.attempts,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent memorials for user %s: %w", userID, err)
	}

	log := logger.FromContext(ctx)
	ids := make([]int64, 0, len(resp.Data))
	for _, record := range resp.Data {
		if record.MemorialID == nil {
			log.Warn("visit record without memorialId", zap.String("user-id", userID))
			continue
		}
		ids = append(ids, *record.MemorialID)
	}
	return ids, nil
}

// GetMemorials fetches each memorial by id. Memorials the API no longer knows
// are skipped; any other failure aborts the batch.
func (c *MemorialClient) GetMemorials(ctx context.Context, ids []int64) ([]feed.Memorial, error) {
	memorials := make([]feed.Memorial, 0, len(ids))
	for _, id := range ids {
		var resp envelope[*feed.Memorial]
		err := httpclient.DoJSON(ctx, c.http, c.baseURL, httpclient.Request{
			Method:   http.MethodGet,
			Path:     "/memorials/" + strconv.FormatInt(id, 10),
			Attempts: c.attempts,
		}, &resp)

		var statusErr *httpclient.StatusError
		switch {
		case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
			logger.FromContext(ctx).Warn("memorial not found", zap.Int64("memorial-id", id))
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to fetch memorial %d: %w", id, err)
		case resp.Data == nil:
			continue
		}

		memorial := *resp.Data
		if memorial.MemorialID == 0 {
			memorial.MemorialID = id
		}
		memorials = append(memorials, memorial)
	}
	return memorials, nil
}
