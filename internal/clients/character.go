package clients

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/logger"
	httpclient "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/http/client"
)

// CharacterClient reads characters from the anime API.
type CharacterClient struct {
	http     *http.Client
	baseURL  string
	attempts uint64
}

// NewCharacterClient creates a client for the character API at cfg.BaseURL.
func NewCharacterClient(c *http.Client, cfg httpclient.ClientConfig) *CharacterClient {
	return &CharacterClient{http: c, baseURL: cfg.BaseURL, attempts: lo.FromPtrOr(cfg.MaxAttempts, 1)}
}

// GetCharacter calls GET /animes/characters/{id}. An empty data envelope
// yields feed.ErrCharacterNotFound.
func (c *CharacterClient) GetCharacter(ctx context.Context, characterID int64) (feed.Character, error) {
	var resp envelope[feed.Character]
	err := httpclient.DoJSON(ctx, c.http, c.baseURL, httpclient.Request{
		Method:   http.MethodGet,
		Path:     "/animes/characters/" + strconv.FormatInt(characterID, 10),
		Attempts: c.attempts,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character %d: %w", characterID, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("character %d: %w", characterID, feed.ErrCharacterNotFound)
	}

	logger.FromContext(ctx).Debug("fetched character",
		zap.Int64("character-id", characterID),
		zap.Any("name", resp.Data["name"]),
	)
	return resp.Data, nil
}

// envelope is the {"data": ...} wrapper used by the windeath44 APIs.
type envelope[T any] struct {
	Data T `json:"data"`
}
