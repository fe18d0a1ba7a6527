package embedding

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/samber/lo"

	httpclient "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/http/client"
)

// Embedder calls an OpenAI-compatible POST /embeddings endpoint.
type Embedder struct {
	http     *http.Client
	baseURL  string
	token    string
	model    string
	attempts uint64
}

// NewEmbedder expects cfg to have defaults applied.
func NewEmbedder(c *http.Client, cfg Config) *Embedder {
	return &Embedder{
		http:     c,
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		model:    cfg.Model,
		attempts: lo.FromPtrOr(cfg.MaxAttempts, 1),
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

// Embed returns the vector of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per text, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp embeddingResponse
	err := httpclient.DoJSON(ctx, e.http, e.baseURL, httpclient.Request{
		Method:   http.MethodPost,
		Path:     "/embeddings",
		Header:   http.Header{"Authorization": {"Bearer " + e.token}},
		Body:     embeddingRequest{Model: e.model, Input: texts},
		Attempts: e.attempts,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d texts with %s: %w", len(texts), e.model, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d texts", len(resp.Data), len(texts))
	}

	slices.SortFunc(resp.Data, func(a, b embeddingData) int {
		return a.Index - b.Index
	})
	return lo.Map(resp.Data, func(d embeddingData, _ int) []float32 {
		return d.Embedding
	}), nil
}
