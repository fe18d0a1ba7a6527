package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v4"
)

// StatusError is a non-2xx response from a JSON endpoint.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Request describes one JSON call relative to a base URL.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Header   http.Header
	Body     any
	Attempts uint64
}

// DoJSON sends req and decodes the JSON response into out (skipped when out is nil).
// 5xx responses and transport errors are retried with exponential backoff up to
// req.Attempts times; 4xx responses fail immediately.
func DoJSON(ctx context.Context, c *http.Client, baseURL string, req Request, out any) error {
	target := strings.TrimRight(baseURL, "/") + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var payload []byte
	if req.Body != nil {
		var err error
		if payload, err = json.Marshal(req.Body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	attempts := max(req.Attempts, 1)
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), attempts-1), ctx)

	return backoff.Retry(func() error {
		return doOnce(ctx, c, req, target, payload, out)
	}, policy)
}

func doOnce(ctx context.Context, c *http.Client, req Request, target string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return backoff.Permanent(err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Method: req.Method, URL: target, StatusCode: resp.StatusCode, Body: string(raw)}
		if resp.StatusCode >= 500 {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return backoff.Permanent(fmt.Errorf("failed to decode response from %s: %w", target, err))
	}
	return nil
}
