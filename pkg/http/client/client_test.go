package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfig_applyDefaults(t *testing.T) {
	t.Run("nil values get defaults", func(t *testing.T) {
		cfg := ClientConfig{BaseURL: "http://example.com"}

		cfg.applyDefaults()

		assert.Equal(t, DefaultTimeout, *cfg.Timeout)
		assert.Equal(t, DefaultMaxIdleConnsPerHost, *cfg.MaxIdleConnsPerHost)
		assert.Equal(t, DefaultIdleConnTimeout, *cfg.IdleConnTimeout)
		assert.Equal(t, DefaultMaxConnLifetime, *cfg.MaxConnLifetime)
		assert.Equal(t, uint64(3), *cfg.MaxAttempts)
	})

	t.Run("custom values preserved", func(t *testing.T) {
		cfg := ClientConfig{
			Timeout:     lo.ToPtr(30 * time.Second),
			MaxAttempts: lo.ToPtr(uint64(1)),
		}

		cfg.applyDefaults()

		assert.Equal(t, 30*time.Second, *cfg.Timeout)
		assert.Equal(t, uint64(1), *cfg.MaxAttempts)
	})

	t.Run("explicit zero durations preserved", func(t *testing.T) {
		cfg := ClientConfig{Timeout: lo.ToPtr(time.Duration(0)), MaxConnLifetime: lo.ToPtr(time.Duration(0))}

		cfg.applyDefaults()

		assert.Equal(t, time.Duration(0), *cfg.Timeout)
		assert.Equal(t, time.Duration(0), *cfg.MaxConnLifetime)
	})
}

func TestNew(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		c := New(ClientConfig{})

		assert.Equal(t, DefaultTimeout, c.Timeout)
		rt, ok := c.Transport.(*retryTransport)
		require.True(t, ok)
		assert.Equal(t, MaxRetriesCap, rt.maxRetries)
	})

	t.Run("retries bounded by pool size", func(t *testing.T) {
		c := New(ClientConfig{MaxIdleConnsPerHost: lo.ToPtr(2)})

		rt, ok := c.Transport.(*retryTransport)
		require.True(t, ok)
		assert.Equal(t, 2, rt.maxRetries)
	})
}

func TestProvideHTTPClient(t *testing.T) {
	t.Run("creates client from valid config", func(t *testing.T) {
		v := viper.New()
		v.Set("clients.character-api.base-url", "http://anime:8080")
		v.Set("clients.character-api.timeout", "5s")

		c, cfg, err := ProvideHTTPClient("character-api")(v)

		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "http://anime:8080", cfg.BaseURL)
		assert.Equal(t, 5*time.Second, *cfg.Timeout)
		assert.Equal(t, DefaultMaxConnLifetime, *cfg.MaxConnLifetime)
	})

	t.Run("missing base url", func(t *testing.T) {
		_, _, err := ProvideHTTPClient("absent")(viper.New())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "base-url is required")
	})
}

func TestTimedConn(t *testing.T) {
	t.Run("reads while fresh", func(t *testing.T) {
		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()
		tc := &timedConn{Conn: client, createdAt: time.Now(), maxLifetime: time.Hour}

		go func() { _, _ = server.Write([]byte("hello")) }()

		buf := make([]byte, 5)
		n, err := tc.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(buf[:n]))
	})

	t.Run("expired read and write", func(t *testing.T) {
		server, client := net.Pipe()
		defer server.Close()
		tc := &timedConn{Conn: client, createdAt: time.Now().Add(-2 * time.Hour), maxLifetime: time.Hour}

		_, err := tc.Read(make([]byte, 1))
		assert.ErrorIs(t, err, ErrConnExpired)
		_, err = tc.Write([]byte("x"))
		assert.ErrorIs(t, err, ErrConnExpired)
	})
}

type mockRoundTripper struct {
	errors []error
	calls  int
}

func (m *mockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	idx := m.calls
	m.calls++
	if idx < len(m.errors) && m.errors[idx] != nil {
		return nil, m.errors[idx]
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestRetryTransport_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		errors     []error
		maxRetries int
		wantCalls  int
		wantErr    bool
	}{
		{name: "success without retry", maxRetries: 3, wantCalls: 1},
		{name: "retries connection refused", errors: []error{syscall.ECONNREFUSED, syscall.ECONNREFUSED}, maxRetries: 3, wantCalls: 3},
		{name: "retries EOF", errors: []error{io.EOF}, maxRetries: 3, wantCalls: 2},
		{name: "non-retryable error", errors: []error{errors.New("boom")}, maxRetries: 3, wantCalls: 1, wantErr: true},
		{name: "final attempt after exhausting retries", errors: []error{syscall.ECONNRESET, syscall.ECONNRESET, syscall.ECONNRESET}, maxRetries: 1, wantCalls: 3, wantErr: true},
		{name: "expired connections are not counted", errors: []error{ErrConnExpired, ErrConnExpired}, maxRetries: 0, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRoundTripper{errors: tt.errors}
			rt := &retryTransport{base: mock, transport: &http.Transport{}, maxRetries: tt.maxRetries}

			resp, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "http://example.com", nil))

			assert.Equal(t, tt.wantCalls, mock.calls)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(syscall.ECONNREFUSED))
	assert.True(t, isRetryableError(syscall.EPIPE))
	assert.True(t, isRetryableError(io.ErrUnexpectedEOF))
	assert.True(t, isRetryableError(net.ErrClosed))
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(errors.New("custom")))
}

func TestDoJSON(t *testing.T) {
	t.Run("decodes body and forwards headers and query", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/memorials/tracing/recent", r.URL.Path)
			assert.Equal(t, "7", r.URL.Query().Get("day"))
			assert.Equal(t, "user-1", r.Header.Get("user-id"))
			_, _ = w.Write([]byte(`{"data":[1,2]}`))
		}))
		defer server.Close()

		var out struct {
			Data []int `json:"data"`
		}
		err := DoJSON(context.Background(), New(ClientConfig{}), server.URL+"/", Request{
			Method: http.MethodGet,
			Path:   "/memorials/tracing/recent",
			Query:  map[string][]string{"day": {"7"}},
			Header: http.Header{"user-id": {"user-1"}},
		}, &out)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, out.Data)
	})

	t.Run("retries 5xx then succeeds", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		err := DoJSON(context.Background(), New(ClientConfig{}), server.URL, Request{Method: http.MethodGet, Path: "/", Attempts: 3}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("4xx is permanent", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.Error(w, "nope", http.StatusNotFound)
		}))
		defer server.Close()

		err := DoJSON(context.Background(), New(ClientConfig{}), server.URL, Request{Method: http.MethodGet, Path: "/x", Attempts: 3}, nil)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.Equal(t, 1, calls)
	})
}
