package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	httpclient "github.com/PARADOX-BSSM/windeath44.server.feed/pkg/http/client"
)

func newTestConfig(baseURL string) httpclient.ClientConfig {
	return httpclient.ClientConfig{BaseURL: baseURL, MaxAttempts: lo.ToPtr(uint64(1))}
}

func TestCharacterClient_GetCharacter(t *testing.T) {
	t.Run("returns data", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/animes/characters/7", r.URL.Path)
			_, _ = w.Write([]byte(`{"data":{"characterId":7,"name":"Kamina","imageUrl":"http://img"}}`))
		}))
		defer server.Close()
		client := NewCharacterClient(server.Client(), newTestConfig(server.URL))

		// Act
		character, err := client.GetCharacter(context.Background(), 7)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Kamina", character["name"])
		assert.Equal(t, float64(7), character["characterId"])
	})

	t.Run("empty data", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":null}`))
		}))
		defer server.Close()
		client := NewCharacterClient(server.Client(), newTestConfig(server.URL))

		_, err := client.GetCharacter(context.Background(), 7)

		assert.ErrorIs(t, err, feed.ErrCharacterNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()
		client := NewCharacterClient(server.Client(), newTestConfig(server.URL))

		_, err := client.GetCharacter(context.Background(), 7)

		var statusErr *httpclient.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	})
}

func TestMemorialClient_RecentMemorialIDs(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/memorials/tracing/recent", r.URL.Path)
		assert.Equal(t, "user-1", r.Header.Get("user-id"))
		assert.Equal(t, "14", r.URL.Query().Get("day"))
		_, _ = w.Write([]byte(`{"data":[{"memorialId":3},{"visitedAt":"x"},{"memorialId":1},{"memorialId":3}]}`))
	}))
	defer server.Close()
	client := NewMemorialClient(server.Client(), newTestConfig(server.URL))

	// Act
	ids, err := client.RecentMemorialIDs(context.Background(), "user-1", 14)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 3}, ids)
}

func TestMemorialClient_GetMemorials(t *testing.T) {
	t.Run("skips unknown memorials", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/memorials/1":
				_, _ = w.Write([]byte(`{"data":{"memorialId":1,"name":"Kamina","content":"row row","tags":["gurren"]}}`))
			case "/memorials/2":
				http.NotFound(w, r)
			case "/memorials/3":
				_, _ = w.Write([]byte(`{"data":{"content":"no id"}}`))
			}
		}))
		defer server.Close()
		client := NewMemorialClient(server.Client(), newTestConfig(server.URL))

		// Act
		memorials, err := client.GetMemorials(context.Background(), []int64{1, 2, 3})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []feed.Memorial{
			{MemorialID: 1, Name: "Kamina", Content: "row row", Tags: []string{"gurren"}},
			{MemorialID: 3, Content: "no id"},
		}, memorials)
	})

	t.Run("other failures abort", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "denied", http.StatusForbidden)
		}))
		defer server.Close()
		client := NewMemorialClient(server.Client(), newTestConfig(server.URL))

		_, err := client.GetMemorials(context.Background(), []int64{1})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "memorial 1")
	})
}

func TestNewClientsModule(t *testing.T) {
	v := viper.New()
	v.Set("clients.character-api.base-url", "http://anime:8080")
	v.Set("clients.memorial-api.base-url", "http://memorial:8080")

	var (
		characters feed.CharacterFetcher
		memorials  feed.MemorialFetcher
	)
	app := fxtest.New(t,
		fx.Supply(v),
		NewClientsModule(),
		fx.Populate(&characters, &memorials),
	)
	defer app.RequireStart().RequireStop()

	assert.IsType(t, &CharacterClient{}, characters)
	assert.IsType(t, &MemorialClient{}, memorials)
}
