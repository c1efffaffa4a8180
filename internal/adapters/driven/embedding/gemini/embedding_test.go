package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewEmbeddingService(Config{})
		assert.Error(t, err)
	})

	t.Run("known model dimensions", func(t *testing.T) {
		s, err := NewEmbeddingService(Config{APIKey: "key", Model: "gemini-embedding-001"})
		require.NoError(t, err)
		assert.Equal(t, 3072, s.Dimensions())
	})

	t.Run("unknown model falls back to default dimensions", func(t *testing.T) {
		s, err := NewEmbeddingService(Config{APIKey: "key", Model: "future-model"})
		require.NoError(t, err)
		assert.Equal(t, 768, s.Dimensions())
	})
}

func TestEmbeddingService_Embed(t *testing.T) {
	var gotPath, gotKey string
	var got embedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"embedding": {"values": [0.1, 0.2, 0.3]}}`))
	}))
	defer server.Close()

	s, err := NewEmbeddingService(Config{APIKey: "secret", BaseURL: server.URL})
	require.NoError(t, err)

	vector, err := s.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/text-embedding-004:embedContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, got.Content.Parts, 1)
	assert.Equal(t, "hello world", got.Content.Parts[0].Text)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	var gotPath string
	var got batchEmbedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"embeddings": [{"values": [0.1]}, {"values": [0.2]}]}`))
	}))
	defer server.Close()

	s, err := NewEmbeddingService(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	vectors, err := s.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/text-embedding-004:batchEmbedContents", gotPath)
	require.Len(t, got.Requests, 2)
	// Batch entries carry the fully qualified model name.
	assert.Equal(t, "models/text-embedding-004", got.Requests[0].Model)
	assert.Equal(t, "first", got.Requests[0].Content.Parts[0].Text)

	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1}, vectors[0])
	assert.Equal(t, []float32{0.2}, vectors[1])
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	s, err := NewEmbeddingService(Config{APIKey: "key"})
	require.NoError(t, err)

	vectors, err := s.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbeddingService_EmbedBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"embeddings": [{"values": [0.1]}]}`))
	}))
	defer server.Close()

	s, err := NewEmbeddingService(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = s.EmbedBatch(context.Background(), []string{"first", "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 embeddings for 2 texts")
}

func TestEmbeddingService_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	s, err := NewEmbeddingService(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = s.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestEmbeddingService_Ping(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1beta/models/text-embedding-004", r.URL.Path)
			w.Write([]byte(`{"name": "models/text-embedding-004"}`))
		}))
		defer server.Close()

		s, err := NewEmbeddingService(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)
		assert.NoError(t, s.Ping(context.Background()))
	})

	t.Run("unauthorised", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": {"message": "forbidden"}}`))
		}))
		defer server.Close()

		s, err := NewEmbeddingService(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)
		assert.Error(t, s.Ping(context.Background()))
	})
}
