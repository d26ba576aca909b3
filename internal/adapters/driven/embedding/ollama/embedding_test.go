package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		assert.Len(t, req.Input, 2)

		_, _ = w.Write([]byte(`{"embeddings":[[0.5,0.5],[1,0]]}`))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.5}, {1, 0}}, vectors)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1]]}`))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := svc.EmbedBatch(context.Background(), []string{"x", "y"})
	assert.Error(t, err)
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`model not found`))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := svc.Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "model not found")
}

func TestPing_Unreachable(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	assert.Error(t, svc.Ping(context.Background()))
}

func TestNewEmbeddingService_KnownDimensions(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{model: "nomic-embed-text", want: 768},
		{model: "mxbai-embed-large:latest", want: 1024},
		{model: "custom-model", want: DefaultDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, NewEmbeddingService(Config{Model: tt.model}).Dimensions())
		})
	}

	assert.Equal(t, 512, NewEmbeddingService(Config{Model: "custom-model", Dimensions: 512}).Dimensions())
}

func TestEmbedBatch_LearnsDimensions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Model: "custom-model"})
	_, err := svc.Embed(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, 3, svc.Dimensions())
}

func TestPing_ModelCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"all-minilm:latest"}]}`))
	}))
	defer server.Close()

	assert.NoError(t, NewEmbeddingService(Config{BaseURL: server.URL}).Ping(context.Background()))

	err := NewEmbeddingService(Config{BaseURL: server.URL, Model: "nomic-embed-text"}).Ping(context.Background())
	assert.ErrorIs(t, err, ErrModelNotPulled)
}
