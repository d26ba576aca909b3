package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantNil   bool
		wantErr   bool
		wantModel string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{name: "openai without key", settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, wantNil: true},
		{
			name:      "hashing",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderHashing},
			wantModel: "hashing-384",
		},
		{
			name:      "ollama",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
			wantModel: "nomic-embed-text",
		},
		{
			name:      "openai",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
			wantModel: "text-embedding-3-small",
		},
		{
			name:      "gemini",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "k", Model: "text-embedding-004"},
			wantModel: "text-embedding-004",
		},
		{
			name:     "anthropic is rejected",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestCreateEmbeddingService_Dimensions(t *testing.T) {
	svc, err := CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "mxbai-embed-large",
	})
	require.NoError(t, err)
	assert.Equal(t, 1024, svc.Dimensions())

	svc, err = CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider:   domain.AIProviderHashing,
		Dimensions: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, 64, svc.Dimensions())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.LLMSettings{}, wantNil: true},
		{name: "hashing is not an LLM", settings: &domain.LLMSettings{Provider: domain.AIProviderHashing}, wantNil: true},
		{name: "ollama", settings: &domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"}},
		{name: "openai", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"}},
		{name: "gemini", settings: &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "k", Model: "gemini-2.5-flash"}},
		{name: "anthropic", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			defer svc.Close()
			assert.NotEmpty(t, svc.ModelName())
		})
	}
}

func TestCreateAndValidateEmbeddingService_Hashing(t *testing.T) {
	svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider:  domain.AIProviderHashing,
		CacheSize: 16,
		CacheTTL:  time.Minute,
	})
	require.NoError(t, err)
	defer svc.Close()

	vec, err := svc.Embed(context.Background(), "city,population")
	require.NoError(t, err)
	assert.Len(t, vec, 384)
}

func TestCreateAndValidateEmbeddingService_Unconfigured(t *testing.T) {
	_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestCreateAndValidateEmbeddingService_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestCreateAndValidateLLMService_NotConfigured(t *testing.T) {
	svc, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{})
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateAndValidateLLMService_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "bad",
		BaseURL:  server.URL,
	})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
