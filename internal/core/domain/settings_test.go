package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "hashing is valid", provider: AIProviderHashing, expected: true},
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "gemini is valid", provider: AIProviderGemini, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "empty string is invalid", provider: AIProvider(""), expected: false},
		{name: "cohere is invalid", provider: AIProvider("cohere"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.False(t, AIProviderHashing.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}

func TestAIProvider_SupportsEmbeddings(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.True(t, p.SupportsEmbeddings(), p)
	}
	assert.False(t, AIProviderAnthropic.SupportsEmbeddings())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Gemini (cloud)", AIProviderGemini.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestStoreBackend_IsValid(t *testing.T) {
	for _, b := range []StoreBackend{StoreBackendMemory, StoreBackendSQLite, StoreBackendPgvector, StoreBackendPinecone} {
		assert.True(t, b.IsValid(), b)
	}
	assert.False(t, StoreBackend("chroma").IsValid())
}

func TestHistoryBackend_IsValid(t *testing.T) {
	for _, b := range []HistoryBackend{HistoryBackendMemory, HistoryBackendSQLite, HistoryBackendRedis, HistoryBackendMongo} {
		assert.True(t, b.IsValid(), b)
	}
	assert.False(t, HistoryBackend("file").IsValid())
}

func TestChunkingSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ChunkingSettings
		wantErr bool
	}{
		{name: "defaults", cfg: ChunkingSettings{Size: 1000, Overlap: 200}},
		{name: "zero overlap", cfg: ChunkingSettings{Size: 10, Overlap: 0}},
		{name: "overlap one below size", cfg: ChunkingSettings{Size: 10, Overlap: 9}},
		{name: "overlap equals size", cfg: ChunkingSettings{Size: 10, Overlap: 10}, wantErr: true},
		{name: "overlap above size", cfg: ChunkingSettings{Size: 10, Overlap: 20}, wantErr: true},
		{name: "negative overlap", cfg: ChunkingSettings{Size: 10, Overlap: -1}, wantErr: true},
		{name: "zero size", cfg: ChunkingSettings{Size: 0, Overlap: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderHashing}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderHashing}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderGemini}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderGemini, APIKey: "k"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	require.NoError(t, s.Chunking.Validate())
	assert.Equal(t, 1000, s.Chunking.Size)
	assert.Equal(t, 200, s.Chunking.Overlap)
	assert.Equal(t, AIProviderHashing, s.Embedding.Provider)
	assert.Equal(t, StoreBackendMemory, s.Store.Backend)
	assert.Equal(t, HistoryBackendMemory, s.History.Backend)
	assert.Equal(t, 60*time.Second, s.Store.Timeout)
	assert.Equal(t, DefaultTopK, s.RetrievalK)
	assert.Equal(t, DocxModeBody, s.Loader.DocxMode)
	assert.False(t, s.LLM.IsConfigured())
}

func TestDefaultModels_HaveDimensions(t *testing.T) {
	dims := EmbeddingDimensions()
	for provider, model := range DefaultEmbeddingModels() {
		assert.NotZero(t, dims[model], "provider %s model %s", provider, model)
	}
}
