package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderAnthropic is the Anthropic API. It serves chat only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI, AIProviderGemini, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if the provider can produce vectors.
func (p AIProvider) SupportsEmbeddings() bool {
	return p.IsValid() && p != AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (offline, no model)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud, chat only)"
	default:
		return unknownDescription
	}
}

// StoreBackend selects the vector store implementation.
type StoreBackend string

// Available vector store backends.
const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendSQLite   StoreBackend = "sqlite"
	StoreBackendPgvector StoreBackend = "pgvector"
	StoreBackendPinecone StoreBackend = "pinecone"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendMemory, StoreBackendSQLite, StoreBackendPgvector, StoreBackendPinecone:
		return true
	default:
		return false
	}
}

// HistoryBackend selects the conversation history implementation.
type HistoryBackend string

// Available history backends.
const (
	HistoryBackendMemory HistoryBackend = "memory"
	HistoryBackendSQLite HistoryBackend = "sqlite"
	HistoryBackendRedis  HistoryBackend = "redis"
	HistoryBackendMongo  HistoryBackend = "mongo"
)

// IsValid returns true if the backend is recognised.
func (b HistoryBackend) IsValid() bool {
	switch b {
	case HistoryBackendMemory, HistoryBackendSQLite, HistoryBackendRedis, HistoryBackendMongo:
		return true
	default:
		return false
	}
}

// DocxMode controls DOCX loader granularity.
type DocxMode string

// DOCX modes.
const (
	// DocxModeBody yields one document for the whole body.
	DocxModeBody DocxMode = "body"

	// DocxModeParagraph yields one document per non-empty paragraph.
	DocxModeParagraph DocxMode = "paragraph"
)

// IsValid returns true if the mode is recognised.
func (m DocxMode) IsValid() bool {
	return m == DocxModeBody || m == DocxModeParagraph
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// Validate checks the size/overlap relationship.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap (%d) must be less than chunk size (%d)", ErrConfig, c.Overlap, c.Size)
	}
	return nil
}

// LoaderSettings holds format loader options.
type LoaderSettings struct {
	// CSVHeader formats CSV rows as "column: value" lines using the first record as header.
	CSVHeader bool

	// DocxMode selects body or paragraph granularity.
	DocxMode DocxMode
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI and Gemini).
	APIKey string

	// Dimensions overrides the model's vector size. Zero uses the model default.
	Dimensions int

	// BatchSize is the number of texts per embedding request.
	BatchSize int

	// Concurrency is the number of embedding requests in flight during an add.
	Concurrency int

	// CacheSize is the number of query embeddings kept in memory. Zero disables the cache.
	CacheSize int

	// CacheTTL bounds how long a cached embedding is reused.
	CacheTTL time.Duration

	// RequestsPerSecond limits embedding calls. Zero means unlimited.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI, Gemini and Anthropic).
	APIKey string

	// MaxTokens caps the answer length. Zero leaves it to the provider.
	MaxTokens int

	// Temperature controls randomness. Zero leaves it to the provider.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHashing {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	Backend StoreBackend

	// Timeout bounds every embedding and storage call.
	Timeout time.Duration

	SQLitePath string

	PgvectorDSN   string
	PgvectorTable string

	PineconeAPIKey    string
	PineconeHost      string
	PineconeNamespace string
}

// HistorySettings holds conversation history configuration.
type HistorySettings struct {
	Backend HistoryBackend

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// EventSettings holds lifecycle event publishing configuration.
type EventSettings struct {
	// NATSURL enables publishing when set.
	NATSURL string

	// SubjectPrefix is prepended to event subjects.
	SubjectPrefix string
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	Addr        string
	MaxUploadMB int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking  ChunkingSettings
	Loader    LoaderSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Store     StoreSettings
	History   HistorySettings
	Events    EventSettings
	Server    ServerSettings

	// RetrievalK is the number of chunks retrieved per question.
	RetrievalK int
}

// DefaultAppSettings returns settings with sensible defaults.
// Everything works offline by default: hashing embeddings, in-memory
// vectors and history. The LLM is left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 200,
		},
		Loader: LoaderSettings{
			DocxMode: DocxModeBody,
		},
		Embedding: EmbeddingSettings{
			Provider:    AIProviderHashing,
			Model:       DefaultEmbeddingModels()[AIProviderHashing],
			BatchSize:   64,
			Concurrency: 4,
			CacheSize:   1024,
			CacheTTL:    time.Hour,
		},
		LLM: LLMSettings{},
		Store: StoreSettings{
			Backend:           StoreBackendMemory,
			Timeout:           60 * time.Second,
			PgvectorTable:     "sheetrag_chunks",
			PineconeNamespace: "default",
		},
		History: HistorySettings{
			Backend:         HistoryBackendMemory,
			RedisAddr:       "localhost:6379",
			MongoDatabase:   "sheetrag",
			MongoCollection: "users_history",
		},
		Events: EventSettings{
			SubjectPrefix: "sheetrag",
		},
		Server: ServerSettings{
			Addr:        ":8080",
			MaxUploadMB: 32,
		},
		RetrievalK: DefaultTopK,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-384",
		AIProviderOllama:  "all-minilm",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderGemini:  "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderGemini:    "gemini-2.5-flash",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-384": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
	}
}
