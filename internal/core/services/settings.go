package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize    = "chunking.size"
	keyChunkOverlap = "chunking.overlap"

	keyCSVHeader = "loader.csv_header"
	keyDocxMode  = "loader.docx_mode"

	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDims        = "embedding.dimensions"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyEmbedConcurrency = "embedding.concurrency"
	keyEmbedCacheSize   = "embedding.cache_size"
	keyEmbedCacheTTL    = "embedding.cache_ttl"
	keyEmbedRPS         = "embedding.requests_per_second"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"
	keyLLMMaxTok   = "llm.max_tokens"
	keyLLMTemp     = "llm.temperature"

	keyStoreBackend      = "store.backend"
	keyStoreTimeout      = "store.timeout"
	keyStoreSQLitePath   = "store.sqlite.path"
	keyPgvectorDSN       = "store.pgvector.dsn"
	keyPgvectorTable     = "store.pgvector.table"
	keyPineconeAPIKey    = "store.pinecone.api_key"
	keyPineconeHost      = "store.pinecone.host"
	keyPineconeNamespace = "store.pinecone.namespace"

	keyHistoryBackend    = "history.backend"
	keyHistorySQLitePath = "history.sqlite.path"
	keyRedisAddr         = "history.redis.addr"
	keyRedisPassword     = "history.redis.password"
	keyRedisDB           = "history.redis.db"
	keyRedisTTL          = "history.redis.ttl"
	keyMongoURI          = "history.mongo.uri"
	keyMongoDatabase     = "history.mongo.database"
	keyMongoCollection   = "history.mongo.collection"

	keyRetrievalK = "retrieval.k"

	keyNATSURL       = "events.nats_url"
	keySubjectPrefix = "events.subject_prefix"

	keyServerAddr  = "server.addr"
	keyMaxUploadMB = "server.max_upload_mb"
)

// providerKeyEnv lists the conventional environment variables that supply
// a provider's API key when none is configured.
var providerKeyEnv = map[domain.AIProvider][]string{
	domain.AIProviderOpenAI:    {"OPENAI_API_KEY"},
	domain.AIProviderGemini:    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	domain.AIProviderAnthropic: {"ANTHROPIC_API_KEY"},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service. aiValidator may be nil.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings, filling unset keys with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, d.Chunking.Overlap),
		},
		Loader: domain.LoaderSettings{
			CSVHeader: s.getBool(keyCSVHeader, d.Loader.CSVHeader),
			DocxMode:  domain.DocxMode(s.getString(keyDocxMode, string(d.Loader.DocxMode))),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.configStore.GetInt(keyEmbedDims),
			BatchSize:         s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			Concurrency:       s.getInt(keyEmbedConcurrency, d.Embedding.Concurrency),
			CacheSize:         s.getIntAllowZero(keyEmbedCacheSize, d.Embedding.CacheSize),
			CacheTTL:          s.getDuration(keyEmbedCacheTTL, d.Embedding.CacheTTL),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),

			MaxTokens:   s.getIntAllowZero(keyLLMMaxTok, d.LLM.MaxTokens),
			Temperature: s.getFloat(keyLLMTemp, d.LLM.Temperature),
		},
		Store: domain.StoreSettings{
			Backend:           domain.StoreBackend(s.getString(keyStoreBackend, string(d.Store.Backend))),
			Timeout:           s.getDuration(keyStoreTimeout, d.Store.Timeout),
			SQLitePath:        s.configStore.GetString(keyStoreSQLitePath),
			PgvectorDSN:       s.configStore.GetString(keyPgvectorDSN),
			PgvectorTable:     s.getString(keyPgvectorTable, d.Store.PgvectorTable),
			PineconeAPIKey:    s.getStringOrEnv(keyPineconeAPIKey, "PINECONE_API_KEY"),
			PineconeHost:      s.configStore.GetString(keyPineconeHost),
			PineconeNamespace: s.getString(keyPineconeNamespace, d.Store.PineconeNamespace),
		},
		History: domain.HistorySettings{
			Backend:         domain.HistoryBackend(s.getString(keyHistoryBackend, string(d.History.Backend))),
			SQLitePath:      s.configStore.GetString(keyHistorySQLitePath),
			RedisAddr:       s.getString(keyRedisAddr, d.History.RedisAddr),
			RedisPassword:   s.configStore.GetString(keyRedisPassword),
			RedisDB:         s.configStore.GetInt(keyRedisDB),
			RedisTTL:        s.getDuration(keyRedisTTL, d.History.RedisTTL),
			MongoURI:        s.getStringOrEnv(keyMongoURI, "MONGO_URI"),
			MongoDatabase:   s.getString(keyMongoDatabase, d.History.MongoDatabase),
			MongoCollection: s.getString(keyMongoCollection, d.History.MongoCollection),
		},
		Events: domain.EventSettings{
			NATSURL:       s.configStore.GetString(keyNATSURL),
			SubjectPrefix: s.getString(keySubjectPrefix, d.Events.SubjectPrefix),
		},
		Server: domain.ServerSettings{
			Addr:        s.getString(keyServerAddr, d.Server.Addr),
			MaxUploadMB: s.getInt(keyMaxUploadMB, d.Server.MaxUploadMB),
		},
		RetrievalK: s.getInt(keyRetrievalK, d.RetrievalK),
	}

	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.providerKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists the settings the CLI can change. Connection settings
// (DSNs, hosts, passwords) are edited in the config file directly.
// API keys are only written when set and not supplied by the environment.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyCSVHeader, settings.Loader.CSVHeader},
		{keyDocxMode, string(settings.Loader.DocxMode)},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedConcurrency, settings.Embedding.Concurrency},
		{keyEmbedCacheSize, settings.Embedding.CacheSize},
		{keyEmbedCacheTTL, settings.Embedding.CacheTTL.String()},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTok, settings.LLM.MaxTokens},
		{keyLLMTemp, settings.LLM.Temperature},
		{keyStoreBackend, string(settings.Store.Backend)},
		{keyStoreTimeout, settings.Store.Timeout.String()},
		{keyHistoryBackend, string(settings.History.Backend)},
		{keyRetrievalK, settings.RetrievalK},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct {
		key   string
		value string
		env   domain.AIProvider
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey, settings.Embedding.Provider},
		{keyLLMAPIKey, settings.LLM.APIKey, settings.LLM.Provider},
	}
	for _, sec := range secrets {
		if sec.value == "" || sec.value == s.providerKey(sec.env) {
			continue
		}
		if err := s.configStore.Set(sec.key, sec.value); err != nil {
			return fmt.Errorf("save %s: %w", sec.key, err)
		}
	}

	return nil
}

// SetChunking updates chunk size and overlap after validating them.
func (s *SettingsService) SetChunking(size, overlap int) error {
	chunking := domain.ChunkingSettings{Size: size, Overlap: overlap}
	if err := chunking.Validate(); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Chunking = chunking
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrConfig, provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrConfig, provider)
	}
	if apiKey == "" {
		apiKey = s.providerKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfig, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = defaultBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey
	settings.Embedding.Dimensions = 0

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || provider == domain.AIProviderHashing {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrConfig, provider)
	}
	if apiKey == "" {
		apiKey = s.providerKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfig, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = defaultBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// defaultBaseURL keeps a configured URL for Ollama and clears it for cloud providers.
func defaultBaseURL(provider domain.AIProvider, current string) string {
	switch provider {
	case domain.AIProviderOllama:
		if current == "" {
			return "http://localhost:11434"
		}
		return current
	default:
		return ""
	}
}

// Validate checks the current settings. Every problem is reported.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if err := settings.Chunking.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !settings.Loader.DocxMode.IsValid() {
		errs = append(errs, fmt.Errorf("%w: invalid docx mode %q", domain.ErrConfig, settings.Loader.DocxMode))
	}
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrConfig, settings.Embedding.Provider))
	}
	if !settings.Store.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("%w: invalid store backend %q", domain.ErrConfig, settings.Store.Backend))
	}
	if !settings.History.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("%w: invalid history backend %q", domain.ErrConfig, settings.History.Backend))
	}
	switch settings.Store.Backend {
	case domain.StoreBackendPgvector:
		if settings.Store.PgvectorDSN == "" {
			errs = append(errs, fmt.Errorf("%w: store.pgvector.dsn is required", domain.ErrConfig))
		}
	case domain.StoreBackendPinecone:
		if settings.Store.PineconeAPIKey == "" || settings.Store.PineconeHost == "" {
			errs = append(errs, fmt.Errorf("%w: store.pinecone.api_key and store.pinecone.host are required",
				domain.ErrConfig))
		}
	}
	if settings.History.Backend == domain.HistoryBackendMongo && settings.History.MongoURI == "" {
		errs = append(errs, fmt.Errorf("%w: history.mongo.uri is required", domain.ErrConfig))
	}
	if settings.LLM.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("%w: llm.max_tokens must not be negative", domain.ErrConfig))
	}
	if settings.LLM.Temperature < 0 || settings.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: llm.temperature must be between 0 and 2", domain.ErrConfig))
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) providerKey(provider domain.AIProvider) string {
	for _, name := range providerKeyEnv[provider] {
		if v, ok := s.lookupEnv(name); ok && v != "" {
			return v
		}
	}
	return ""
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getStringOrEnv(key, env string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	v, _ := s.lookupEnv(env)
	return v
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero distinguishes an explicit 0 from an unset key.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

// getDuration falls back to defaultVal for unset or unparseable values.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
