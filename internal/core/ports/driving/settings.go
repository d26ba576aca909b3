package driving

import "github.com/custodia-labs/sheetrag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetChunking updates chunk size and overlap after validating them.
	SetChunking(size, overlap int) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the current settings.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
