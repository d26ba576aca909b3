// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	embedcache "github.com/custodia-labs/sheetrag/internal/adapters/driven/embedding/cache"
	geminiembed "github.com/custodia-labs/sheetrag/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/sheetrag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sheetrag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/embedding/ratelimit"
	anthropicllm "github.com/custodia-labs/sheetrag/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/sheetrag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/sheetrag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sheetrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service, wraps it
// with the configured rate limit and cache, and validates connectivity.
func CreateAndValidateEmbeddingService(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [embedding] section of the config",
			domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settingsProvider(settings))
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return Decorate(svc, settings), nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// It returns nil, nil when no LLM is configured.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [llm] section of the config",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding service for the provider.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use hashing, ollama, openai or gemini")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(dimensionsFor(settings, hashing.DefaultDimensions)), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensionsFor(settings, ollamaembed.DefaultDimensions),
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// Decorate applies the configured rate limit and cache to svc. The cache
// wraps the limiter so cache hits never wait for a token.
func Decorate(svc driven.EmbeddingService, settings *domain.EmbeddingSettings) driven.EmbeddingService {
	if settings == nil {
		return svc
	}
	svc = ratelimit.Wrap(svc, settings.RequestsPerSecond)
	return embedcache.Wrap(svc, settings.CacheSize, settings.CacheTTL)
}

// CreateLLMService creates the LLM service for the provider.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// dimensionsFor resolves the vector size: explicit setting, then the
// known model table, then fallback.
func dimensionsFor(settings *domain.EmbeddingSettings, fallback int) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	if d := domain.EmbeddingDimensions()[settings.Model]; d > 0 {
		return d
	}
	return fallback
}

func settingsProvider(settings *domain.EmbeddingSettings) domain.AIProvider {
	if settings == nil {
		return ""
	}
	return settings.Provider
}
