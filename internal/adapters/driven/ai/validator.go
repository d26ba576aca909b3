package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

var _ driven.AIConfigValidator = (*ProviderChecker)(nil)

// ProviderChecker vets embedding and LLM settings before the settings
// command saves them. It builds the provider client and pings it, so a
// wrong key, model or base URL is reported while the user is still
// editing. Settings that leave a provider unconfigured pass unchecked.
type ProviderChecker struct {
	timeout time.Duration
}

// NewProviderChecker returns a checker that gives each provider timeout
// to answer. Zero means the startup ping timeout.
func NewProviderChecker(timeout time.Duration) *ProviderChecker {
	if timeout <= 0 {
		timeout = pingTimeout
	}
	return &ProviderChecker{timeout: timeout}
}

// ValidateEmbedding pings the embedding provider described by settings.
func (c *ProviderChecker) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s did not answer: %w", domain.ErrEmbeddingUnavailable, settings.Provider, err)
	}
	logger.With("provider", settings.Provider, "model", svc.ModelName()).
		Debugw("embedding provider reachable", "dimensions", svc.Dimensions())
	return nil
}

// ValidateLLM pings the LLM provider described by settings.
func (c *ProviderChecker) ValidateLLM(settings *domain.LLMSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s did not answer: %w", domain.ErrLLMUnavailable, settings.Provider, err)
	}
	logger.With("provider", settings.Provider, "model", svc.ModelName()).Debugw("LLM provider reachable")
	return nil
}
