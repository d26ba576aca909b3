// Package ratelimit throttles calls to an embedding service with a token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService waits for a token before each request to the wrapped service.
type EmbeddingService struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap limits next to requestsPerSecond. The burst is the rate rounded up,
// minimum one. A non-positive rate returns next unchanged.
func Wrap(next driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if next == nil || requestsPerSecond <= 0 {
		return next
	}
	burst := int(math.Ceil(requestsPerSecond))
	return &EmbeddingService{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), max(burst, 1)),
	}
}

// Embed waits for a token and delegates.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}
	return s.next.Embed(ctx, text)
}

// EmbedBatch waits for one token per batch and delegates.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}
	return s.next.EmbedBatch(ctx, texts)
}

// Dimensions delegates to the wrapped service.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName delegates to the wrapped service.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping delegates without consuming a token.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.next.Close() }
