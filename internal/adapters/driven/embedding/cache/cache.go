// Package cache wraps an embedding service with an expiring LRU cache.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService serves repeated texts from memory. Keys include the
// model name so switching models never returns stale vectors.
type EmbeddingService struct {
	next  driven.EmbeddingService
	cache *expirable.LRU[string, []float32]
}

// Wrap returns next wrapped in a cache holding size entries for ttl.
// A non-positive size or ttl returns next unchanged.
func Wrap(next driven.EmbeddingService, size int, ttl time.Duration) driven.EmbeddingService {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &EmbeddingService{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// Embed returns the cached vector for text or computes and stores it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := s.key(text)
	if cached, ok := s.cache.Get(key); ok {
		logger.Debug("embedding cache hit")
		return clone(cached), nil
	}

	vec, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, clone(vec))
	return vec, nil
}

// EmbedBatch computes only the texts missing from the cache, in one call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		keys[i] = s.key(text)
		if cached, ok := s.cache.Get(keys[i]); ok {
			out[i] = clone(cached)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := s.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vectors {
		i := missingIdx[j]
		out[i] = vec
		s.cache.Add(keys[i], clone(vec))
	}
	return out, nil
}

// Dimensions delegates to the wrapped service.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName delegates to the wrapped service.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping delegates to the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close purges the cache and closes the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Purge()
	return s.next.Close()
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int { return s.cache.Len() }

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return s.next.ModelName() + ":" + hex.EncodeToString(sum[:])
}

func clone(values []float32) []float32 {
	out := make([]float32, len(values))
	copy(out, values)
	return out
}
