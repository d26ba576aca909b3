// Package hashing provides an offline embedding service based on the
// hashing trick. It needs no model or network and is deterministic, which
// makes it the default for local use and tests.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 384

// EmbeddingService maps each lower-cased alphanumeric token to a signed
// bucket and L2-normalises the result.
type EmbeddingService struct {
	dimensions int
	model      string
}

// NewEmbeddingService creates a hashing embedder with the given size.
// A non-positive size uses DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		dimensions: dimensions,
		model:      fmt.Sprintf("hashing-%d", dimensions),
	}
}

// Embed returns the hashed vector for text. Text without tokens yields
// the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = s.vector(text)
	}
	return vectors, nil
}

// Dimensions returns the vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns "hashing-<dimensions>".
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error { return nil }

// Close releases nothing.
func (s *EmbeddingService) Close() error { return nil }

func (s *EmbeddingService) vector(text string) []float32 {
	vec := make([]float32, s.dimensions)
	for _, token := range Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum32()

		bucket := int(sum % uint32(s.dimensions))
		if sum>>31 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// Tokenize splits text into lower-cased runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
