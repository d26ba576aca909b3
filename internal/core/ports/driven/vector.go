package driven

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// VectorStore persists chunk embeddings tagged by upload and answers
// similarity queries scoped to a tag.
type VectorStore interface {
	// Upsert writes all vectors in one atomic operation. Existing
	// chunk IDs are overwritten.
	Upsert(ctx context.Context, vectors []domain.IndexedVector) error

	// DeleteByUpload removes every vector tagged with uploadID.
	// Removing an unknown tag is not an error.
	DeleteByUpload(ctx context.Context, uploadID string) error

	// HasUpload reports whether any vector is tagged with uploadID.
	HasUpload(ctx context.Context, uploadID string) (bool, error)

	// Query returns the k vectors most similar to query, highest first.
	// A non-empty uploadID restricts candidates before ranking. Equal
	// scores are ordered by insertion. No candidates yields an empty slice.
	Query(ctx context.Context, query []float32, uploadID string, k int) ([]domain.SearchResult, error)

	// Close releases resources.
	Close() error
}
