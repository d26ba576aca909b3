package driving

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/async"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// DocumentStore embeds chunks and keeps them searchable per upload.
// Every failure of the embedding service or the vector store is reported
// as domain.ErrStore.
type DocumentStore interface {
	// Add embeds chunks and writes them tagged with uploadID.
	Add(ctx context.Context, chunks []domain.Chunk, uploadID string) error

	// Search returns up to k chunks most similar to query, most similar
	// first. A non-empty uploadID restricts the candidates to that upload.
	// k <= 0 means domain.DefaultTopK.
	Search(ctx context.Context, query, uploadID string, k int) ([]domain.SearchResult, error)

	// Delete removes every chunk tagged with uploadID. It is idempotent.
	Delete(ctx context.Context, uploadID string) error

	// Exists reports whether any chunk is stored under uploadID.
	Exists(ctx context.Context, uploadID string) (bool, error)

	// AddAsync runs Add in the background.
	AddAsync(ctx context.Context, chunks []domain.Chunk, uploadID string) *async.Task[struct{}]

	// SearchAsync runs Search in the background.
	SearchAsync(ctx context.Context, query, uploadID string, k int) *async.Task[[]domain.SearchResult]

	// DeleteAsync runs Delete in the background.
	DeleteAsync(ctx context.Context, uploadID string) *async.Task[struct{}]
}
