package driving

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/async"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// RetrievalService returns the context relevant to a query.
type RetrievalService interface {
	// Retrieve returns the texts of the k most relevant chunks of the
	// upload, most relevant first. An empty slice means no context.
	Retrieve(ctx context.Context, uploadID, query string, k int) ([]string, error)

	// Search returns ranked results with scores and metadata.
	Search(ctx context.Context, uploadID, query string, k int) ([]domain.SearchResult, error)

	// RetrieveAsync runs Retrieve in the background.
	RetrieveAsync(ctx context.Context, uploadID, query string, k int) *async.Task[[]string]
}
