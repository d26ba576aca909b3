package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/sheetrag/internal/core/async"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService turns a query into the text of the best matching chunks.
type RetrievalService struct {
	docs driving.DocumentStore
}

// NewRetrievalService creates a retrieval service over docs.
func NewRetrievalService(docs driving.DocumentStore) *RetrievalService {
	return &RetrievalService{docs: docs}
}

// Retrieve returns chunk texts in rank order. No match is an empty slice.
func (s *RetrievalService) Retrieve(ctx context.Context, uploadID, query string, k int) ([]string, error) {
	results, err := s.Search(ctx, uploadID, query, k)
	if err != nil {
		return nil, err
	}
	return domain.Texts(results), nil
}

// Search returns ranked results with scores and metadata.
func (s *RetrievalService) Search(ctx context.Context, uploadID, query string, k int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.SearchResult{}, nil
	}
	return s.docs.Search(ctx, query, uploadID, k)
}

// RetrieveAsync runs Retrieve in the background.
func (s *RetrievalService) RetrieveAsync(ctx context.Context, uploadID, query string, k int) *async.Task[[]string] {
	return async.Go(ctx, func(ctx context.Context) ([]string, error) {
		return s.Retrieve(ctx, uploadID, query, k)
	})
}
