package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sheetrag/internal/core/async"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Ensure DocumentStore implements the interface.
var _ driving.DocumentStore = (*DocumentStore)(nil)

// Document store defaults.
const (
	DefaultBatchSize   = 64
	DefaultConcurrency = 4
	DefaultTimeout     = 60 * time.Second
)

// DocumentStoreConfig tunes embedding and storage calls.
type DocumentStoreConfig struct {
	// BatchSize is the number of texts per embedding request.
	BatchSize int

	// Concurrency bounds the embedding requests in flight during Add.
	Concurrency int

	// Timeout bounds each Add, Search and Delete call.
	Timeout time.Duration
}

// DocumentStore composes an embedding service and a vector store.
type DocumentStore struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	cfg      DocumentStoreConfig
}

// NewDocumentStore creates a document store. Zero config values take the defaults.
func NewDocumentStore(
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	cfg DocumentStoreConfig,
) *DocumentStore {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &DocumentStore{
		embedder: embedder,
		vectors:  vectors,
		cfg:      cfg,
	}
}

// Add embeds every chunk and writes all of them in a single upsert.
// Nothing is written when any embedding fails.
func (s *DocumentStore) Add(ctx context.Context, chunks []domain.Chunk, uploadID string) error {
	if uploadID == "" {
		return fmt.Errorf("%w: upload id is required", domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	embeddings, err := s.embedAll(ctx, texts)
	if err != nil {
		return storeError("embed chunks", err)
	}

	records := make([]domain.IndexedVector, len(chunks))
	for i, c := range chunks {
		c.UploadID = uploadID
		records[i] = domain.IndexedVector{Chunk: c, Embedding: embeddings[i]}
	}

	if err := s.vectors.Upsert(ctx, records); err != nil {
		return storeError("write vectors", err)
	}

	logger.Debug("stored %d chunks for upload %s", len(records), uploadID)
	return nil
}

// embedAll embeds texts in batches, keeping input order.
func (s *DocumentStore) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for start := 0; start < len(texts); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(texts))
		g.Go(func() error {
			vecs, err := s.embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), end-start)
			}
			copy(out[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Search embeds query and ranks the upload's chunks against it.
func (s *DocumentStore) Search(ctx context.Context, query, uploadID string, k int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.SearchResult{}, nil
	}
	k = domain.NormaliseK(k)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, storeError("embed query", err)
	}

	results, err := s.vectors.Query(ctx, vec, uploadID, k)
	if err != nil {
		return nil, storeError("query vectors", err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return results, nil
}

// Delete removes every chunk of the upload.
func (s *DocumentStore) Delete(ctx context.Context, uploadID string) error {
	if uploadID == "" {
		return fmt.Errorf("%w: upload id is required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.vectors.DeleteByUpload(ctx, uploadID); err != nil {
		return storeError("delete vectors", err)
	}
	return nil
}

// Exists reports whether the upload has stored chunks.
func (s *DocumentStore) Exists(ctx context.Context, uploadID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	found, err := s.vectors.HasUpload(ctx, uploadID)
	if err != nil {
		return false, storeError("look up upload", err)
	}
	return found, nil
}

// AddAsync runs Add in the background.
func (s *DocumentStore) AddAsync(ctx context.Context, chunks []domain.Chunk, uploadID string) *async.Task[struct{}] {
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Add(ctx, chunks, uploadID)
	})
}

// SearchAsync runs Search in the background.
func (s *DocumentStore) SearchAsync(
	ctx context.Context,
	query, uploadID string,
	k int,
) *async.Task[[]domain.SearchResult] {
	return async.Go(ctx, func(ctx context.Context) ([]domain.SearchResult, error) {
		return s.Search(ctx, query, uploadID, k)
	})
}

// DeleteAsync runs Delete in the background.
func (s *DocumentStore) DeleteAsync(ctx context.Context, uploadID string) *async.Task[struct{}] {
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Delete(ctx, uploadID)
	})
}

// storeError tags err as a store failure unless it already is one.
func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrStore) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStore, op, err)
}
