package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// --- Mock implementations ---

// countingEmbedder wraps the hashing embedder and records batch sizes.
type countingEmbedder struct {
	*hashing.EmbeddingService

	mu      sync.Mutex
	batches []int
	failOn  string
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{EmbeddingService: hashing.NewEmbeddingService(0)}
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches = append(e.batches, len(texts))
	e.mu.Unlock()
	for _, t := range texts {
		if e.failOn != "" && t == e.failOn {
			return nil, errors.New("embedding backend exploded")
		}
	}
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

func (e *countingEmbedder) batchSizes() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.batches...)
}

// blockingEmbedder never answers before its context is done.
type blockingEmbedder struct {
	*hashing.EmbeddingService
}

func (e blockingEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (e blockingEmbedder) EmbedBatch(ctx context.Context, _ []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// failingVectorStore wraps a memory store and fails selected operations.
type failingVectorStore struct {
	*memory.VectorStore
	upsertErr error
	deleteErr error
	queryErr  error
	deletes   []string
}

func (s *failingVectorStore) Upsert(ctx context.Context, vectors []domain.IndexedVector) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	return s.VectorStore.Upsert(ctx, vectors)
}

func (s *failingVectorStore) DeleteByUpload(ctx context.Context, uploadID string) error {
	s.deletes = append(s.deletes, uploadID)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.VectorStore.DeleteByUpload(ctx, uploadID)
}

func (s *failingVectorStore) Query(ctx context.Context, q []float32, uploadID string, k int) ([]domain.SearchResult, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.VectorStore.Query(ctx, q, uploadID, k)
}

// MockLLMService is a mock implementation of driven.LLMService.
type MockLLMService struct {
	mock.Mock
}

func (m *MockLLMService) Complete(ctx context.Context, req driven.Completion) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLMService) ModelName() string { return "mock-llm" }

func (m *MockLLMService) Ping(_ context.Context) error { return nil }

func (m *MockLLMService) Close() error { return nil }

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.UploadEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.UploadEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// staticPrompts serves fixed templates.
type staticPrompts map[string]string

func (p staticPrompts) Load(name string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", errors.New("no such prompt")
}

func (p staticPrompts) Reload() {}

// failingHistory fails Save.
type failingHistory struct {
	*memory.HistoryStore
	saveErr error
}

func (h *failingHistory) Save(ctx context.Context, id string, turns []domain.Turn) error {
	if h.saveErr != nil {
		return h.saveErr
	}
	return h.HistoryStore.Save(ctx, id, turns)
}

func rowChunks(texts ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{
			ID:       uuid.NewString(),
			Text:     t,
			Metadata: map[string]string{domain.MetaSource: "data.csv"},
		}
	}
	return chunks
}
