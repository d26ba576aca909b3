package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Vectors live in insertion order; queries are brute-force cosine.
type VectorStore struct {
	mu      sync.RWMutex
	vectors []domain.IndexedVector
	byID    map[string]int
	nextSeq int64
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		byID: make(map[string]int),
	}
}

// Upsert writes all vectors under one lock. A chunk ID already present
// is replaced in place and keeps its sequence number.
func (s *VectorStore) Upsert(ctx context.Context, vectors []domain.IndexedVector) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range vectors {
		v.Chunk.Metadata = domain.CloneMetadata(v.Chunk.Metadata)
		if i, ok := s.byID[v.Chunk.ID]; ok {
			v.Seq = s.vectors[i].Seq
			s.vectors[i] = v
			continue
		}
		s.nextSeq++
		v.Seq = s.nextSeq
		s.byID[v.Chunk.ID] = len(s.vectors)
		s.vectors = append(s.vectors, v)
	}
	return nil
}

// HasUpload reports whether any vector is tagged with uploadID.
func (s *VectorStore) HasUpload(_ context.Context, uploadID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vectors {
		if v.Chunk.UploadID == uploadID {
			return true, nil
		}
	}
	return false, nil
}

// DeleteByUpload removes every vector tagged with uploadID.
func (s *VectorStore) DeleteByUpload(_ context.Context, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.vectors[:0]
	for _, v := range s.vectors {
		if v.Chunk.UploadID != uploadID {
			kept = append(kept, v)
		}
	}
	clear(s.vectors[len(kept):])
	s.vectors = kept

	s.byID = make(map[string]int, len(kept))
	for i, v := range kept {
		s.byID[v.Chunk.ID] = i
	}
	return nil
}

// Query ranks the vectors tagged with uploadID (all vectors when empty).
func (s *VectorStore) Query(ctx context.Context, query []float32, uploadID string, k int) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	candidates := make([]domain.IndexedVector, 0, len(s.vectors))
	for _, v := range s.vectors {
		if uploadID == "" || v.Chunk.UploadID == uploadID {
			candidates = append(candidates, v)
		}
	}
	s.mu.RUnlock()

	return domain.RankBySimilarity(candidates, query, k)
}

// Count returns the number of vectors tagged with uploadID, or all vectors when empty.
func (s *VectorStore) Count(uploadID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if uploadID == "" {
		return len(s.vectors)
	}
	n := 0
	for _, v := range s.vectors {
		if v.Chunk.UploadID == uploadID {
			n++
		}
	}
	return n
}

// Close is a no-op for the in-memory store.
func (s *VectorStore) Close() error {
	return nil
}
