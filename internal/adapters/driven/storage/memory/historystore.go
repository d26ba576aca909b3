package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.HistoryStore.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Turn
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		sessions: make(map[string][]domain.Turn),
	}
}

// Get returns a copy of the session's turns.
func (s *HistoryStore) Get(_ context.Context, sessionID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneTurns(s.sessions[sessionID]), nil
}

// Save replaces the session's turns.
func (s *HistoryStore) Save(_ context.Context, sessionID string, turns []domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = domain.CloneTurns(turns)
	return nil
}

// Delete removes the session.
func (s *HistoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *HistoryStore) Close() error {
	return nil
}
