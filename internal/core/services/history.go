package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService exposes a HistoryStore to driving adapters.
type HistoryService struct {
	store driven.HistoryStore
}

// NewHistoryService creates a history service.
func NewHistoryService(store driven.HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// Get returns the session's turns. An unknown session yields an empty slice.
func (s *HistoryService) Get(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	turns, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns, nil
}

// Save replaces the session's turns.
func (s *HistoryService) Save(ctx context.Context, sessionID string, turns []domain.Turn) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	for i, t := range turns {
		if t.Role != domain.RoleUser && t.Role != domain.RoleAssistant {
			return fmt.Errorf("%w: turn %d has role %q", domain.ErrInvalidInput, i, t.Role)
		}
	}
	return s.store.Save(ctx, sessionID, turns)
}

// Reset deletes the session.
func (s *HistoryService) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return s.store.Delete(ctx, sessionID)
}
