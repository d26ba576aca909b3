package driven

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// HistoryStore persists conversation turns per session.
type HistoryStore interface {
	// Get returns the session's turns in order, or an empty slice
	// for an unknown session.
	Get(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// Save replaces the session's turns with turns.
	Save(ctx context.Context, sessionID string, turns []domain.Turn) error

	// Delete removes the session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases resources.
	Close() error
}
