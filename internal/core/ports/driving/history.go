package driving

import (
	"context"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
)

// HistoryService exposes session histories.
type HistoryService interface {
	// Get returns the session's turns, empty for an unknown session.
	Get(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// Save replaces the session's turns.
	Save(ctx context.Context, sessionID string, turns []domain.Turn) error

	// Reset deletes the session. It is idempotent.
	Reset(ctx context.Context, sessionID string) error
}
