package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// historyStore implements driven.HistoryStore with one JSON row per session.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// Get returns the session's turns, or an empty slice for an unknown session.
func (s *historyStore) Get(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	var turnsJSON string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT turns FROM history WHERE session_id = ?", sessionID,
	).Scan(&turnsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}

	var turns []domain.Turn
	if err := json.Unmarshal([]byte(turnsJSON), &turns); err != nil {
		return nil, fmt.Errorf("unmarshalling history: %w", err)
	}
	return domain.CloneTurns(turns), nil
}

// Save replaces the session's turns.
func (s *historyStore) Save(ctx context.Context, sessionID string, turns []domain.Turn) error {
	turnsJSON, err := json.Marshal(domain.CloneTurns(turns))
	if err != nil {
		return fmt.Errorf("marshalling history: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO history (session_id, turns, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			turns = excluded.turns,
			updated_at = excluded.updated_at
	`, sessionID, string(turnsJSON))
	if err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *historyStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM history WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	return nil
}

// Close releases this store's reference to the database.
func (s *historyStore) Close() error {
	return s.store.release()
}
