package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore over the chunks table.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert writes all vectors in one transaction. New chunks get the next
// sequence numbers; replaced chunks keep theirs.
func (s *vectorStore) Upsert(ctx context.Context, vectors []domain.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}

	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM chunks").Scan(&seq); err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, seq, upload_id, text, start_offset, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			upload_id = excluded.upload_id,
			text = excluded.text,
			start_offset = excluded.start_offset,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, v := range vectors {
		metadataJSON, err := json.Marshal(v.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		seq++
		if _, err := stmt.ExecContext(ctx,
			v.Chunk.ID, seq, v.Chunk.UploadID, v.Chunk.Text, v.Chunk.StartOffset,
			string(metadataJSON), float32SliceToBytes(v.Embedding),
		); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", v.Chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// DeleteByUpload removes every chunk tagged with uploadID.
func (s *vectorStore) DeleteByUpload(ctx context.Context, uploadID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE upload_id = ?", uploadID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// HasUpload reports whether any chunk is tagged with uploadID.
func (s *vectorStore) HasUpload(ctx context.Context, uploadID string) (bool, error) {
	var found bool
	err := s.store.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM chunks WHERE upload_id = ?)", uploadID,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("looking up upload: %w", err)
	}
	return found, nil
}

// Query loads the candidate rows for uploadID in sequence order and ranks
// them in process.
func (s *vectorStore) Query(ctx context.Context, query []float32, uploadID string, k int) ([]domain.SearchResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, seq, upload_id, text, start_offset, metadata, embedding
		FROM chunks
		WHERE ? = '' OR upload_id = ?
		ORDER BY seq
	`, uploadID, uploadID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.IndexedVector
	for rows.Next() {
		var v domain.IndexedVector
		var metadataJSON string
		var blob []byte
		if err := rows.Scan(&v.Chunk.ID, &v.Seq, &v.Chunk.UploadID, &v.Chunk.Text,
			&v.Chunk.StartOffset, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &v.Chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
		v.Embedding = bytesToFloat32Slice(blob)
		candidates = append(candidates, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return domain.RankBySimilarity(candidates, query, k)
}

// Close releases this store's reference to the database.
func (s *vectorStore) Close() error {
	return s.store.release()
}
