// Package pgvector provides a PostgreSQL vector store using the pgvector
// extension. Ranking runs in the database with the cosine distance operator.
package pgvector

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// DefaultTable is the table used when none is configured.
const DefaultTable = "sheetrag_chunks"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Config holds connection settings.
type Config struct {
	// DSN is a PostgreSQL connection string (required).
	DSN string

	// Table is the chunk table name (default: sheetrag_chunks).
	Table string

	// Dimensions fixes the vector column size. Zero leaves it unconstrained.
	Dimensions int
}

// VectorStore stores chunks in a PostgreSQL table with a vector column.
type VectorStore struct {
	pool  *pgxpool.Pool
	table string
}

// New connects, ensures the extension and table exist, and returns the store.
func New(ctx context.Context, cfg Config) (*VectorStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("pgvector: DSN is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if !tableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("pgvector: invalid table name %q", cfg.Table)
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector: ping database: %w", err)
	}

	s := &VectorStore{
		pool:  pool,
		table: pgx.Identifier{cfg.Table}.Sanitize(),
	}
	if err := s.migrate(ctx, cfg.Table, cfg.Dimensions); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *VectorStore) migrate(ctx context.Context, rawTable string, dims int) error {
	column := "vector"
	if dims > 0 {
		column = fmt.Sprintf("vector(%d)", dims)
	}
	index := pgx.Identifier{rawTable + "_upload_seq_idx"}.Sanitize()

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id           TEXT PRIMARY KEY,
			seq          BIGSERIAL,
			upload_id    TEXT NOT NULL,
			text         TEXT NOT NULL,
			start_offset INTEGER NOT NULL DEFAULT 0,
			metadata     JSONB NOT NULL DEFAULT '{}',
			embedding    %s NOT NULL
		)`, s.table, column),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (upload_id, seq)`, index, s.table),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pgvector: migrate: %w", err)
		}
	}
	return nil
}

// Upsert writes all vectors in one transaction using a batch.
func (s *VectorStore) Upsert(ctx context.Context, vectors []domain.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgvector: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, upload_id, text, start_offset, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			upload_id = EXCLUDED.upload_id,
			text = EXCLUDED.text,
			start_offset = EXCLUDED.start_offset,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`, s.table)

	batch := &pgx.Batch{}
	for _, v := range vectors {
		metadata := v.Chunk.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		batch.Queue(query,
			v.Chunk.ID, v.Chunk.UploadID, v.Chunk.Text, v.Chunk.StartOffset,
			metadata, pgvector.NewVector(v.Embedding),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("pgvector: upsert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgvector: commit: %w", err)
	}
	return nil
}

// DeleteByUpload removes every row tagged with uploadID.
func (s *VectorStore) DeleteByUpload(ctx context.Context, uploadID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE upload_id = $1`, s.table)
	if _, err := s.pool.Exec(ctx, query, uploadID); err != nil {
		return fmt.Errorf("pgvector: delete: %w", err)
	}
	return nil
}

// HasUpload reports whether any row is tagged with uploadID.
func (s *VectorStore) HasUpload(ctx context.Context, uploadID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE upload_id = $1)`, s.table)
	var found bool
	if err := s.pool.QueryRow(ctx, query, uploadID).Scan(&found); err != nil {
		return false, fmt.Errorf("pgvector: lookup: %w", err)
	}
	return found, nil
}

// Query orders candidates by cosine distance, then by insertion sequence.
func (s *VectorStore) Query(ctx context.Context, query []float32, uploadID string, k int) ([]domain.SearchResult, error) {
	sql := fmt.Sprintf(`
		SELECT id, upload_id, text, start_offset, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE $2::text = '' OR upload_id = $2
		ORDER BY embedding <=> $1, seq
		LIMIT $3`, s.table)

	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(query), uploadID, domain.NormaliseK(k))
	if err != nil {
		return nil, fmt.Errorf("pgvector: query: %w", err)
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var r domain.SearchResult
		if err := rows.Scan(&r.Chunk.ID, &r.Chunk.UploadID, &r.Chunk.Text,
			&r.Chunk.StartOffset, &r.Chunk.Metadata, &r.Score); err != nil {
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector: rows: %w", err)
	}
	return results, nil
}

// Close closes the connection pool.
func (s *VectorStore) Close() error {
	s.pool.Close()
	return nil
}
