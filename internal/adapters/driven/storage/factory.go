// Package storage opens the configured vector and history backends.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/mongo"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/pinecone"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/sheetrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// Backends holds the opened stores.
type Backends struct {
	Vectors driven.VectorStore
	History driven.HistoryStore
}

// Close closes both stores.
func (b *Backends) Close() error {
	var errs []error
	if b.Vectors != nil {
		errs = append(errs, b.Vectors.Close())
	}
	if b.History != nil {
		errs = append(errs, b.History.Close())
	}
	return errors.Join(errs...)
}

// Open connects to the configured backends. dimensions fixes the pgvector
// column size when non-zero. When both backends are sqlite on the same
// file they share one database handle.
func Open(
	ctx context.Context,
	store domain.StoreSettings,
	history domain.HistorySettings,
	dimensions int,
) (*Backends, error) {
	o := &opener{sqlite: make(map[string]*sqlite.Store)}

	vectors, err := o.vectors(ctx, store, dimensions)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s vector store: %w", domain.ErrStore, store.Backend, err)
	}

	hist, err := o.history(ctx, history)
	if err != nil {
		vectors.Close()
		return nil, fmt.Errorf("open %s history store: %w", history.Backend, err)
	}

	logger.Debug("storage: vectors=%s history=%s", store.Backend, history.Backend)
	return &Backends{Vectors: vectors, History: hist}, nil
}

type opener struct {
	sqlite map[string]*sqlite.Store
}

func (o *opener) sqliteStore(path string) (*sqlite.Store, error) {
	if s, ok := o.sqlite[path]; ok {
		return s, nil
	}
	s, err := sqlite.NewStore(path)
	if err != nil {
		return nil, err
	}
	o.sqlite[path] = s
	return s, nil
}

func (o *opener) vectors(ctx context.Context, cfg domain.StoreSettings, dimensions int) (driven.VectorStore, error) {
	switch cfg.Backend {
	case domain.StoreBackendMemory, "":
		return memory.NewVectorStore(), nil

	case domain.StoreBackendSQLite:
		s, err := o.sqliteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s.VectorStore(), nil

	case domain.StoreBackendPgvector:
		return pgvector.New(ctx, pgvector.Config{
			DSN:        cfg.PgvectorDSN,
			Table:      cfg.PgvectorTable,
			Dimensions: dimensions,
		})

	case domain.StoreBackendPinecone:
		return pinecone.New(pinecone.Config{
			APIKey:    cfg.PineconeAPIKey,
			Host:      cfg.PineconeHost,
			Namespace: cfg.PineconeNamespace,
			Timeout:   cfg.Timeout,
		})

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrConfig, cfg.Backend)
	}
}

func (o *opener) history(ctx context.Context, cfg domain.HistorySettings) (driven.HistoryStore, error) {
	switch cfg.Backend {
	case domain.HistoryBackendMemory, "":
		return memory.NewHistoryStore(), nil

	case domain.HistoryBackendSQLite:
		s, err := o.sqliteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s.HistoryStore(), nil

	case domain.HistoryBackendRedis:
		return redis.New(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})

	case domain.HistoryBackendMongo:
		return mongo.New(ctx, mongo.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})

	default:
		return nil, fmt.Errorf("%w: unknown history backend %q", domain.ErrConfig, cfg.Backend)
	}
}
