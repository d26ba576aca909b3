// Package redis provides a conversation history store backed by Redis.
// Each session is one JSON string key, optionally expiring.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "sheetrag:history:"

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL expires idle sessions. Zero keeps them forever.
	TTL time.Duration

	// KeyPrefix is prepended to session IDs (default: sheetrag:history:).
	KeyPrefix string
}

// HistoryStore implements driven.HistoryStore on Redis strings.
type HistoryStore struct {
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

// New connects and pings the server.
func New(ctx context.Context, cfg Config) (*HistoryStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: address is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &HistoryStore{rdb: rdb, ttl: cfg.TTL, prefix: cfg.KeyPrefix}, nil
}

// Get returns the session's turns, or an empty slice when the key is missing.
func (s *HistoryStore) Get(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	raw, err := s.rdb.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []domain.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var turns []domain.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("redis decode history: %w", err)
	}
	return domain.CloneTurns(turns), nil
}

// Save overwrites the session key and refreshes its TTL.
func (s *HistoryStore) Save(ctx context.Context, sessionID string, turns []domain.Turn) error {
	raw, err := json.Marshal(domain.CloneTurns(turns))
	if err != nil {
		return fmt.Errorf("redis encode history: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the session key. A missing key is not an error.
func (s *HistoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *HistoryStore) Close() error {
	return s.rdb.Close()
}

func (s *HistoryStore) key(sessionID string) string {
	return s.prefix + sessionID
}
