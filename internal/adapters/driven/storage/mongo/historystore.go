// Package mongo provides a conversation history store backed by MongoDB.
// Each session is one document {session_id, history} in the configured
// collection (default users_history).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// Defaults for database and collection names.
const (
	DefaultDatabase   = "sheetrag"
	DefaultCollection = "users_history"
)

// Config holds MongoDB connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
}

type sessionDoc struct {
	SessionID string        `bson:"session_id"`
	History   []domain.Turn `bson:"history"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// HistoryStore implements driven.HistoryStore on a MongoDB collection.
type HistoryStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects, pings and ensures a unique index on session_id.
func New(ctx context.Context, cfg Config) (*HistoryStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo create index: %w", err)
	}

	return &HistoryStore{client: client, coll: coll}, nil
}

// Get returns the session's turns, or an empty slice when no document exists.
func (s *HistoryStore) Get(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []domain.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return domain.CloneTurns(doc.History), nil
}

// Save replaces the session's history, inserting the document if needed.
func (s *HistoryStore) Save(ctx context.Context, sessionID string, turns []domain.Turn) error {
	update := bson.M{"$set": bson.M{
		"history":    domain.CloneTurns(turns),
		"updated_at": time.Now().UTC(),
	}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"session_id": sessionID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert: %w", err)
	}
	return nil
}

// Delete removes the session document. Zero matches is not an error.
func (s *HistoryStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *HistoryStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
