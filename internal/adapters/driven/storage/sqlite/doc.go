// Package sqlite provides a SQLite-backed implementation of the vector
// and history store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share one database file:
//
//   - VectorStore: chunk text, metadata and embeddings, ranked by brute-force cosine
//   - HistoryStore: conversation turns per session, stored as JSON
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.sheetrag/data/sheetrag.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
