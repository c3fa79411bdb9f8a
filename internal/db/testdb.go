package db

import (
	"database/sql"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db := NewEmptyTestDB(t)
	if err := EnsureSchema(db, SQLite); err != nil {
		t.Fatalf("creating test database schema: %v", err)
	}
	return db
}

// NewEmptyTestDB creates a fresh in-memory SQLite database without a schema.
// Each :memory: connection is a separate database, so the pool is pinned to
// a single connection.
func NewEmptyTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { db.Close() })

	return db
}
