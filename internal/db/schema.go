package db

import (
	"database/sql"
	"fmt"
)

// postgresSchema is the schema for the hosted Postgres database.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id       SERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    role     TEXT NOT NULL DEFAULT 'spectator'
);

CREATE TABLE IF NOT EXISTS items (
    name         TEXT PRIMARY KEY,
    quantity     TEXT NOT NULL DEFAULT '',
    ilosc        INTEGER NOT NULL DEFAULT 0,
    description  TEXT NOT NULL DEFAULT '',
    photo_url    TEXT NOT NULL DEFAULT '',
    category     TEXT NOT NULL DEFAULT 'NM',
    wysokosc     DOUBLE PRECISION NOT NULL DEFAULT 0,
    szerokosc    DOUBLE PRECISION NOT NULL DEFAULT 0,
    glebokosc    DOUBLE PRECISION NOT NULL DEFAULT 0,
    data_wyjazdu DATE,
    stan         INTEGER NOT NULL DEFAULT 0,
    linknadysk   TEXT NOT NULL DEFAULT '',
    updatedat    TIMESTAMPTZ,
    updatedby    TEXT,
    deviceid     TEXT,
    stoisko      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

CREATE TABLE IF NOT EXISTS item_photos (
    name TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    mime TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// sqliteSchema mirrors postgresSchema for local databases and tests.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id       INTEGER PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    role     TEXT NOT NULL DEFAULT 'spectator'
);

CREATE TABLE IF NOT EXISTS items (
    name         TEXT PRIMARY KEY,
    quantity     TEXT NOT NULL DEFAULT '',
    ilosc        INTEGER NOT NULL DEFAULT 0,
    description  TEXT NOT NULL DEFAULT '',
    photo_url    TEXT NOT NULL DEFAULT '',
    category     TEXT NOT NULL DEFAULT 'NM',
    wysokosc     REAL NOT NULL DEFAULT 0,
    szerokosc    REAL NOT NULL DEFAULT 0,
    glebokosc    REAL NOT NULL DEFAULT 0,
    data_wyjazdu DATE,
    stan         INTEGER NOT NULL DEFAULT 0,
    linknadysk   TEXT NOT NULL DEFAULT '',
    updatedat    TIMESTAMP,
    updatedby    TEXT,
    deviceid     TEXT,
    stoisko      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);

CREATE TABLE IF NOT EXISTS item_photos (
    name TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    mime TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMP NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB, d Dialect) error {
	schema := sqliteSchema
	if d == Postgres {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
