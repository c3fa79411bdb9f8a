package db

import (
	"database/sql"
	"fmt"
)

// column is an items column added after the first deployments.
type column struct {
	name string
	pg   string
	lite string
}

// itemColumns lists columns that older items tables may lack, in the order
// they were introduced. Append new columns at the end.
var itemColumns = []column{
	{"linknadysk", "TEXT NOT NULL DEFAULT ''", "TEXT NOT NULL DEFAULT ''"},
	{"updatedat", "TIMESTAMPTZ", "TIMESTAMP"},
	{"updatedby", "TEXT", "TEXT"},
	{"stoisko", "TEXT NOT NULL DEFAULT ''", "TEXT NOT NULL DEFAULT ''"},
	{"deviceid", "TEXT", "TEXT"},
}

// Migrate ensures the schema and adds any missing audit columns to an
// existing items table. It is idempotent.
func Migrate(db *sql.DB, d Dialect) error {
	if err := EnsureSchema(db, d); err != nil {
		return err
	}

	if d == Postgres {
		for _, c := range itemColumns {
			stmt := fmt.Sprintf(`ALTER TABLE items ADD COLUMN IF NOT EXISTS %s %s`, c.name, c.pg)
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("adding column %s: %w", c.name, err)
			}
		}
		return nil
	}

	// SQLite has no ADD COLUMN IF NOT EXISTS.
	existing, err := sqliteColumns(db, "items")
	if err != nil {
		return err
	}
	for _, c := range itemColumns {
		if existing[c.name] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE items ADD COLUMN %s %s`, c.name, c.lite)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("adding column %s: %w", c.name, err)
		}
	}
	return nil
}

func sqliteColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
