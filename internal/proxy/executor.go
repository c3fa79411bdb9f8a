// Package proxy forwards parameterized SQL to a database.
//
// The Handler is the server side: it accepts {query, params} over HTTP and
// answers with the result rows as JSON. The Client is the caller side and
// speaks the same protocol. Both the Client and DBExecutor satisfy
// Executor, so data-access code does not care whether it talks to the
// database directly or through the proxy.
package proxy

import (
	"context"
	"database/sql"
	"fmt"
)

// Row is a result row keyed by column name.
type Row map[string]any

// Executor runs a parameterized query and returns all result rows.
// Statements without a result set return no rows.
type Executor interface {
	Query(ctx context.Context, query string, params []any) ([]Row, error)
}

// DBExecutor runs queries against a database/sql connection pool.
type DBExecutor struct {
	DB *sql.DB
}

// NewDBExecutor returns an Executor backed by db.
func NewDBExecutor(db *sql.DB) *DBExecutor {
	return &DBExecutor{DB: db}
}

// Query implements Executor.
func (e *DBExecutor) Query(ctx context.Context, query string, params []any) ([]Row, error) {
	rows, err := e.DB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}

	return result, nil
}
