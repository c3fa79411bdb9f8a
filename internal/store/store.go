// Package store is the data-access layer for items, users, settings and
// revoked tokens. Every function takes a proxy.Executor, so the same code
// runs against a direct database connection or through the SQL proxy.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/erazemk/magazyn/internal/proxy"
)

var (
	// ErrNotFound is returned when an update or delete matches no row.
	ErrNotFound = errors.New("not found")
	// ErrItemExists is returned when an item name is already taken.
	ErrItemExists = errors.New("item already exists")
	// ErrUsernameTaken is returned when registering a duplicate username.
	// Its text is shown to users as is.
	ErrUsernameTaken = errors.New("Username already exists. Please choose a different username.")
)

const uniqueViolation = "23505"

// decodeRows converts result rows into T through their JSON form, which is
// also how rows arrive from the proxy.
func decodeRows[T any](rows []proxy.Row) ([]T, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encoding rows: %w", err)
	}
	out := make([]T, 0, len(rows))
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	return out, nil
}

// decodeFirst decodes the first row, or returns nil when there is none.
func decodeFirst[T any](rows []proxy.Row) (*T, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	out, err := decodeRows[T](rows[:1])
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// isUniqueViolation reports whether err is a unique constraint failure,
// from either database or relayed by the proxy.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	var proxyErr *proxy.Error
	if errors.As(err, &proxyErr) && proxyErr.Code == uniqueViolation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

var missingDeviceColumn = []string{
	`column "deviceid" does not exist`,
	`column "deviceId" does not exist`,
	`has no column named deviceid`,
	`no such column: deviceid`,
}

// isMissingDeviceColumn reports whether err was caused by an items table
// without the deviceid column.
func isMissingDeviceColumn(err error) bool {
	msg := err.Error()
	for _, s := range missingDeviceColumn {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
