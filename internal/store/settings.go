package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/magazyn/internal/proxy"
)

// GetJWTSecret retrieves the JWT secret from the settings table.
// If no secret exists, it generates one, stores it, and returns it.
// Insert-if-absent followed by a re-select keeps concurrent startups on the
// same secret.
func GetJWTSecret(ctx context.Context, q proxy.Executor) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := q.Query(ctx,
		`INSERT INTO settings (key, value) VALUES ('jwt_secret', $1) ON CONFLICT (key) DO NOTHING`,
		[]any{candidate},
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT value FROM settings WHERE key = 'jwt_secret'`, nil)
	if err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}

	type settingRow struct {
		Value string `json:"value"`
	}
	row, err := decodeFirst[settingRow](rows)
	if err != nil {
		return "", err
	}
	if row == nil || row.Value == "" {
		return "", fmt.Errorf("querying jwt_secret: no value stored")
	}

	return row.Value, nil
}
