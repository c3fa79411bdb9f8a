package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/magazyn/internal/model"
	"github.com/erazemk/magazyn/internal/proxy"
)

// RevokeToken adds a token's JTI to the revocation list.
func RevokeToken(ctx context.Context, q proxy.Executor, jti string, expiresAt time.Time) error {
	_, err := q.Query(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING`,
		[]any{jti, model.Timestamp{Time: expiresAt}},
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, q proxy.Executor, jti string) (bool, error) {
	rows, err := q.Query(ctx, `SELECT jti FROM revoked_tokens WHERE jti = $1`, []any{jti})
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return len(rows) > 0, nil
}

// PruneRevokedTokens deletes revocations of tokens that expired before now
// and returns how many were removed.
func PruneRevokedTokens(ctx context.Context, q proxy.Executor, now time.Time) (int, error) {
	rows, err := q.Query(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < $1 RETURNING jti`,
		[]any{model.Timestamp{Time: now}},
	)
	if err != nil {
		return 0, fmt.Errorf("pruning revoked tokens: %w", err)
	}
	return len(rows), nil
}
