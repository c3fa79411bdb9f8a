package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/magazyn/internal/db"
	"github.com/erazemk/magazyn/internal/proxy"
)

func TestRevokeAndCheckToken(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	// Token should not be revoked initially.
	revoked, err := IsTokenRevoked(ctx, q, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	err = RevokeToken(ctx, q, "test-jti-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	revoked, err = IsTokenRevoked(ctx, q, "test-jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	revoked, err = IsTokenRevoked(ctx, q, "test-jti-2")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestRevokeTokenIdempotent(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	err := RevokeToken(ctx, q, "test-jti-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("first RevokeToken: %v", err)
	}

	err = RevokeToken(ctx, q, "test-jti-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}
}

func TestPruneRevokedTokens(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	RevokeToken(ctx, q, "expired", now.Add(-48*time.Hour))
	RevokeToken(ctx, q, "live", now.Add(48*time.Hour))

	n, err := PruneRevokedTokens(ctx, q, now)
	if err != nil {
		t.Fatalf("PruneRevokedTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned token, got %d", n)
	}

	if revoked, _ := IsTokenRevoked(ctx, q, "expired"); revoked {
		t.Error("expected expired revocation to be pruned")
	}
	if revoked, _ := IsTokenRevoked(ctx, q, "live"); !revoked {
		t.Error("expected live revocation to remain")
	}
}
