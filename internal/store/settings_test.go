package store

import (
	"context"
	"testing"

	"github.com/erazemk/magazyn/internal/db"
	"github.com/erazemk/magazyn/internal/proxy"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}
