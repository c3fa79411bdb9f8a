package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/magazyn/internal/db"
	"github.com/erazemk/magazyn/internal/proxy"
	"github.com/erazemk/magazyn/internal/store"
)

func TestPruneRevokedTokens(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := store.RevokeToken(ctx, q, "old", now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := store.RevokeToken(ctx, q, "fresh", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	s := New(q)
	s.now = func() time.Time { return now }

	n, err := s.PruneRevokedTokens(ctx)
	if err != nil {
		t.Fatalf("PruneRevokedTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned revocation, got %d", n)
	}

	if revoked, _ := store.IsTokenRevoked(ctx, q, "fresh"); !revoked {
		t.Error("expected unexpired revocation to remain")
	}

	// A second run has nothing left to remove.
	n, err = s.PruneRevokedTokens(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 pruned on second run, got %d", n)
	}
}

func TestStartInvalidSchedule(t *testing.T) {
	s := New(proxy.NewDBExecutor(db.NewTestDB(t)))
	if err := s.Start("not a schedule"); err == nil {
		s.Stop()
		t.Fatal("expected error for invalid schedule")
	}
}

func TestStartStop(t *testing.T) {
	s := New(proxy.NewDBExecutor(db.NewTestDB(t)))
	if err := s.Start(""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("expected 1 scheduled job, got %d", len(s.cron.Entries()))
	}
	s.Stop()
}
