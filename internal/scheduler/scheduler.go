// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/magazyn/internal/proxy"
	"github.com/erazemk/magazyn/internal/store"
)

// DefaultPruneSchedule prunes expired token revocations once an hour.
const DefaultPruneSchedule = "@hourly"

const pruneTimeout = time.Minute

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron *cron.Cron
	exec proxy.Executor
	now  func() time.Time
}

// New creates a scheduler running its jobs against exec.
func New(exec proxy.Executor) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		exec: exec,
		now:  time.Now,
	}
}

// Start registers the jobs and starts the cron loop. An empty schedule
// uses DefaultPruneSchedule.
func (s *Scheduler) Start(pruneSchedule string) error {
	if pruneSchedule == "" {
		pruneSchedule = DefaultPruneSchedule
	}
	if _, err := s.cron.AddFunc(pruneSchedule, s.runPrune); err != nil {
		return fmt.Errorf("scheduling token prune %q: %w", pruneSchedule, err)
	}

	slog.Info("starting scheduler", "prune_schedule", pruneSchedule)
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	slog.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// PruneRevokedTokens removes revocations whose tokens have already expired.
func (s *Scheduler) PruneRevokedTokens(ctx context.Context) (int, error) {
	return store.PruneRevokedTokens(ctx, s.exec, s.now().UTC())
}

func (s *Scheduler) runPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	n, err := s.PruneRevokedTokens(ctx)
	if err != nil {
		slog.Error("failed to prune revoked tokens", "error", err)
		return
	}
	if n > 0 {
		slog.Info("pruned revoked tokens", "count", n)
	}
}
