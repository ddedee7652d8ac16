package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nyxmora/relay/internal/dispatch"
)

// testStats implements StatsSource for job tests.
type testStats struct {
	snap dispatch.Snapshot
}

func (s *testStats) Stats() dispatch.Snapshot { return s.snap }

// testCounter implements ActivityCounter for job tests.
type testCounter struct {
	calls     atomic.Int32
	lastSince time.Time
	err       error
}

func (c *testCounter) CountSince(_ context.Context, since time.Time) (int64, error) {
	c.calls.Add(1)
	c.lastSince = since
	return 7, c.err
}

func TestUsageReportJob_NameAndSchedule(t *testing.T) {
	t.Parallel()
	j := &UsageReportJob{Logger: slog.Default()}
	if j.Name() != "usage_report" {
		t.Errorf("name = %q, want %q", j.Name(), "usage_report")
	}
	if j.Schedule() != "0 * * * *" {
		t.Errorf("schedule = %q, want %q", j.Schedule(), "0 * * * *")
	}
	j.ScheduleExpr = "*/15 * * * *"
	if j.Schedule() != "*/15 * * * *" {
		t.Errorf("schedule override = %q", j.Schedule())
	}
}

func TestUsageReportJob_Run(t *testing.T) {
	t.Parallel()

	rate := 0.5
	counter := &testCounter{}
	j := &UsageReportJob{
		Stats: &testStats{snap: dispatch.Snapshot{
			"groq": {Enabled: true, Success: 3, Failures: 3, SuccessRate: &rate},
		}},
		Activity: counter,
		Logger:   slog.Default(),
	}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter.calls.Load() != 1 {
		t.Errorf("count calls = %d, want 1", counter.calls.Load())
	}

	// Second run counts from the first run, not from an hour back.
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(counter.lastSince) > time.Minute {
		t.Errorf("second run counted since %v, want recent", counter.lastSince)
	}
}

func TestUsageReportJob_CounterError(t *testing.T) {
	t.Parallel()

	j := &UsageReportJob{
		Stats:    &testStats{snap: dispatch.Snapshot{}},
		Activity: &testCounter{err: errors.New("db locked")},
		Logger:   slog.Default(),
	}
	if err := j.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing counter")
	}
}

func TestUsageReportJob_NoActivityLog(t *testing.T) {
	t.Parallel()

	j := &UsageReportJob{
		Stats:  &testStats{snap: dispatch.Snapshot{"groq": {Enabled: true}}},
		Logger: slog.Default(),
	}
	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error without activity log: %v", err)
	}
}

func TestUsageReportJob_CancelledContext(t *testing.T) {
	t.Parallel()

	j := &UsageReportJob{Stats: &testStats{}, Logger: slog.Default()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := j.Run(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

// testPruner implements ActivityPruner for job tests.
type testPruner struct {
	lastCutoff time.Time
	pruned     int64
	err        error
}

func (p *testPruner) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.lastCutoff = cutoff
	return p.pruned, p.err
}

func TestActivityPruneJob_NameAndSchedule(t *testing.T) {
	t.Parallel()
	j := &ActivityPruneJob{Logger: slog.Default()}
	if j.Name() != "activity_prune" {
		t.Errorf("name = %q, want %q", j.Name(), "activity_prune")
	}
	if j.Schedule() != "0 3 * * *" {
		t.Errorf("schedule = %q, want %q", j.Schedule(), "0 3 * * *")
	}
}

func TestActivityPruneJob_Run(t *testing.T) {
	t.Parallel()

	pruner := &testPruner{pruned: 4}
	j := &ActivityPruneJob{
		Store:     pruner,
		Retention: 24 * time.Hour,
		Logger:    slog.Default(),
	}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantCutoff := time.Now().Add(-24 * time.Hour)
	if diff := pruner.lastCutoff.Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want about %v", pruner.lastCutoff, wantCutoff)
	}
}

func TestActivityPruneJob_DefaultRetention(t *testing.T) {
	t.Parallel()

	pruner := &testPruner{}
	j := &ActivityPruneJob{Store: pruner, Logger: slog.Default()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantCutoff := time.Now().Add(-30 * 24 * time.Hour)
	if diff := pruner.lastCutoff.Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want about 30 days back", pruner.lastCutoff)
	}
}

func TestActivityPruneJob_StoreError(t *testing.T) {
	t.Parallel()

	j := &ActivityPruneJob{
		Store:  &testPruner{err: errors.New("db locked")},
		Logger: slog.Default(),
	}
	if err := j.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing store")
	}
}
