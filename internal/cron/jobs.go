package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nyxmora/relay/internal/dispatch"
)

// StatsSource is the subset of the dispatcher needed by the usage report.
// Defined here to keep the scheduler decoupled from dispatch internals.
type StatsSource interface {
	Stats() dispatch.Snapshot
}

// ActivityCounter is the subset of the activity log needed by the usage
// report.
type ActivityCounter interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// UsageReportJob periodically logs a per-provider usage summary plus the
// interaction volume since the previous report.
type UsageReportJob struct {
	Stats        StatsSource
	Activity     ActivityCounter // optional
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"

	mu      sync.Mutex
	lastRun time.Time
}

// Compile-time interface check.
var _ Job = (*UsageReportJob)(nil)

// Name implements Job.
func (j *UsageReportJob) Name() string { return "usage_report" }

// Schedule implements Job.
func (j *UsageReportJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run logs the current stats snapshot.
func (j *UsageReportJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: usage report cancelled: %w", ctx.Err())
	}

	j.mu.Lock()
	since := j.lastRun
	if since.IsZero() {
		since = time.Now().Add(-time.Hour)
	}
	j.lastRun = time.Now()
	j.mu.Unlock()

	for name, ps := range j.Stats.Stats() {
		attrs := []any{
			"provider", name,
			"enabled", ps.Enabled,
			"success", ps.Success,
			"failures", ps.Failures,
		}
		if ps.SuccessRate != nil {
			attrs = append(attrs, "success_rate", *ps.SuccessRate)
		}
		j.Logger.Info("cron: provider usage", attrs...)
	}

	if j.Activity != nil {
		n, err := j.Activity.CountSince(ctx, since)
		if err != nil {
			return fmt.Errorf("cron: count interactions: %w", err)
		}
		j.Logger.Info("cron: interaction volume", "since", since, "count", n)
	}
	return nil
}

// ActivityPruner is the subset of the activity log needed by the retention
// job.
type ActivityPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityPruneJob deletes interactions older than Retention.
type ActivityPruneJob struct {
	Store        ActivityPruner
	Retention    time.Duration // zero = default 30 days
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 3 * * *"
}

// Compile-time interface check.
var _ Job = (*ActivityPruneJob)(nil)

// Name implements Job.
func (j *ActivityPruneJob) Name() string { return "activity_prune" }

// Schedule implements Job.
func (j *ActivityPruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 3 * * *"
}

// Run deletes interactions past the retention window.
func (j *ActivityPruneJob) Run(ctx context.Context) error {
	retention := j.Retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	pruned, err := j.Store.PruneBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return fmt.Errorf("cron: prune activity: %w", err)
	}
	if pruned > 0 {
		j.Logger.Info("cron: pruned old interactions", "count", pruned)
	}
	return nil
}
