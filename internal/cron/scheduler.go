package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts the standard five-field cron syntax.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// runner pairs a job with its parsed schedule and the mutex that keeps
// runs of the same job from overlapping.
type runner struct {
	job   Job
	sched cron.Schedule
	busy  sync.Mutex
}

// Scheduler drives the relay's background jobs. Schedules are validated
// at registration, so a bad expression surfaces as a startup error next
// to the config that caused it rather than at the first tick. A tick that
// fires while the previous run of the same job is still in flight is
// skipped, not queued.
type Scheduler struct {
	mu      sync.Mutex
	logger  *slog.Logger
	runners []*runner
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// NewScheduler creates an empty scheduler. Register jobs, then Start.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger}
}

// RegisterJob validates the job's schedule expression and queues it for
// Start. Job names must be unique.
func (s *Scheduler) RegisterJob(j Job) error {
	sched, err := scheduleParser.Parse(j.Schedule())
	if err != nil {
		return fmt.Errorf("cron: job %q has invalid schedule %q: %w", j.Name(), j.Schedule(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.runners {
		if r.job.Name() == j.Name() {
			return fmt.Errorf("cron: job %q already registered", j.Name())
		}
	}
	s.runners = append(s.runners, &runner{job: j, sched: sched})
	return nil
}

// Start begins ticking the registered jobs. The context handed to each
// job run is cancelled by Stop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("cron: scheduler already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.cron = cron.New(cron.WithParser(scheduleParser))

	for _, r := range s.runners {
		s.cron.Schedule(r.sched, cron.FuncJob(func() { s.runOnce(ctx, r) }))
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.runners))
	return nil
}

// runOnce executes one tick of a job unless its previous run is still in
// flight. TryLock keeps the check and the acquire atomic.
func (s *Scheduler) runOnce(ctx context.Context, r *runner) {
	if !r.busy.TryLock() {
		s.logger.Warn("job tick skipped, previous run still in flight",
			"job", r.job.Name(),
		)
		return
	}
	defer r.busy.Unlock()

	if err := r.job.Run(ctx); err != nil {
		s.logger.Error("job failed",
			"job", r.job.Name(),
			"error", err,
		)
		return
	}
	s.logger.Debug("job completed", "job", r.job.Name())
}

// Stop cancels the job context and waits for in-flight runs, up to the
// caller's deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron == nil {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron: jobs still running at shutdown deadline: %w", ctx.Err())
	}
}
