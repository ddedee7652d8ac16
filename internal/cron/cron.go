// Package cron runs the relay's periodic background jobs, currently the
// usage report and activity log retention.
package cron

import "context"

// Job is one periodic background task.
type Job interface {
	// Name uniquely identifies the job in logs and registration.
	Name() string

	// Schedule returns the five-field cron expression the job runs on.
	Schedule() string

	// Run executes one tick. The context is cancelled when the scheduler
	// shuts down; long-running jobs should watch it.
	Run(ctx context.Context) error
}
