// Package scheduler runs the periodic in-process housekeeping jobs.
package scheduler

import (
	"context"
	"time"

	"paintquote_backend/internal/events"
	"paintquote_backend/platform/logger"
)

const defaultJanitorInterval = 5 * time.Minute

// Sweeper removes expired entries and reports how many went away.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SweeperFunc adapts a function to Sweeper.
type SweeperFunc func(ctx context.Context) (int, error)

func (f SweeperFunc) Sweep(ctx context.Context) (int, error) { return f(ctx) }

// Job is a named sweeper. OnSwept runs after a sweep that removed something.
type Job struct {
	Name    string
	Sweeper Sweeper
	OnSwept func(ctx context.Context, n int)
}

// Janitor periodically sweeps idle conversations and stale limiter buckets.
type Janitor struct {
	jobs     []Job
	log      *logger.Logger
	interval time.Duration
}

func NewJanitor(log *logger.Logger, interval time.Duration, jobs ...Job) *Janitor {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Janitor{jobs: jobs, log: log, interval: interval}
}

// ConversationJob sweeps a session store and announces evictions on the bus.
func ConversationJob(s Sweeper, bus events.Bus) Job {
	return Job{
		Name:    "conversations",
		Sweeper: s,
		OnSwept: func(ctx context.Context, n int) {
			if bus == nil {
				return
			}
			bus.Publish(ctx, events.ConversationsExpired{BaseEvent: events.NewBaseEvent(), Count: n})
		},
	}
}

// Run blocks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	if j == nil || len(j.jobs) == 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps every job a single time.
func (j *Janitor) RunOnce(ctx context.Context) {
	for _, job := range j.jobs {
		if ctx.Err() != nil {
			return
		}
		n, err := job.Sweeper.Sweep(ctx)
		if err != nil {
			j.log.Warn("janitor sweep failed", "job", job.Name, "error", err)
			continue
		}
		if n == 0 {
			continue
		}
		j.log.Info("janitor swept entries", "job", job.Name, "removed", n)
		if job.OnSwept != nil {
			job.OnSwept(ctx, n)
		}
	}
}
