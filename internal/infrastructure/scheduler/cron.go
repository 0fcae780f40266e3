package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"BlogCrawler/internal/ports"
)

// CronScheduler fires a job on every configured cron expression.
type CronScheduler struct {
	specs  []string
	loc    *time.Location
	logger *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron

	// running is shared by every expression; one process runs one job at a time.
	running sync.Mutex
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for standard five-field expressions evaluated in loc.
func NewCronScheduler(specs []string, loc *time.Location, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{specs: specs, loc: loc, logger: logger}
}

// Validate parses every expression without starting anything.
func (c *CronScheduler) Validate() error {
	for _, spec := range c.specs {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("cron expression %q: %w", spec, err)
		}
	}
	return nil
}

// Start registers job for each expression. A fire of any expression is skipped while
// a previous run, from the same or another expression, is still going. The scheduler
// stops when ctx is cancelled.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	sched := cron.New(cron.WithLocation(c.loc))
	for _, spec := range c.specs {
		_, err := sched.AddFunc(spec, func() {
			now := time.Now().In(c.loc)
			if !c.running.TryLock() {
				c.logger.Warn("scheduled run skipped, previous run still going", "cron", spec, "at", now.Format(time.RFC3339))
				return
			}
			defer c.running.Unlock()

			c.logger.Info("scheduled run triggered", "cron", spec, "at", now.Format(time.RFC3339))
			job(now)
		})
		if err != nil {
			return fmt.Errorf("cron expression %q: %w", spec, err)
		}
	}

	sched.Start()
	c.cron = sched
	c.logger.Info("scheduler started", "expressions", c.specs, "timezone", c.loc.String())

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Next reports the earliest upcoming fire time, zero when not started.
func (c *CronScheduler) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return time.Time{}
	}

	var next time.Time
	for _, e := range c.cron.Entries() {
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

// Stop halts the scheduler and waits for a running job until ctx is done.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	sched := c.cron
	c.cron = nil
	c.mu.Unlock()

	if sched == nil {
		return nil
	}

	done := sched.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
