package usecase

import (
	"context"
	"log/slog"
	"time"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/ports"
)

// Runner executes one crawl. *Pipeline is the canonical implementation.
type Runner interface {
	Run(ctx context.Context, opts RunOptions) (domain.RunReport, error)
}

// Scheduler wires the cron driver with the crawl use case.
type Scheduler struct {
	driver ports.Scheduler
	runner Runner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, runner: runner, logger: logger}
}

// Start registers a full crawl with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := s.runner.Run(ctx, RunOptions{})
		if err != nil {
			s.logger.Error("scheduled crawl failed", "trigger", trigger, "run_id", report.RunID, "error", err)
			return
		}
		s.logger.Info("scheduled crawl done", "trigger", trigger, "run_id", report.RunID, "new", report.TotalNew())
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
