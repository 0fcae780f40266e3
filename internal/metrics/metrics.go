// Package metrics records crawl outcomes as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"BlogCrawler/internal/ports"
)

// Entry outcomes.
const (
	OutcomeNew     = "new"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Collector implements ports.RunMetrics.
type Collector struct {
	entries        *prometheus.CounterVec
	sources        *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	commits        prometheus.Counter
	commitOps      prometheus.Histogram
}

var _ ports.RunMetrics = (*Collector)(nil)

// NewCollector creates the crawl metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogcrawler_entries_total",
			Help: "Feed entries processed, by source and outcome.",
		}, []string{"source", "outcome"}),
		sources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogcrawler_sources_total",
			Help: "Sources processed, by source and result.",
		}, []string{"source", "result"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blogcrawler_source_duration_seconds",
			Help:    "Wall time spent on one source.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"source"}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogcrawler_commits_total",
			Help: "Successful store commits.",
		}),
		commitOps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blogcrawler_commit_ops",
			Help:    "Operations per store commit.",
			Buckets: []float64{2, 10, 50, 100, 250, 500},
		}),
	}

	reg.MustRegister(
		c.entries,
		c.sources,
		c.sourceDuration,
		c.commits,
		c.commitOps,
	)

	return c
}

func (c *Collector) ObserveEntry(sourceID, outcome string) {
	c.entries.WithLabelValues(sourceID, outcome).Inc()
}

func (c *Collector) ObserveSource(sourceID string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.sources.WithLabelValues(sourceID, result).Inc()
	c.sourceDuration.WithLabelValues(sourceID).Observe(duration.Seconds())
}

func (c *Collector) ObserveCommit(ops int) {
	c.commits.Inc()
	c.commitOps.Observe(float64(ops))
}

// Push sends everything in gatherer to a Pushgateway, grouped by run.
func Push(ctx context.Context, url, job, runID string, gatherer prometheus.Gatherer) error {
	err := push.New(url, job).
		Gatherer(gatherer).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Nop discards observations.
type Nop struct{}

var _ ports.RunMetrics = Nop{}

func (Nop) ObserveEntry(string, string)               {}
func (Nop) ObserveSource(string, bool, time.Duration) {}
func (Nop) ObserveCommit(int)                         {}
