package ports

import (
	"context"
	"time"

	"BlogCrawler/internal/domain"
)

// FeedFetcher retrieves a syndication feed and returns its entries in delivered order.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.FeedEntry, error)
}

// ArticleStore is the document store holding articles, bodies and tag counters.
type ArticleStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	// Commit applies all ops atomically.
	Commit(ctx context.Context, ops []domain.WriteOp) error
	DeleteSource(ctx context.Context, sourceID string, batchSize int) (int, error)
	Close() error
}

// Classifier tags an article against the controlled vocabulary.
type Classifier interface {
	Classify(ctx context.Context, title, body string) (domain.Classification, error)
}

// Reporter delivers the formatted run summary to a human channel (Slack, Telegram, etc.).
type Reporter interface {
	Publish(ctx context.Context, text string) error
}

// RunMetrics observes pipeline outcomes.
type RunMetrics interface {
	ObserveEntry(sourceID, outcome string)
	ObserveSource(sourceID string, success bool, duration time.Duration)
	ObserveCommit(ops int)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
