package page

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"BlogCrawler/internal/extractor"
)

// Throttled spaces live page downloads through a shared limiter.
type Throttled struct {
	inner   extractor.PageFetcher
	limiter *rate.Limiter
}

var _ extractor.PageFetcher = (*Throttled)(nil)

// NewLimiter allows one fetch per delay; a non-positive delay disables limiting.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func NewThrottled(inner extractor.PageFetcher, limiter *rate.Limiter) *Throttled {
	return &Throttled{inner: inner, limiter: limiter}
}

// Fetch waits for the limiter, then delegates.
func (t *Throttled) Fetch(ctx context.Context, pageURL string) (*extractor.Page, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Fetch(ctx, pageURL)
}
