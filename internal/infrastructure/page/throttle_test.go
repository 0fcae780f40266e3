package page

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"BlogCrawler/internal/extractor"
)

type nopFetcher struct{ calls int }

func (n *nopFetcher) Fetch(_ context.Context, pageURL string) (*extractor.Page, error) {
	n.calls++
	return extractor.NewPage(pageURL, []byte("<html></html>"))
}

func TestThrottledSpacesFetches(t *testing.T) {
	t.Parallel()

	inner := &nopFetcher{}
	throttled := NewThrottled(inner, NewLimiter(40*time.Millisecond))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := throttled.Fetch(context.Background(), "https://example.com"); err != nil {
			t.Fatalf("Fetch error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Fatalf("three fetches finished in %v, expected spacing", elapsed)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 inner calls, got %d", inner.calls)
	}
}

func TestThrottledHonoursCancellation(t *testing.T) {
	t.Parallel()

	inner := &nopFetcher{}
	throttled := NewThrottled(inner, NewLimiter(time.Hour))

	if _, err := throttled.Fetch(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("first fetch should pass the burst: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := throttled.Fetch(ctx, "https://example.com"); err == nil {
		t.Fatalf("expected cancelled wait to fail")
	}
	if inner.calls != 1 {
		t.Fatalf("cancelled fetch reached the network")
	}
}

func TestNewLimiterDisabled(t *testing.T) {
	t.Parallel()

	if NewLimiter(0).Limit() != rate.Inf {
		t.Fatalf("zero delay should disable limiting")
	}
}
