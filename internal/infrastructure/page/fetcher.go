// Package page downloads article pages for extractors that need the live document.
package page

import (
	"context"
	"fmt"
	"net/http"

	"BlogCrawler/internal/extractor"
	"BlogCrawler/internal/infrastructure/httpclient"
)

// Fetcher implements extractor.PageFetcher over HTTP.
type Fetcher struct {
	client   *http.Client
	header   http.Header
	maxBytes int64
}

var _ extractor.PageFetcher = (*Fetcher)(nil)

func NewFetcher(client *http.Client, userAgent string, maxBytes int64) *Fetcher {
	if client == nil {
		client = httpclient.New(httpclient.Options{})
	}
	if userAgent == "" {
		userAgent = httpclient.DefaultUserAgent
	}

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	header.Set("Accept", "text/html,application/xhtml+xml")

	return &Fetcher{client: client, header: header, maxBytes: maxBytes}
}

// Fetch downloads and parses the page at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*extractor.Page, error) {
	raw, err := httpclient.Get(ctx, f.client, rawURL, f.header, f.maxBytes)
	if err != nil {
		return nil, err
	}

	p, err := extractor.NewPage(rawURL, raw)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", rawURL, err)
	}
	return p, nil
}
