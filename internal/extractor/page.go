package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// ErrNoPageFetcher is returned when a strategy needs the live page but none is wired.
var ErrNoPageFetcher = errors.New("live page fetching is not configured")

// PageFetcher downloads a live article page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// Page is a fetched article page: the parsed document plus the raw markup.
type Page struct {
	URL *url.URL
	Doc *goquery.Document
	raw []byte
}

// NewPage parses raw HTML fetched from pageURL.
func NewPage(pageURL string, raw []byte) (*Page, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return &Page{URL: parsed, Doc: doc, raw: raw}, nil
}

// Readable runs readability over the raw page. The page document is not modified.
func (p *Page) Readable() (readability.Article, error) {
	article, err := readability.FromReader(bytes.NewReader(p.raw), p.URL)
	if err != nil {
		return readability.Article{}, fmt.Errorf("readability: %w", err)
	}
	return article, nil
}

type memoResult struct {
	page *Page
	err  error
}

// Memo caches pages by URL so the content and thumbnail passes over one entry share
// a single download. A Memo belongs to exactly one entry and is not safe for
// concurrent use.
type Memo struct {
	inner   PageFetcher
	results map[string]memoResult
}

// NewMemo wraps inner; a nil inner makes every fetch fail with ErrNoPageFetcher.
func NewMemo(inner PageFetcher) *Memo {
	return &Memo{inner: inner, results: map[string]memoResult{}}
}

// Fetch returns the cached outcome for pageURL, downloading it on first use.
func (m *Memo) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if m.inner == nil {
		return nil, ErrNoPageFetcher
	}
	if res, ok := m.results[pageURL]; ok {
		return res.page, res.err
	}

	page, err := m.inner.Fetch(ctx, pageURL)
	m.results[pageURL] = memoResult{page: page, err: err}
	return page, err
}

// Fetched reports how many distinct pages were requested.
func (m *Memo) Fetched() int {
	return len(m.results)
}
