// Package feed downloads and normalises RSS and Atom feeds.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/infrastructure/httpclient"
	"BlogCrawler/internal/ports"
)

// DefaultAccept lists the feed media types sent with every request.
const DefaultAccept = "application/atom+xml,application/xml,text/xml,application/rss+xml"

// Fetcher retrieves a feed over HTTP and maps its items to domain entries.
type Fetcher struct {
	client   *http.Client
	header   http.Header
	maxBytes int64
	now      func() time.Time
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher builds a fetcher. Empty userAgent or accept fall back to defaults.
func NewFetcher(client *http.Client, userAgent, accept string, maxBytes int64) *Fetcher {
	if client == nil {
		client = httpclient.New(httpclient.Options{Timeout: 30 * time.Second})
	}
	if userAgent == "" {
		userAgent = httpclient.DefaultUserAgent
	}
	if accept == "" {
		accept = DefaultAccept
	}

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	header.Set("Accept", accept)

	return &Fetcher{
		client:   client,
		header:   header,
		maxBytes: maxBytes,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Fetch downloads feedURL and returns its entries in document order.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]domain.FeedEntry, error) {
	raw, err := httpclient.Get(ctx, f.client, feedURL, f.header, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	discovered := f.now()
	entries := make([]domain.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, toEntry(parsed.FeedType, item, discovered))
	}
	return entries, nil
}

func toEntry(feedType string, item *gofeed.Item, discovered time.Time) domain.FeedEntry {
	entry := domain.FeedEntry{
		Title:      strings.TrimSpace(item.Title),
		Link:       strings.TrimSpace(item.Link),
		GUID:       item.GUID,
		Discovered: discovered,
		Creator:    creator(item),
		Thumbnail:  thumbnail(item),
		Summary:    item.Custom["summary"],
		Subtitle:   item.Custom["subtitle"],
	}

	// gofeed folds content:encoded into Content for RSS; Atom has no encoded form.
	if feedType == "rss" {
		entry.Content = item.Description
		entry.Description = item.Description
		entry.ContentEncoded = firstExtension(item.Extensions, "content", "encoded")
		if entry.ContentEncoded == "" {
			entry.ContentEncoded = item.Content
		}
	} else {
		entry.Content = item.Content
		if entry.Summary == "" {
			entry.Summary = item.Description
		}
	}

	switch {
	case item.PublishedParsed != nil:
		entry.Published = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		entry.Published = item.UpdatedParsed.UTC()
	}

	return entry
}

func creator(item *gofeed.Item) string {
	if item.DublinCoreExt != nil {
		for _, c := range item.DublinCoreExt.Creator {
			if c = strings.TrimSpace(c); c != "" {
				return c
			}
		}
	}
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	return ""
}

func thumbnail(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, name := range []string{"thumbnail", "content"} {
		for _, e := range item.Extensions["media"][name] {
			if url := e.Attrs["url"]; url != "" {
				return url
			}
		}
	}
	return ""
}

func firstExtension(exts ext.Extensions, prefix, name string) string {
	for _, e := range exts[prefix][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}
