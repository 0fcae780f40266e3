// Package extractor defines the per-source content extraction strategies and the
// helpers they share.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"BlogCrawler/internal/domain"
)

// ErrUnknownStrategy is returned by Registry.Resolve for unregistered names.
var ErrUnknownStrategy = errors.New("unknown extraction strategy")

// Input carries everything a strategy may consult for one entry.
type Input struct {
	Source domain.SourceConfig
	Entry  domain.FeedEntry
	Link   string
	Pages  PageFetcher
}

// Page fetches the live article page through the entry's page fetcher.
func (in Input) Page(ctx context.Context) (*Page, error) {
	if in.Pages == nil {
		return nil, ErrNoPageFetcher
	}
	return in.Pages.Fetch(ctx, in.Link)
}

// Extractor captures a single strategy implementation (generic aggregator, bespoke blogs).
//
// Both methods always return a usable value. A non-nil error reports that the value
// is degraded; callers log it and carry on with what was returned. An empty thumbnail
// means none was found.
type Extractor interface {
	Name() string
	ExtractContent(ctx context.Context, in Input) (domain.ExtractionResult, error)
	ExtractThumbnail(ctx context.Context, in Input) (string, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds a registry pre-populated with the given strategies.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: map[string]Extractor{}}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(extractor Extractor) {
	if r.extractors == nil {
		r.extractors = map[string]Extractor{}
	}
	r.extractors[extractor.Name()] = extractor
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Extractor, error) {
	if extractor, ok := r.extractors[name]; ok {
		return extractor, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
}

// Names lists registered strategies in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
