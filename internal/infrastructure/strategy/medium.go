package strategy

import (
	"context"
	"strings"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/extractor"
)

// Medium is the generic aggregator strategy shared by every Medium-hosted blog.
// It never touches the live page.
type Medium struct{}

var _ extractor.Extractor = (*Medium)(nil)

func NewMedium() *Medium {
	return &Medium{}
}

// Name identifies the strategy inside the registry.
func (m *Medium) Name() string {
	return "medium"
}

// ExtractContent prefers content:encoded, and takes the description from the feed unless
// it is missing or still carries markup.
func (m *Medium) ExtractContent(_ context.Context, in extractor.Input) (domain.ExtractionResult, error) {
	entry := in.Entry
	content := firstNonEmpty(entry.ContentEncoded, entry.Content)

	description := firstNonEmpty(entry.Description, entry.Subtitle)
	if strings.TrimSpace(description) == "" || strings.Contains(description, "<") {
		description = extractor.Fragment(content).Find("p").First().Text()
	}

	return result(description, content), nil
}

// ExtractThumbnail returns the first absolute image of the content variants.
func (m *Medium) ExtractThumbnail(_ context.Context, in extractor.Input) (string, error) {
	for _, html := range []string{in.Entry.Content, in.Entry.ContentEncoded} {
		if src := extractor.FirstImage(html); extractor.IsAbsoluteHTTP(src) {
			return src, nil
		}
	}
	return "", nil
}
