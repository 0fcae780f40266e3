package strategy

import (
	"context"
	"fmt"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/extractor"
)

const lineContentSelector = ".content_inner > .content"

// Line extracts techblog.lycorp.co.jp posts.
type Line struct{}

var _ extractor.Extractor = (*Line)(nil)

func NewLine() *Line {
	return &Line{}
}

func (l *Line) Name() string {
	return "line"
}

func (l *Line) ExtractContent(ctx context.Context, in extractor.Input) (domain.ExtractionResult, error) {
	entry := in.Entry

	var content, description string
	if entry.ContentEncoded != "" {
		content = entry.ContentEncoded
		description = extractor.TagText(entry.Description)
		if description == "" {
			description = extractor.FirstParagraph(content, extractor.MinParagraphLen, nil)
		}
		return result(description, content), nil
	}

	page, err := in.Page(ctx)
	if err != nil {
		return result(description, content), fmt.Errorf("line page %s: %w", in.Link, err)
	}

	content = pageBody(page, []string{lineContentSelector}, 0, "")
	description = extractor.TagText(entry.Description)
	if description == "" {
		description = extractor.FirstParagraphIn(page.Doc.Find(lineContentSelector), extractor.MinParagraphLen, nil)
	}

	return result(description, content), nil
}

func (l *Line) ExtractThumbnail(ctx context.Context, in extractor.Input) (string, error) {
	if src := extractor.FirstImage(firstNonEmpty(in.Entry.Content, in.Entry.ContentEncoded)); src != "" {
		return extractor.ResolveURL(in.Link, src), nil
	}

	page, err := in.Page(ctx)
	if err != nil {
		return "", fmt.Errorf("line page %s: %w", in.Link, err)
	}

	src := extractor.MetaContent(page.Doc, extractor.MetaOGImage)
	if src == "" {
		src = attr(page, lineContentSelector+" img", "src")
	}
	return extractor.ResolveURL(page.URL.String(), src), nil
}
