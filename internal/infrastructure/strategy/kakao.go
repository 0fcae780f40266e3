package strategy

import (
	"context"
	"fmt"
	"strings"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/extractor"
)

var (
	kakaoSelectors = []string{
		".preview",         // current layout
		"article .content", // previous layout
		".inner_content",
		".entry-content",
		"article",
	}
	kakaoNoise = ".wrap_tit, .box_author, .box_btn, .cont_other, .box_giscus"
)

// Kakao extracts tech.kakao.com posts, whose feed often ships only a teaser.
type Kakao struct{}

var _ extractor.Extractor = (*Kakao)(nil)

func NewKakao() *Kakao {
	return &Kakao{}
}

func (k *Kakao) Name() string {
	return "kakao"
}

func (k *Kakao) ExtractContent(ctx context.Context, in extractor.Input) (domain.ExtractionResult, error) {
	entry := in.Entry

	var description string
	for _, field := range []string{entry.Description, entry.Summary, entry.Subtitle, entry.ContentEncoded} {
		if field == "" {
			continue
		}
		description = extractor.TagText(field)
		if extractor.RuneLen(description) > extractor.MinParagraphLen {
			break
		}
	}

	content := firstNonEmpty(entry.ContentEncoded, entry.Content)
	if extractor.RuneLen(content) >= extractor.MinBodyLen {
		return result(description, content), nil
	}

	page, err := in.Page(ctx)
	if err != nil {
		return result(description, content), fmt.Errorf("kakao page %s: %w", in.Link, err)
	}

	if extractor.RuneLen(description) < extractor.MinParagraphLen {
		if meta := extractor.MetaContent(page.Doc, extractor.MetaOGDescription, extractor.MetaDescription); meta != "" {
			description = meta
		}
	}
	if extractor.RuneLen(description) < extractor.MinParagraphLen {
		text := strings.TrimSpace(page.Doc.Find(".inner_content p").First().Text())
		if text == "" {
			text = page.Doc.Find(".inner_content").First().Text()
		}
		if extractor.CollapseSpace(text) != "" {
			description = text
		}
	}

	if body := pageBody(page, kakaoSelectors, extractor.MinBodyLen, kakaoNoise); body != "" {
		content = body
	}

	return result(description, content), nil
}

// ExtractThumbnail prefers the feed thumbnail, then the page's social images.
func (k *Kakao) ExtractThumbnail(ctx context.Context, in extractor.Input) (string, error) {
	if in.Entry.Thumbnail != "" {
		return in.Entry.Thumbnail, nil
	}

	page, err := in.Page(ctx)
	if err != nil {
		return "", fmt.Errorf("kakao page %s: %w", in.Link, err)
	}

	src := extractor.MetaContent(page.Doc, extractor.MetaOGImage, extractor.MetaTwitterImage)
	if src == "" {
		src = attr(page, "article img", "src")
	}
	return extractor.ResolveURL(page.URL.String(), src), nil
}
