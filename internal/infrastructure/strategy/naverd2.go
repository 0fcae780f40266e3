package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/extractor"
)

const (
	naverD2Base = "https://d2.naver.com"

	// News digest posts open with boilerplate; the summary follows this heading.
	newsMarker  = "주요내용"
	newsTitle   = "FE News"
	bulletNoise = "◎"
)

// NaverD2 extracts d2.naver.com posts, including the "FE News" digest series.
type NaverD2 struct{}

var _ extractor.Extractor = (*NaverD2)(nil)

func NewNaverD2() *NaverD2 {
	return &NaverD2{}
}

func (n *NaverD2) Name() string {
	return "naver_d2"
}

func (n *NaverD2) ExtractContent(ctx context.Context, in extractor.Input) (domain.ExtractionResult, error) {
	entry := in.Entry
	content := firstNonEmpty(entry.Content, entry.ContentEncoded)

	var description string
	if content != "" {
		body := extractor.Fragment(content).Selection
		if isNewsDigest(in.Link, entry.Title) {
			description = newsDigestDescription(body)
		} else if first := strings.TrimSpace(body.Find("p").First().Text()); extractor.RuneLen(first) > extractor.MinParagraphLen {
			description = first
		}
	}

	if extractor.RuneLen(description) >= extractor.MinParagraphLen && content != "" {
		return result(description, content), nil
	}

	page, err := in.Page(ctx)
	if err != nil {
		return result(description, content), fmt.Errorf("naver d2 page %s: %w", in.Link, err)
	}

	if extractor.RuneLen(description) < extractor.MinParagraphLen {
		if meta := extractor.MetaContent(page.Doc, extractor.MetaOGDescription, extractor.MetaDescription); meta != "" {
			description = meta
		}
	}
	if extractor.RuneLen(description) < extractor.MinParagraphLen {
		if p := extractor.FirstParagraphIn(page.Doc.Find(".content__body"), extractor.MinParagraphLen, isNewsNoise); p != "" {
			description = p
		}
	}
	if content == "" {
		content = pageBody(page, []string{".content__body"}, 0, "")
	}

	return result(description, content), nil
}

// ExtractThumbnail resolves site-relative image paths against the D2 origin.
func (n *NaverD2) ExtractThumbnail(ctx context.Context, in extractor.Input) (string, error) {
	if src := extractor.FirstImage(in.Entry.Content); src != "" {
		return extractor.ResolveURL(naverD2Base, src), nil
	}

	page, err := in.Page(ctx)
	if err != nil {
		return "", fmt.Errorf("naver d2 page %s: %w", in.Link, err)
	}

	src := extractor.MetaContent(page.Doc, extractor.MetaOGImage)
	if src == "" {
		src = attr(page, ".content__body img", "src")
	}
	return extractor.ResolveURL(naverD2Base, src), nil
}

func isNewsDigest(link, title string) bool {
	return strings.Contains(link, "/news/") || strings.Contains(title, newsTitle)
}

func isNewsNoise(text string) bool {
	return strings.Contains(text, newsTitle) ||
		strings.Contains(text, newsMarker) ||
		strings.Contains(text, bulletNoise)
}

// newsDigestDescription takes the first meaningful paragraph after the marker heading,
// falling back to the first long paragraph that is not boilerplate.
func newsDigestDescription(body *goquery.Selection) string {
	afterMarker := false
	for _, text := range extractor.Paragraphs(body) {
		if strings.Contains(text, newsMarker) {
			afterMarker = true
			continue
		}
		if afterMarker && text != "" && !strings.Contains(text, newsTitle) && !strings.Contains(text, bulletNoise) {
			return text
		}
	}
	return extractor.FirstParagraphIn(body, extractor.MinParagraphLen, isNewsNoise)
}
