// Package strategy holds the content extraction strategies registered per source family.
package strategy

import (
	"strings"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/extractor"
)

// Defaults returns every built-in strategy.
func Defaults() []extractor.Extractor {
	return []extractor.Extractor{
		NewMedium(),
		NewKakao(),
		NewNaverD2(),
		NewWoowahan(),
		NewLine(),
	}
}

func result(description, content string) domain.ExtractionResult {
	return domain.ExtractionResult{
		Description: extractor.Describe(description),
		Content:     content,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// pageBody runs the selector chain over a live page and falls back to readability
// when no selector yields enough markup.
func pageBody(page *extractor.Page, selectors []string, minLen int, noise string) string {
	if html, ok := extractor.FirstMatch(page.Doc, selectors, minLen, noise); ok {
		return html
	}
	article, err := page.Readable()
	if err != nil || extractor.RuneLen(article.Content) <= minLen {
		return ""
	}
	return extractor.CleanHTML(article.Content)
}

func attr(page *extractor.Page, selector, name string) string {
	v, _ := page.Doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}
