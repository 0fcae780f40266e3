package extractor

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Length thresholds, in runes, below which feed data is considered insufficient.
const (
	MinParagraphLen = 50
	MinBodyLen      = 200

	// MaxDescriptionLen caps every description produced by a strategy.
	MaxDescriptionLen = 200
	ellipsis          = "..."
)

// NoDescription is stored when no description could be extracted.
const NoDescription = "No description available"

// Common meta selectors.
const (
	MetaOGDescription = `meta[property="og:description"]`
	MetaDescription   = `meta[name="description"]`
	MetaOGImage       = `meta[property="og:image"]`
	MetaTwitterImage  = `meta[name="twitter:image"]`
)

var (
	cdataExpr = regexp.MustCompile(`<!\[CDATA\[([\s\S]*?)\]\]>`)
	// UGC policy drops script and style elements together with their contents.
	sanitizer = bluemonday.UGCPolicy()
)

// Fragment parses an HTML fragment. Malformed input yields an empty document.
func Fragment(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		empty, _ := goquery.NewDocumentFromReader(strings.NewReader(""))
		return empty
	}
	return doc
}

// StripHTML removes script and style elements and returns the trimmed text.
func StripHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc := Fragment(html)
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text())
}

// TagText unescapes CDATA sections and strips tags, keeping the text.
func TagText(html string) string {
	return StripHTML(UnescapeCDATA(html))
}

// UnescapeCDATA replaces every CDATA section with its literal contents.
func UnescapeCDATA(s string) string {
	return cdataExpr.ReplaceAllString(s, "$1")
}

// CollapseSpace folds whitespace runs into single spaces and trims the result.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate caps s at MaxDescriptionLen runes, ending the cut text with an ellipsis.
func Truncate(s string) string {
	if RuneLen(s) <= MaxDescriptionLen {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:MaxDescriptionLen-len(ellipsis)])) + ellipsis
}

// Describe normalises a description: collapsed whitespace, trimmed and capped.
// An empty input yields NoDescription.
func Describe(s string) string {
	s = Truncate(CollapseSpace(s))
	if s == "" {
		return NoDescription
	}
	return s
}

// CleanHTML strips script and style, unescapes CDATA and sanitises extracted markup.
func CleanHTML(html string) string {
	return strings.TrimSpace(sanitizer.Sanitize(UnescapeCDATA(html)))
}

// Paragraphs returns the trimmed text of every <p> in document order.
func Paragraphs(sel *goquery.Selection) []string {
	var out []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		out = append(out, strings.TrimSpace(p.Text()))
	})
	return out
}

// FirstParagraph returns the first paragraph of html longer than minLen runes that
// skip does not reject. skip may be nil.
func FirstParagraph(html string, minLen int, skip func(string) bool) string {
	return FirstParagraphIn(Fragment(html).Selection, minLen, skip)
}

// FirstParagraphIn is FirstParagraph over an already parsed selection.
func FirstParagraphIn(sel *goquery.Selection, minLen int, skip func(string) bool) string {
	for _, text := range Paragraphs(sel) {
		if RuneLen(text) <= minLen {
			continue
		}
		if skip != nil && skip(text) {
			continue
		}
		return text
	}
	return ""
}

// FirstImage returns the src of the first <img> in html.
func FirstImage(html string) string {
	if html == "" {
		return ""
	}
	src, _ := Fragment(html).Find("img").First().Attr("src")
	return strings.TrimSpace(src)
}

// MetaContent returns the first non-empty content attribute among the selectors.
func MetaContent(doc *goquery.Document, selectors ...string) string {
	if doc == nil {
		return ""
	}
	for _, selector := range selectors {
		if v, ok := doc.Find(selector).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// FirstMatch tries selectors most-specific-first and returns the cleaned markup of the
// first one whose inner HTML exceeds minLen runes. Elements matching noise are removed
// before measuring.
func FirstMatch(doc *goquery.Document, selectors []string, minLen int, noise string) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, selector := range selectors {
		match := doc.Find(selector).First()
		if match.Length() == 0 {
			continue
		}
		// pages are shared between passes, so trim a detached copy
		sel := match.Clone()
		sel.Find("script, style").Remove()
		if noise != "" {
			sel.Find(noise).Remove()
		}
		html, err := sel.Html()
		if err != nil || RuneLen(html) <= minLen {
			continue
		}
		return CleanHTML(html), true
	}
	return "", false
}

// IsAbsoluteHTTP reports whether u is a scheme-qualified http(s) URL.
func IsAbsoluteHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// ResolveURL resolves ref against base. Unparsable input returns ref unchanged.
func ResolveURL(base, ref string) string {
	if ref == "" || IsAbsoluteHTTP(ref) {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
