package strategy

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/extractor"
)

const (
	woowahanInternalHost = "techblog.woowa.in"
	woowahanPublicHost   = "techblog.woowahan.com"
	woowahanLogoMarker   = "우아한테크-로고"
	woowahanDefaultThumb = "https://techblog.woowahan.com/wp-content/uploads/2021/05/default-thumbnail.jpg"
)

var emojiExpr = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}]`)

// Woowahan extracts techblog.woowahan.com (WordPress) posts.
type Woowahan struct{}

var _ extractor.Extractor = (*Woowahan)(nil)

func NewWoowahan() *Woowahan {
	return &Woowahan{}
}

func (w *Woowahan) Name() string {
	return "woowahan"
}

func (w *Woowahan) ExtractContent(ctx context.Context, in extractor.Input) (domain.ExtractionResult, error) {
	content := in.Entry.ContentEncoded

	var description string
	if content != "" {
		description = extractor.FirstParagraph(content, extractor.MinParagraphLen, nil)
	}
	if content != "" && description != "" {
		return result(description, content), nil
	}

	page, err := in.Page(ctx)
	if err != nil {
		return result(description, content), fmt.Errorf("woowahan page %s: %w", in.Link, err)
	}

	if content == "" {
		content = pageBody(page, []string{".entry-content"}, 0, "")
	}
	if description == "" {
		description = extractor.MetaContent(page.Doc, extractor.MetaOGDescription, extractor.MetaDescription)
	}
	if description == "" {
		description = extractor.FirstParagraphIn(page.Doc.Find(".entry-content"), extractor.MinParagraphLen, nil)
	}

	return result(description, content), nil
}

// ExtractThumbnail skips emoji images and always yields an image: the blog default
// is returned when nothing better exists.
func (w *Woowahan) ExtractThumbnail(ctx context.Context, in extractor.Input) (string, error) {
	if src := firstContentImage(in.Entry.ContentEncoded); src != "" {
		return publicHost(src), nil
	}

	page, err := in.Page(ctx)
	if err != nil {
		return woowahanDefaultThumb, fmt.Errorf("woowahan page %s: %w", in.Link, err)
	}

	if og := extractor.MetaContent(page.Doc, extractor.MetaOGImage); og != "" && !isLogo(og) {
		return publicHost(og), nil
	}
	return woowahanDefaultThumb, nil
}

func firstContentImage(html string) string {
	if html == "" {
		return ""
	}

	var found string
	extractor.Fragment(html).Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || isEmojiImage(src, img.AttrOr("class", ""), img.AttrOr("alt", "")) {
			return true
		}
		found = src
		return false
	})
	return found
}

func isEmojiImage(src, class, alt string) bool {
	return strings.Contains(src, "wp-smiley") ||
		strings.Contains(class, "wp-smiley") ||
		emojiExpr.MatchString(alt)
}

func isLogo(src string) bool {
	if strings.Contains(src, woowahanLogoMarker) {
		return true
	}
	unescaped, err := url.PathUnescape(src)
	return err == nil && strings.Contains(unescaped, woowahanLogoMarker)
}

func publicHost(src string) string {
	return strings.Replace(src, woowahanInternalHost, woowahanPublicHost, 1)
}
