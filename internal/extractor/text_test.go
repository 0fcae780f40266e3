package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStripHTMLDropsScriptAndStyle(t *testing.T) {
	t.Parallel()

	html := `<div><style>p{color:red}</style><p> Hello <b>world</b> </p><script>alert(1)</script></div>`
	if got := StripHTML(html); got != "Hello world" {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := StripHTML("   "); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestTruncateCapsAtLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("가", 250)
	got := Truncate(long)
	if RuneLen(got) != MaxDescriptionLen {
		t.Fatalf("expected %d runes, got %d", MaxDescriptionLen, RuneLen(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}

	exact := strings.Repeat("a", MaxDescriptionLen)
	if Truncate(exact) != exact {
		t.Fatalf("text at the limit must be kept")
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	if got := Describe("  multi \n\n line\ttext "); got != "multi line text" {
		t.Fatalf("unexpected description: %q", got)
	}
	if got := Describe(" \n "); got != NoDescription {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestUnescapeCDATA(t *testing.T) {
	t.Parallel()

	in := `<![CDATA[<p>inside</p>]]> tail`
	if got := UnescapeCDATA(in); got != "<p>inside</p> tail" {
		t.Fatalf("unexpected result: %q", got)
	}
	if got := TagText(in); got != "inside tail" {
		t.Fatalf("unexpected tag text: %q", got)
	}
}

func TestFirstParagraph(t *testing.T) {
	t.Parallel()

	html := `<p>short</p><p>` + strings.Repeat("x", 60) + ` skip me</p><p>` + strings.Repeat("y", 60) + `</p>`
	got := FirstParagraph(html, MinParagraphLen, func(text string) bool {
		return strings.Contains(text, "skip me")
	})
	if got != strings.Repeat("y", 60) {
		t.Fatalf("unexpected paragraph: %q", got)
	}
	if FirstParagraph("<p>tiny</p>", MinParagraphLen, nil) != "" {
		t.Fatalf("short paragraphs must not qualify")
	}
}

func TestFirstMatchStopsAtFirstLongEnough(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("content ", 40)
	page, err := NewPage("https://blog.example/post", []byte(`<html><body>
		<div class="preview">tiny</div>
		<article><div class="content"><div class="box_author">author box</div><p>`+body+`</p><script>x()</script></div></article>
	</body></html>`))
	if err != nil {
		t.Fatalf("NewPage error: %v", err)
	}

	html, ok := FirstMatch(page.Doc, []string{".preview", "article .content", "article"}, MinBodyLen, ".box_author")
	if !ok {
		t.Fatalf("expected a match")
	}
	if strings.Contains(html, "author box") || strings.Contains(html, "x()") {
		t.Fatalf("noise not removed: %q", html)
	}
	if !strings.Contains(html, "content content") {
		t.Fatalf("unexpected match: %q", html)
	}
	if page.Doc.Find(".box_author").Length() != 1 {
		t.Fatalf("FirstMatch must not modify the shared page")
	}
}

func TestMetaContentAndResolve(t *testing.T) {
	t.Parallel()

	page, err := NewPage("https://d2.naver.com/helloworld/1", []byte(`<html><head>
		<meta name="description" content="plain">
		<meta property="og:description" content=" og text ">
	</head></html>`))
	if err != nil {
		t.Fatalf("NewPage error: %v", err)
	}

	if got := MetaContent(page.Doc, MetaOGDescription, MetaDescription); got != "og text" {
		t.Fatalf("unexpected meta: %q", got)
	}
	if got := MetaContent(page.Doc, MetaOGImage); got != "" {
		t.Fatalf("expected no og:image, got %q", got)
	}

	if got := ResolveURL("https://d2.naver.com", "/content/images/a.png"); got != "https://d2.naver.com/content/images/a.png" {
		t.Fatalf("unexpected resolved url: %s", got)
	}
	if !IsAbsoluteHTTP("https://x") || IsAbsoluteHTTP("/x") || IsAbsoluteHTTP("//cdn/x") {
		t.Fatalf("IsAbsoluteHTTP misclassified")
	}
}

type countingFetcher struct {
	calls int
	err   error
}

func (c *countingFetcher) Fetch(_ context.Context, pageURL string) (*Page, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return NewPage(pageURL, []byte("<html><body>ok</body></html>"))
}

func TestMemoFetchesOncePerURL(t *testing.T) {
	t.Parallel()

	inner := &countingFetcher{}
	memo := NewMemo(inner)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := memo.Fetch(ctx, "https://a.example/1"); err != nil {
			t.Fatalf("Fetch error: %v", err)
		}
	}
	if inner.calls != 1 || memo.Fetched() != 1 {
		t.Fatalf("expected a single download, got %d", inner.calls)
	}

	failing := &countingFetcher{err: errors.New("boom")}
	memo = NewMemo(failing)
	_, _ = memo.Fetch(ctx, "https://a.example/2")
	if _, err := memo.Fetch(ctx, "https://a.example/2"); err == nil || failing.calls != 1 {
		t.Fatalf("errors must be cached too (calls=%d, err=%v)", failing.calls, err)
	}

	if _, err := NewMemo(nil).Fetch(ctx, "https://a.example/3"); !errors.Is(err, ErrNoPageFetcher) {
		t.Fatalf("expected ErrNoPageFetcher, got %v", err)
	}
}
