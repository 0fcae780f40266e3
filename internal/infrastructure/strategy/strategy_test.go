package strategy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/extractor"
)

type fakePages struct {
	pages map[string]string
	calls []string
}

func (f *fakePages) Fetch(_ context.Context, pageURL string) (*extractor.Page, error) {
	f.calls = append(f.calls, pageURL)
	html, ok := f.pages[pageURL]
	if !ok {
		return nil, errors.New("not found")
	}
	return extractor.NewPage(pageURL, []byte(html))
}

func input(link string, entry domain.FeedEntry, pages *fakePages) extractor.Input {
	entry.Link = link
	in := extractor.Input{Entry: entry, Link: link}
	if pages != nil {
		in.Pages = pages
	}
	return in
}

func TestMediumContentAndDescription(t *testing.T) {
	t.Parallel()

	m := NewMedium()
	ctx := context.Background()

	res, err := m.ExtractContent(ctx, input("https://medium.com/daangn/p", domain.FeedEntry{
		ContentEncoded: "<p>encoded body</p>",
		Content:        "<p>plain body</p>",
		Description:    "feed description",
	}, nil))
	if err != nil {
		t.Fatalf("ExtractContent error: %v", err)
	}
	if res.Content != "<p>encoded body</p>" || res.Description != "feed description" {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, _ = m.ExtractContent(ctx, input("https://medium.com/daangn/p", domain.FeedEntry{
		Content:     "<h3>Title</h3><p>First paragraph text</p><p>second</p>",
		Description: `<div class="medium-feed-item">markup</div>`,
	}, nil))
	if res.Description != "First paragraph text" {
		t.Fatalf("expected first paragraph, got %q", res.Description)
	}

	res, _ = m.ExtractContent(ctx, input("https://medium.com/daangn/p", domain.FeedEntry{
		Subtitle: strings.Repeat("s", 300),
	}, nil))
	if extractor.RuneLen(res.Description) != 200 || !strings.HasSuffix(res.Description, "...") {
		t.Fatalf("description not capped: %d", extractor.RuneLen(res.Description))
	}

	res, _ = m.ExtractContent(ctx, input("https://medium.com/daangn/p", domain.FeedEntry{}, nil))
	if res.Description != extractor.NoDescription || res.Content != "" {
		t.Fatalf("unexpected empty-entry result: %+v", res)
	}
}

func TestMediumThumbnailRequiresAbsoluteURL(t *testing.T) {
	t.Parallel()

	m := NewMedium()
	ctx := context.Background()

	thumb, _ := m.ExtractThumbnail(ctx, input("https://medium.com/p", domain.FeedEntry{
		Content:        `<img src="/relative.png">`,
		ContentEncoded: `<img src="https://cdn-images-1.medium.com/max/1024/abc.png">`,
	}, nil))
	if thumb != "https://cdn-images-1.medium.com/max/1024/abc.png" {
		t.Fatalf("unexpected thumbnail: %q", thumb)
	}

	thumb, _ = m.ExtractThumbnail(ctx, input("https://medium.com/p", domain.FeedEntry{
		Content: `<p>no images</p><img src="/only-relative.png">`,
	}, nil))
	if thumb != "" {
		t.Fatalf("relative images must be treated as absent, got %q", thumb)
	}
}

func TestKakaoUsesFeedWhenBodyIsLongEnough(t *testing.T) {
	t.Parallel()

	pages := &fakePages{}
	body := "<p>" + strings.Repeat("카카오 본문 ", 50) + "</p>"
	res, err := NewKakao().ExtractContent(context.Background(), input("https://tech.kakao.com/posts/1", domain.FeedEntry{
		Description:    "<![CDATA[<p>" + strings.Repeat("설명", 30) + "</p>]]>",
		ContentEncoded: body,
	}, pages))
	if err != nil {
		t.Fatalf("ExtractContent error: %v", err)
	}
	if len(pages.calls) != 0 {
		t.Fatalf("live page must not be fetched, got %v", pages.calls)
	}
	if res.Content != body || res.Description != strings.Repeat("설명", 30) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestKakaoFallsBackToLivePage(t *testing.T) {
	t.Parallel()

	link := "https://tech.kakao.com/posts/2"
	article := strings.Repeat("본문 내용입니다. ", 40)
	pages := &fakePages{pages: map[string]string{link: `<html><head>
		<meta property="og:description" content="` + strings.Repeat("og 설명 ", 12) + `">
		<meta property="og:image" content="https://t1.kakaocdn.net/og.png">
	</head><body>
		<div class="preview"><div class="wrap_tit">제목</div><p>` + article + `</p><div class="box_giscus">comments</div></div>
	</body></html>`}}

	k := NewKakao()
	in := input(link, domain.FeedEntry{Description: "짧은 설명"}, pages)
	in.Pages = extractor.NewMemo(pages)

	res, err := k.ExtractContent(context.Background(), in)
	if err != nil {
		t.Fatalf("ExtractContent error: %v", err)
	}
	if !strings.Contains(res.Content, "본문 내용입니다.") {
		t.Fatalf("page body not extracted: %q", res.Content)
	}
	if strings.Contains(res.Content, "comments") || strings.Contains(res.Content, "제목") {
		t.Fatalf("noise not removed: %q", res.Content)
	}
	if !strings.HasPrefix(res.Description, "og 설명") {
		t.Fatalf("expected og description, got %q", res.Description)
	}

	thumb, err := k.ExtractThumbnail(context.Background(), in)
	if err != nil || thumb != "https://t1.kakaocdn.net/og.png" {
		t.Fatalf("unexpected thumbnail %q, %v", thumb, err)
	}
	if len(pages.calls) != 1 {
		t.Fatalf("expected one shared page download, got %d", len(pages.calls))
	}
}

func TestKakaoDegradesOnPageFailure(t *testing.T) {
	t.Parallel()

	res, err := NewKakao().ExtractContent(context.Background(), input("https://tech.kakao.com/posts/404", domain.FeedEntry{
		Content: "<p>teaser</p>",
	}, &fakePages{}))
	if err == nil {
		t.Fatalf("expected a degraded-result error")
	}
	if res.Content != "<p>teaser</p>" || res.Description == "" {
		t.Fatalf("degraded result must keep feed data: %+v", res)
	}
}

func TestNaverD2NewsDigestDescription(t *testing.T) {
	t.Parallel()

	summary := "이번 호에서는 " + strings.Repeat("프론트엔드 소식 ", 10)
	content := `<p>FE News 25년 3월 소식을 전해드립니다.</p>
		<p>◎ 구독하기</p>
		<p>주요내용</p>
		<p></p>
		<p>◎ 목차</p>
		<p>` + summary + `</p>
		<p>` + strings.Repeat("다른 문단 ", 20) + `</p>`

	pages := &fakePages{}
	res, err := NewNaverD2().ExtractContent(context.Background(), input("https://d2.naver.com/news/1234", domain.FeedEntry{
		Title:   "FE News 25년 3월 소식",
		Content: content,
	}, pages))
	if err != nil {
		t.Fatalf("ExtractContent error: %v", err)
	}
	if res.Description != extractor.Describe(summary) {
		t.Fatalf("unexpected description: %q", res.Description)
	}
	if len(pages.calls) != 0 {
		t.Fatalf("page fetched unexpectedly")
	}
}

func TestNaverD2WithoutMarkerSkipsNoise(t *testing.T) {
	t.Parallel()

	good := strings.Repeat("좋은 문단 ", 15)
	content := `<p>` + strings.Repeat("FE News 안내 ", 10) + `</p><p>` + good + `</p>`

	res, _ := NewNaverD2().ExtractContent(context.Background(), input("https://d2.naver.com/news/1", domain.FeedEntry{
		Title:   "FE News",
		Content: content,
	}, &fakePages{}))
	if res.Description != extractor.Describe(good) {
		t.Fatalf("unexpected description: %q", res.Description)
	}
}

func TestNaverD2ThumbnailResolvesRelative(t *testing.T) {
	t.Parallel()

	thumb, err := NewNaverD2().ExtractThumbnail(context.Background(), input("https://d2.naver.com/helloworld/1", domain.FeedEntry{
		Content: `<p><img src="/content/images/2025/03/a.png"></p>`,
	}, nil))
	if err != nil || thumb != "https://d2.naver.com/content/images/2025/03/a.png" {
		t.Fatalf("unexpected thumbnail %q, %v", thumb, err)
	}
}

func TestNaverD2PageFallbackForShortDescription(t *testing.T) {
	t.Parallel()

	link := "https://d2.naver.com/helloworld/2"
	pages := &fakePages{pages: map[string]string{link: `<html><body><div class="content__body">
		<p>짧음</p><p>` + strings.Repeat("페이지 문단 ", 12) + `</p></div></body></html>`}}

	res, err := NewNaverD2().ExtractContent(context.Background(), input(link, domain.FeedEntry{
		Content: "<p>short</p>",
	}, pages))
	if err != nil {
		t.Fatalf("ExtractContent error: %v", err)
	}
	if !strings.HasPrefix(res.Description, "페이지 문단") {
		t.Fatalf("unexpected description: %q", res.Description)
	}
	if res.Content != "<p>short</p>" {
		t.Fatalf("feed content must be kept: %q", res.Content)
	}
}

func TestWoowahanThumbnailSkipsEmojiAndRewritesHost(t *testing.T) {
	t.Parallel()

	w := NewWoowahan()
	thumb, err := w.ExtractThumbnail(context.Background(), input("https://techblog.woowahan.com/1/", domain.FeedEntry{
		ContentEncoded: `<p><img class="wp-smiley" src="https://s.w.org/smile.png">
			<img src="https://techblog.woowahan.com/emoji.png" alt="😀">
			<img src="https://techblog.woowa.in/wp-content/uploads/a.png"></p>`,
	}, nil))
	if err != nil || thumb != "https://techblog.woowahan.com/wp-content/uploads/a.png" {
		t.Fatalf("unexpected thumbnail %q, %v", thumb, err)
	}

	link := "https://techblog.woowahan.com/2/"
	pages := &fakePages{pages: map[string]string{link: `<html><head>
		<meta property="og:image" content="https://techblog.woowahan.com/우아한테크-로고.png"></head></html>`}}
	thumb, err = w.ExtractThumbnail(context.Background(), input(link, domain.FeedEntry{}, pages))
	if err != nil || thumb != woowahanDefaultThumb {
		t.Fatalf("expected default thumbnail, got %q, %v", thumb, err)
	}
}

func TestWoowahanContentFromFeedAndPage(t *testing.T) {
	t.Parallel()

	w := NewWoowahan()
	para := strings.Repeat("배민 기술 이야기 ", 8)
	res, err := w.ExtractContent(context.Background(), input("https://techblog.woowahan.com/3/", domain.FeedEntry{
		ContentEncoded: "<p>hi</p><p>" + para + "</p>",
	}, &fakePages{}))
	if err != nil || res.Description != extractor.Describe(para) {
		t.Fatalf("unexpected result %+v, %v", res, err)
	}

	link := "https://techblog.woowahan.com/4/"
	pages := &fakePages{pages: map[string]string{link: `<html><head><meta name="description" content="meta 설명"></head>
		<body><div class="entry-content"><p>page body</p></div></body></html>`}}
	res, err = w.ExtractContent(context.Background(), input(link, domain.FeedEntry{}, pages))
	if err != nil {
		t.Fatalf("ExtractContent error: %v", err)
	}
	if !strings.Contains(res.Content, "page body") || res.Description != "meta 설명" {
		t.Fatalf("unexpected page result: %+v", res)
	}
}

func TestLineContentAndThumbnail(t *testing.T) {
	t.Parallel()

	l := NewLine()
	para := strings.Repeat("LINE 기술 블로그 문단 ", 5)
	res, err := l.ExtractContent(context.Background(), input("https://techblog.lycorp.co.jp/ko/a", domain.FeedEntry{
		ContentEncoded: "<p>" + para + "</p>",
	}, nil))
	if err != nil || res.Description != extractor.Describe(para) {
		t.Fatalf("unexpected result %+v, %v", res, err)
	}

	link := "https://techblog.lycorp.co.jp/ko/b"
	pages := &fakePages{pages: map[string]string{link: `<html><body><div class="content_inner"><div class="content">
		<p>` + para + `</p><img src="/images/b.png"></div></div></body></html>`}}
	in := input(link, domain.FeedEntry{}, pages)
	res, err = l.ExtractContent(context.Background(), in)
	if err != nil || !strings.Contains(res.Content, "LINE 기술") {
		t.Fatalf("unexpected page result %+v, %v", res, err)
	}

	thumb, err := l.ExtractThumbnail(context.Background(), in)
	if err != nil || thumb != "https://techblog.lycorp.co.jp/images/b.png" {
		t.Fatalf("unexpected thumbnail %q, %v", thumb, err)
	}
}

func TestEveryStrategyCapsDescription(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("긴 설명 텍스트 ", 60)
	entry := domain.FeedEntry{
		Title:          "FE News long",
		Description:    long,
		Subtitle:       long,
		Summary:        long,
		Content:        "<p>" + long + "</p>",
		ContentEncoded: "<p>주요내용</p><p>" + long + "</p>",
	}

	for _, s := range Defaults() {
		res, _ := s.ExtractContent(context.Background(), input("https://example.org/news/1", entry, &fakePages{}))
		if n := extractor.RuneLen(res.Description); n > extractor.MaxDescriptionLen || n == 0 {
			t.Fatalf("%s: description length %d out of range", s.Name(), n)
		}
	}
}

func TestRegistryResolvesDefaults(t *testing.T) {
	t.Parallel()

	reg := extractor.NewRegistry(Defaults()...)
	for _, name := range []string{"medium", "kakao", "naver_d2", "woowahan", "line"} {
		if _, err := reg.Resolve(name); err != nil {
			t.Fatalf("Resolve(%s): %v", name, err)
		}
	}
	if _, err := reg.Resolve("tistory"); !errors.Is(err, extractor.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}
