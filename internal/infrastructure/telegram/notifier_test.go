package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func TestChunk(t *testing.T) {
	t.Parallel()

	if got := Chunk("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected chunks: %q", got)
	}

	text := strings.Repeat("가나다\n", 10)
	parts := Chunk(text, 12)
	if strings.Join(parts, "") != text {
		t.Fatalf("chunks do not reassemble")
	}
	for _, p := range parts {
		if utf8.RuneCountInString(p) > 12 {
			t.Fatalf("chunk too long: %q", p)
		}
		if !strings.HasSuffix(p, "\n") {
			t.Fatalf("expected split on line break, got %q", p)
		}
	}

	long := strings.Repeat("x", 25)
	parts = Chunk(long, 10)
	if len(parts) != 3 || parts[2] != "xxxxx" {
		t.Fatalf("unexpected hard split: %q", parts)
	}
}

func TestPublishSendsEveryChunk(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var texts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		if r.PostForm.Get("chat_id") != "42" {
			http.Error(w, "bad chat", http.StatusBadRequest)
			return
		}
		mu.Lock()
		texts = append(texts, r.PostForm.Get("text"))
		mu.Unlock()
	}))
	defer server.Close()

	n := NewNotifier("TOKEN", "42", 0)
	n.apiBase = server.URL

	report := strings.Repeat(strings.Repeat("a", 99)+"\n", 50)
	if err := n.Publish(context.Background(), report); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(texts))
	}
	if strings.Join(texts, "") != report {
		t.Fatalf("messages do not reassemble the report")
	}
}

func TestPublishMisconfigured(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "", 0).Publish(context.Background(), "x"); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
