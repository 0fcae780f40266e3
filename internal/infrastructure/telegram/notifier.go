package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"BlogCrawler/internal/ports"
)

// MaxMessageRunes is the Bot API limit for one message.
const MaxMessageRunes = 4096

const defaultAPIBase = "https://api.telegram.org"

// Notifier sends run reports to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Reporter = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: timeout},
	}
}

// Publish posts text as plain messages, split so that none exceeds MaxMessageRunes.
func (n *Notifier) Publish(ctx context.Context, text string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	for i, part := range Chunk(text, MaxMessageRunes) {
		if err := n.send(ctx, part); err != nil {
			return fmt.Errorf("telegram part %d: %w", i+1, err)
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// Chunk splits text into pieces of at most limit runes, preferring line breaks.
func Chunk(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
