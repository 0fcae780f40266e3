// Package slack posts run reports to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"BlogCrawler/internal/ports"
)

// Webhook sends plain-text messages to one incoming-webhook URL.
type Webhook struct {
	url    string
	client *http.Client
}

var _ ports.Reporter = (*Webhook)(nil)

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{url: url, client: &http.Client{Timeout: timeout}}
}

// Publish posts {"text": text}.
func (w *Webhook) Publish(ctx context.Context, text string) error {
	if w.url == "" {
		return fmt.Errorf("slack webhook misconfigured")
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}
