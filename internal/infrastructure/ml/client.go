package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"BlogCrawler/internal/classifier"
	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/ports"
)

// Client talks to an external classification service.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Classifier = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Classify sends title and plain-text body for tagging.
func (c *Client) Classify(ctx context.Context, title, body string) (domain.Classification, error) {
	payload := map[string]any{
		"title":         title,
		"plainTextBody": body,
	}

	var resp json.RawMessage
	if err := c.post(ctx, "/classify", payload, &resp); err != nil {
		return domain.Classification{}, err
	}

	return classifier.ParseResponse(string(resp))
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("%w: decode response: %v", classifier.ErrUnparsable, err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
