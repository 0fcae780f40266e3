// Package httpclient builds the outbound HTTP clients used for feeds and article pages.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// DefaultUserAgent identifies as a desktop browser; several blogs reject library agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// ErrBodyTooLarge is returned when a response body exceeds the caller's limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Options controls client construction.
type Options struct {
	Timeout time.Duration
	// BlockPrivateNetworks routes requests through safeurl, refusing private,
	// loopback and link-local targets and any port other than 80/443.
	BlockPrivateNetworks bool
}

// New returns a client honouring opts.
func New(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	if opts.BlockPrivateNetworks {
		cfg := safeurl.GetConfigBuilder().
			SetTimeout(opts.Timeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		return safeurl.Client(cfg).Client
	}

	return &http.Client{Timeout: opts.Timeout}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %s", e.URL, e.Status)
}

// Get fetches target with the given headers and returns at most maxBytes of the body.
// Non-2xx responses are returned as *StatusError.
func Get(ctx context.Context, client *http.Client, target string, header http.Header, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{URL: target, Status: resp.Status, Code: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if maxBytes > 0 {
		body = io.LimitReader(resp.Body, maxBytes+1)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", target, err)
	}
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, target, maxBytes)
	}
	return raw, nil
}
