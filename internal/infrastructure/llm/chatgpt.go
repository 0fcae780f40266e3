package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"BlogCrawler/internal/classifier"
	"BlogCrawler/internal/config"
	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/ports"
)

// ChatGPTClient implements ports.Classifier backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	vocab       *classifier.Vocabulary
	httpClient  *http.Client
}

var _ ports.Classifier = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig, vocab *classifier.Vocabulary, timeout time.Duration) *ChatGPTClient {
	if vocab == nil {
		vocab = classifier.DefaultVocabulary()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatGPTClient{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		vocab:       vocab,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify asks the model to tag the article and parses its JSON reply.
func (c *ChatGPTClient) Classify(ctx context.Context, title, body string) (domain.Classification, error) {
	if c == nil {
		return domain.Classification{}, fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.Classification{}, fmt.Errorf("chatgpt client misconfigured")
	}

	payload, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"response_format": map[string]string{
			"type": "json_object",
		},
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt(c.vocab)},
			{Role: "user", Content: userPrompt(title, body)},
		},
	})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Classification{}, fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Classification{}, fmt.Errorf("%w: decode completion: %v", classifier.ErrUnparsable, err)
	}
	if len(decoded.Choices) == 0 {
		return domain.Classification{}, fmt.Errorf("%w: completion has no choices", classifier.ErrUnparsable)
	}

	return classifier.ParseResponse(decoded.Choices[0].Message.Content)
}

func systemPrompt(vocab *classifier.Vocabulary) string {
	var b strings.Builder
	b.WriteString("You classify engineering blog posts.\n\n")
	b.WriteString("isValid is true only for technical content: implementation details, architecture, ")
	b.WriteString("in-depth analysis or comparison of a technology, problem-solving write-ups, ")
	b.WriteString("or technical decision records. Company news, event recaps, hiring posts, interviews, ")
	b.WriteString("vlogs, podcasts and product promotion are not technical.\n\n")
	b.WriteString("skillIds: technologies the post actually uses or covers in depth, most important first. ")
	b.WriteString("Ignore passing mentions and planned work.\n")
	b.WriteString("jobGroupIds: roles that would implement what the post describes.\n")
	fmt.Fprintf(&b, "Pick between 1 and %d of each when isValid is true. When isValid is false both lists must be empty.\n", classifier.MaxTagsPerSet)
	b.WriteString("Use only the identifiers listed below.\n\n")
	fmt.Fprintf(&b, "Allowed skillIds: %s\n\n", strings.Join(vocab.Skills(), ", "))
	fmt.Fprintf(&b, "Allowed jobGroupIds: %s\n\n", strings.Join(vocab.JobGroups(), ", "))
	b.WriteString(`Reply with JSON only: {"isValid": boolean, "skillIds": string[], "jobGroupIds": string[]}`)
	return b.String()
}

func userPrompt(title, body string) string {
	return "Title: " + title + "\n\nBody:\n" + body
}
