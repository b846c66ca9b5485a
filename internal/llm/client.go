// Package llm phrases negotiation turns through an OpenAI-compatible chat API (OpenRouter by default).
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: openai.ChatMessageRoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: openai.ChatMessageRoleUser, Content: content} }

type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Generator produces the next utterance for a prompt. An empty string with a
// nil error means the model had nothing to say.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Client struct {
	client  *openai.Client
	retries int
	backoff time.Duration
}

type Option func(*openai.ClientConfig)

// WithReferer sets the attribution headers OpenRouter shows on its dashboard.
func WithReferer(siteURL, title string) Option {
	return func(cfg *openai.ClientConfig) {
		cfg.HTTPClient = &http.Client{
			Timeout:   60 * time.Second,
			Transport: headerTransport{base: http.DefaultTransport, headers: map[string]string{"HTTP-Referer": siteURL, "X-Title": title}},
		}
	}
}

func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{
		client:  openai.NewClientWithConfig(cfg),
		retries: 1,
		backoff: 500 * time.Millisecond,
	}
}

func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	creq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.backoff):
			}
		}
		resp, err := c.client.CreateChatCompletion(ctx, creq)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", nil
			}
			return strings.TrimSpace(resp.Choices[0].Message.Content), nil
		}
		lastErr = classify(err)
		if !IsTransient(lastErr) {
			break
		}
		log.Printf("llm: transient error from %s (attempt %d): %v", req.Model, attempt+1, err)
	}
	return "", fmt.Errorf("chat completion with %s: %w", req.Model, lastErr)
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return NewTransientError(err)
		}
		return NewFatalError(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 500 {
		return NewTransientError(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewFatalError(err)
	}
	return NewTransientError(err)
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		if v != "" {
			r.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(r)
}
