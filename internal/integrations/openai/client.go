// Package openai is a small client for OpenAI-compatible Chat Completions
// endpoints. It defaults to Groq.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/integrations/paramstore"
)

const (
	DefaultBaseURL   = "https://api.groq.com/openai/v1"
	DefaultModel     = "llama-3.3-70b-versatile"
	defaultTokenLeaf = "groq-token"
)

type chatRequest struct {
	Model          string               `json:"model"`
	Messages       []domain.ChatMessage `json:"messages"`
	Temperature    *float64             `json:"temperature,omitempty"`
	MaxTokens      int                  `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat      `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaConfig `json:"json_schema,omitempty"`
}

type jsonSchemaConfig struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Index   int                `json:"index"`
		Message domain.ChatMessage `json:"message"`
	} `json:"choices"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to one OpenAI-compatible endpoint with one model.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	tokenLeaf   string
	token       *paramstore.LazyToken
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(baseURL); v != "" {
			c.baseURL = v
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(model); v != "" {
			c.model = v
		}
	}
}

// WithTokenParameter overrides the parameter leaf the API key is read from.
func WithTokenParameter(leaf string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(leaf); v != "" {
			c.tokenLeaf = v
		}
	}
}

func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// NewClient builds a Client whose API key is read from
// "<paramPrefix>/groq-token" (see WithTokenParameter) on first use and cached
// for the process lifetime.
func NewClient(g paramstore.Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if g == nil {
		return nil, errors.New("openai: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("openai: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:     DefaultBaseURL,
		model:       DefaultModel,
		temperature: 0.7,
		maxTokens:   1024,
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		tokenLeaf:   defaultTokenLeaf,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.token = paramstore.NewLazyToken(g, paramstore.Join(paramPrefix, c.tokenLeaf))
	return c, nil
}

// Model reports the configured model name.
func (c *Client) Model() string { return c.model }

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 20 * time.Second}
}

func endpointURL(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + path
	}
	return base + "/v1" + path
}

// Complete sends messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	return c.chat(ctx, messages, nil)
}

// CompleteJSON asks for output conforming to schema. The returned string is the
// raw JSON text produced by the model.
func (c *Client) CompleteJSON(ctx context.Context, messages []domain.ChatMessage, name string, schema map[string]any) (string, error) {
	if len(schema) == 0 {
		return c.chat(ctx, messages, &responseFormat{Type: "json_object"})
	}
	return c.chat(ctx, messages, &responseFormat{
		Type: "json_schema",
		JSONSchema: &jsonSchemaConfig{
			Name:   name,
			Strict: true,
			Schema: schema,
		},
	})
}

func (c *Client) chat(ctx context.Context, messages []domain.ChatMessage, format *responseFormat) (string, error) {
	if c.model == "" {
		return "", errors.New("openai: model must not be empty")
	}
	apiKey, err := c.token.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("openai: resolve api key: %w", err)
	}

	temperature := c.temperature
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    &temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	raw, err := c.post(ctx, endpointURL(c.baseURL, "/chat/completions"), apiKey, body)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, url, apiKey string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
