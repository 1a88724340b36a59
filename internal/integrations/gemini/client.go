// Package gemini adapts Google Gemini (google.golang.org/genai) to the chat
// completion shape used by the support agent.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/integrations/paramstore"
)

const (
	DefaultModel = "gemini-2.0-flash"
	tokenLeaf    = "gemini-token"
)

// StatusError carries the HTTP status of a failed Gemini call.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini: unexpected status %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// generator is the subset of genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client creates its genai client on first use, once the API key is known.
type Client struct {
	model       string
	temperature float32
	maxTokens   int32
	token       *paramstore.LazyToken
	newGen      func(ctx context.Context, apiKey string) (generator, error)

	mu  sync.Mutex
	gen generator
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(model); v != "" {
			c.model = v
		}
	}
}

func WithMaxTokens(n int32) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// NewClient reads the API key from "<paramPrefix>/gemini-token".
func NewClient(g paramstore.Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if g == nil {
		return nil, errors.New("gemini: paramstore getter must not be nil")
	}
	if strings.Trim(strings.TrimSpace(paramPrefix), "/") == "" {
		return nil, errors.New("gemini: parameter prefix must not be empty")
	}
	c := &Client{
		model:       DefaultModel,
		temperature: 0.7,
		maxTokens:   1024,
		token:       paramstore.NewLazyToken(g, paramstore.Join(paramPrefix, tokenLeaf)),
		newGen:      newGenAIGenerator,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newGenAIGenerator(ctx context.Context, apiKey string) (generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client.Models, nil
}

func (c *Client) generator(ctx context.Context) (generator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != nil {
		return c.gen, nil
	}
	key, err := c.token.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini: resolve api key: %w", err)
	}
	gen, err := c.newGen(ctx, key)
	if err != nil {
		return nil, err
	}
	c.gen = gen
	return gen, nil
}

func (c *Client) Model() string { return c.model }

// Complete sends messages and returns the concatenated text parts of the first
// candidate.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	return c.generate(ctx, messages, "")
}

// CompleteJSON requests a JSON response. The schema is enforced by the prompt;
// Gemini is asked for application/json output only.
func (c *Client) CompleteJSON(ctx context.Context, messages []domain.ChatMessage, _ string, _ map[string]any) (string, error) {
	return c.generate(ctx, messages, "application/json")
}

func (c *Client) generate(ctx context.Context, messages []domain.ChatMessage, mimeType string) (string, error) {
	system, contents := toContents(messages)
	if len(contents) == 0 {
		return "", errors.New("gemini: no user or assistant messages")
	}
	gen, err := c.generator(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(c.temperature),
		MaxOutputTokens:   c.maxTokens,
		ResponseMIMEType:  mimeType,
	}
	resp, err := gen.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", translateError(err))
	}
	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

// toContents folds system messages into one instruction and maps assistant
// turns to the model role.
func toContents(messages []domain.ChatMessage) (*genai.Content, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) == 0 {
		return nil, contents
	}
	return genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser), contents
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	return err
}
