// Package huggingface classifies text emotions through the Hugging Face
// Inference API.
package huggingface

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
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"
	DefaultModel   = "bhadresh-savani/distilbert-base-uncased-emotion"
	tokenLeaf      = "hf-token"
)

type classifyRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// HTTPStatusError captures non-2xx responses from the inference endpoint.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("huggingface: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a text-classification client bound to one model.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	token      *paramstore.LazyToken
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if v := strings.TrimRight(strings.TrimSpace(baseURL), "/"); v != "" {
			c.baseURL = v
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(model); v != "" {
			c.model = v
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient reads its API token from "<paramPrefix>/hf-token" on first use.
func NewClient(g paramstore.Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if g == nil {
		return nil, errors.New("huggingface: paramstore getter must not be nil")
	}
	if strings.Trim(strings.TrimSpace(paramPrefix), "/") == "" {
		return nil, errors.New("huggingface: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      paramstore.NewLazyToken(g, paramstore.Join(paramPrefix, tokenLeaf)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify returns the score for every label the model knows, in the order the
// endpoint returned them.
func (c *Client) Classify(ctx context.Context, text string) ([]domain.EmotionScore, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("huggingface: text must not be empty")
	}
	token, err := c.token.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("huggingface: resolve token: %w", err)
	}

	body, err := json.Marshal(classifyRequest{
		Inputs:     text,
		Parameters: map[string]any{"top_k": nil, "truncation": true},
		Options:    map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("huggingface: marshal request: %w", err)
	}

	url := c.baseURL + "/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("huggingface: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, Body: string(buf)}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("huggingface: read response body: %w", err)
	}
	scores, err := decodeScores(raw)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, errors.New("huggingface: empty classification")
	}
	return scores, nil
}

// decodeScores accepts both the batched ([[...]]) and flat ([...]) shapes the
// endpoint produces for a single input.
func decodeScores(raw []byte) ([]domain.EmotionScore, error) {
	var nested [][]domain.EmotionScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}
	var flat []domain.EmotionScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("huggingface: decode response: %w", err)
	}
	return flat, nil
}
