// Package whisper transcribes short voice recordings through an
// OpenAI-compatible audio transcription endpoint (Groq Whisper by default).
package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"aurora-agent/internal/integrations/paramstore"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "whisper-large-v3"
	// MaxAudioBytes is the upload cap enforced by the transcription API.
	MaxAudioBytes = 25 << 20
	tokenLeaf     = "groq-token"
)

var (
	ErrEmptyAudio    = errors.New("whisper: audio is empty")
	ErrAudioTooLarge = errors.New("whisper: audio exceeds 25MB")
)

// Transcript is the text recognised in a recording.
type Transcript struct {
	Text     string   `json:"transcript"`
	Language string   `json:"language,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
}

// StatusError carries the HTTP status of a failed transcription call.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("whisper: unexpected status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

type Client struct {
	baseURL    string
	model      string
	language   string
	httpClient *http.Client
	token      *paramstore.LazyToken

	mu  sync.Mutex
	api *openai.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(baseURL); v != "" {
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

// NewClient shares the Groq key parameter ("<paramPrefix>/groq-token") with
// the chat client.
func NewClient(g paramstore.Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if g == nil {
		return nil, errors.New("whisper: paramstore getter must not be nil")
	}
	if strings.Trim(strings.TrimSpace(paramPrefix), "/") == "" {
		return nil, errors.New("whisper: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		language:   "en",
		httpClient: &http.Client{Timeout: 60 * time.Second},
		token:      paramstore.NewLazyToken(g, paramstore.Join(paramPrefix, tokenLeaf)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) client(ctx context.Context) (*openai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api != nil {
		return c.api, nil
	}
	key, err := c.token.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("whisper: resolve api key: %w", err)
	}
	api := openai.NewClient(
		option.WithAPIKey(key),
		option.WithBaseURL(c.baseURL),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	)
	c.api = &api
	return c.api, nil
}

// Transcribe sends audio as a single upload named filename.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, ErrEmptyAudio
	}
	if len(audio) > MaxAudioBytes {
		return Transcript{}, ErrAudioTooLarge
	}
	api, err := c.client(ctx)
	if err != nil {
		return Transcript{}, err
	}

	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "recording.webm"
	}
	resp, err := api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:        openai.File(bytes.NewReader(audio), filename, contentType(filename)),
		Model:       openai.AudioModel(c.model),
		Language:    openai.String(c.language),
		Temperature: openai.Float(0),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Transcript{}, &StatusError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return Transcript{}, fmt.Errorf("whisper: transcribe: %w", err)
	}

	out := Transcript{Text: strings.TrimSpace(resp.Text), Language: resp.Language}
	if out.Language == "" {
		out.Language = c.language
	}
	if resp.Duration > 0 {
		d := resp.Duration
		out.Duration = &d
	}
	return out, nil
}

func contentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".wav":
		return "audio/wav"
	case ".mp3", ".mpeg", ".mpga":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	default:
		return "audio/webm"
	}
}
