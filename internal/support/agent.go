// Package support produces companion replies for the support chat. It wraps an
// LLM provider with the companion prompt, crisis handling and a fixed error
// taxonomy.
package support

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/integrations/paramstore"
	"aurora-agent/internal/rules"
)

var (
	// ErrServiceUnavailable means no provider is configured or its credentials
	// were rejected.
	ErrServiceUnavailable = errors.New("support: service unavailable")
	ErrRateLimited        = errors.New("support: rate limited")
	ErrUpstream           = errors.New("support: upstream failure")
)

// Completer is implemented by the LLM integrations.
type Completer interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// Context is what the intake phase learned about the user.
type Context struct {
	Summary string
	Emotion domain.EmotionLabel
	Risk    domain.RiskLevel
}

type Reply struct {
	Text           string
	CrisisDetected bool
}

type Agent struct {
	llm    Completer
	logger *slog.Logger
}

// NewAgent accepts a nil llm; every Respond then fails with
// ErrServiceUnavailable.
func NewAgent(llm Completer, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{llm: llm, logger: logger}
}

// Available reports whether a provider is configured.
func (a *Agent) Available() bool {
	return a != nil && a.llm != nil
}

// Respond generates the next assistant turn. CrisisDetected is computed from
// the latest user message before the provider is called and is set on the
// returned Reply even when err is non-nil.
func (a *Agent) Respond(ctx context.Context, history []domain.ChatMessage, c Context) (Reply, error) {
	reply := Reply{CrisisDetected: rules.DetectCrisis(latestUserMessage(history))}
	if reply.CrisisDetected {
		a.logger.WarnContext(ctx, "crisis keywords in support message",
			slog.Int("matched", len(rules.MatchedCrisisKeywords(latestUserMessage(history)))),
		)
	}
	if !a.Available() {
		return reply, ErrServiceUnavailable
	}

	text, err := a.llm.Complete(ctx, buildMessages(c, history))
	if err != nil {
		err = classify(err)
		a.logger.ErrorContext(ctx, "support completion failed", slog.Any("err", err))
		return reply, err
	}
	reply.Text = text
	if reply.CrisisDetected {
		reply.Text += rules.CrisisResources
	}
	return reply, nil
}

func latestUserMessage(history []domain.ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			return history[i].Content
		}
	}
	return ""
}

type statusCoder interface {
	HTTPStatusCode() int
}

func classify(err error) error {
	if errors.Is(err, paramstore.ErrCredentials) {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.HTTPStatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

const (
	unavailableMessage = "I'm not able to chat right now because the support service isn't available. Please try again later."
	rateLimitedMessage = "Too many requests. Please wait a moment and try again."
	upstreamMessage    = "I'm having trouble responding right now. Please try again in a moment."
)

// SafeMessage maps an error from Respond to text that is safe to show users.
func SafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return unavailableMessage
	case errors.Is(err, ErrRateLimited):
		return rateLimitedMessage
	default:
		return upstreamMessage
	}
}
