package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrCredentials marks every failure to obtain an API token, so callers can
// tell "not configured" apart from upstream failures.
var ErrCredentials = errors.New("paramstore: credentials unavailable")

// tokenPayload is the JSON shape stored for API tokens.
type tokenPayload struct {
	Token string `json:"token"`
}

// Token reads name from g and extracts the "token" field of its JSON value.
func Token(ctx context.Context, g Getter, name string) (string, error) {
	if g == nil {
		return "", fmt.Errorf("%w: getter is nil", ErrCredentials)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: token parameter name is empty", ErrCredentials)
	}

	raw, err := g.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentials, err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("%w: unmarshal token %q: %w", ErrCredentials, name, err)
	}
	if tp.Token == "" {
		return "", fmt.Errorf("%w: token %q is empty", ErrCredentials, name)
	}
	return tp.Token, nil
}

// LazyToken resolves a token on first use and reuses the result, including a
// failure, for the lifetime of the process.
type LazyToken struct {
	getter Getter
	name   string

	once  sync.Once
	token string
	err   error
}

func NewLazyToken(g Getter, name string) *LazyToken {
	return &LazyToken{getter: g, name: name}
}

func (l *LazyToken) Get(ctx context.Context) (string, error) {
	l.once.Do(func() {
		l.token, l.err = Token(ctx, l.getter, l.name)
	})
	return l.token, l.err
}

// Name is the parameter the token is read from.
func (l *LazyToken) Name() string { return l.name }

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
