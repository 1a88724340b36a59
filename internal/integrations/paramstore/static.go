package paramstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Static for names it does not hold.
var ErrNotFound = errors.New("paramstore: parameter not found")

// Static serves parameters from a fixed map, typically filled from
// environment variables when running outside AWS.
type Static map[string]string

func (s Static) GetParameter(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return v, nil
}

// StaticToken stores raw as a token payload under name, so clients that read
// tokens through Token work unchanged.
func (s Static) StaticToken(name, raw string) {
	if raw == "" {
		return
	}
	s[name] = `{"token":` + quote(raw) + `}`
}
