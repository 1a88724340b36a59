// Package verification holds short-lived email verification codes. Store keeps
// them in process memory, where they are lost on restart; RedisStore shares
// them across processes.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTTL = 10 * time.Minute
	codeDigits = 6
)

var (
	ErrNoCode   = errors.New("verification: no code issued")
	ErrExpired  = errors.New("verification: code expired")
	ErrMismatch = errors.New("verification: code does not match")
)

type entry struct {
	code    string
	name    string
	expires time.Time
}

// Store maps a normalised email address to its outstanding code. Issuing a new
// code replaces the previous one.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	codes   map[string]entry
	now     func() time.Time
	newCode func() (string, error)
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:     ttl,
		codes:   map[string]entry{},
		now:     time.Now,
		newCode: randomCode,
	}
}

// Issue creates a code for email and remembers name for the later Verify.
func (s *Store) Issue(_ context.Context, email, name string) (string, error) {
	key := normalize(email)
	if key == "" {
		return "", errors.New("verification: email is required")
	}
	code, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("verification: generate code: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.codes[key] = entry{code: code, name: name, expires: s.now().Add(s.ttl)}
	return code, nil
}

// Consume checks code for email. A matching or expired code is removed; a
// mismatch leaves the code in place.
func (s *Store) Consume(_ context.Context, email, code string) (string, error) {
	key := normalize(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.codes[key]
	if !ok {
		return "", ErrNoCode
	}
	if !s.now().Before(e.expires) {
		delete(s.codes, key)
		return "", ErrExpired
	}
	if strings.TrimSpace(code) != e.code {
		return "", ErrMismatch
	}
	delete(s.codes, key)
	return e.name, nil
}

// Len reports outstanding, unexpired codes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.codes)
}

func (s *Store) sweepLocked() {
	now := s.now()
	for k, e := range s.codes {
		if !now.Before(e.expires) {
			delete(s.codes, k)
		}
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// Mailer delivers a verification code to the user.
type Mailer interface {
	SendCode(ctx context.Context, email, name, code string) error
}

// LogMailer records that a code was issued without sending anything. The code
// itself is never logged.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendCode(ctx context.Context, email, name, _ string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "verification code issued; no mail transport configured",
		slog.Int("email_len", len(email)),
		slog.Bool("has_name", name != ""),
	)
	return nil
}
