package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisPrefix = "aurora:verify:"
	// expiredGrace keeps an expired code in Redis a while longer so Consume can
	// tell an expired code from one that was never issued.
	expiredGrace = time.Hour
)

type redisEntry struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RedisStore keeps codes in Redis so every process sees the same outstanding
// code. It behaves like Store.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	now     func() time.Time
	newCode func() (string, error)
}

func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("verification: redis client must not be nil")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, now: time.Now, newCode: randomCode}, nil
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("verification: ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(email string) string {
	return s.prefix + normalize(email)
}

func (s *RedisStore) Issue(ctx context.Context, email, name string) (string, error) {
	if normalize(email) == "" {
		return "", errors.New("verification: email is required")
	}
	code, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("verification: generate code: %w", err)
	}
	body, err := json.Marshal(redisEntry{Code: code, Name: name, ExpiresAt: s.now().Add(s.ttl)})
	if err != nil {
		return "", fmt.Errorf("verification: encode code: %w", err)
	}
	if err := s.client.Set(ctx, s.key(email), body, s.ttl+expiredGrace).Err(); err != nil {
		return "", fmt.Errorf("verification: store code: %w", err)
	}
	return code, nil
}

// Consume checks code for email inside a WATCH transaction, so a code is
// accepted at most once even when two requests race.
func (s *RedisStore) Consume(ctx context.Context, email, code string) (string, error) {
	key := s.key(email)
	var name string
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNoCode
		}
		if err != nil {
			return fmt.Errorf("verification: load code: %w", err)
		}
		var e redisEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("verification: decode code: %w", err)
		}

		expired := !s.now().Before(e.ExpiresAt)
		if !expired && strings.TrimSpace(code) != e.Code {
			return ErrMismatch
		}
		if _, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, key)
			return nil
		}); err != nil {
			return err
		}
		if expired {
			return ErrExpired
		}
		name = e.Name
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// The code was replaced or consumed concurrently.
		return "", ErrMismatch
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
