package verification

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, now *time.Time) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s, err := NewRedisStore(client, "", 0)
	require.NoError(t, err)
	s.now = func() time.Time { return *now }
	return s, mr
}

func TestNewRedisStore_RequiresClient(t *testing.T) {
	_, err := NewRedisStore(nil, "", 0)
	require.Error(t, err)
}

func TestRedisStore_IssueAndConsume(t *testing.T) {
	now := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	s, mr := newTestRedisStore(t, &now)

	code, err := s.Issue(ctx, " Ada@Example.com ", "Ada")
	require.NoError(t, err)
	require.Len(t, code, codeDigits)
	require.True(t, mr.Exists(DefaultRedisPrefix+"ada@example.com"))
	require.Equal(t, DefaultTTL+expiredGrace, mr.TTL(DefaultRedisPrefix+"ada@example.com"))

	_, err = s.Consume(ctx, "ada@example.com", "not-it")
	require.ErrorIs(t, err, ErrMismatch)
	require.True(t, mr.Exists(DefaultRedisPrefix+"ada@example.com"), "mismatch keeps the code")

	name, err := s.Consume(ctx, "ADA@example.com", code)
	require.NoError(t, err)
	require.Equal(t, "Ada", name)

	_, err = s.Consume(ctx, "ada@example.com", code)
	require.ErrorIs(t, err, ErrNoCode)
}

func TestRedisStore_Expiry(t *testing.T) {
	now := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	s, mr := newTestRedisStore(t, &now)
	s.newCode = func() (string, error) { return "123456", nil }

	_, err := s.Issue(ctx, "a@example.com", "A")
	require.NoError(t, err)

	now = now.Add(DefaultTTL)
	_, err = s.Consume(ctx, "a@example.com", "123456")
	require.ErrorIs(t, err, ErrExpired)
	require.False(t, mr.Exists(DefaultRedisPrefix+"a@example.com"))
}

func TestRedisStore_ReissueReplaces(t *testing.T) {
	now := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	s, _ := newTestRedisStore(t, &now)
	codes := []string{"111111", "222222"}
	s.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	_, err := s.Issue(ctx, "a@example.com", "first")
	require.NoError(t, err)
	_, err = s.Issue(ctx, "a@example.com", "second")
	require.NoError(t, err)

	_, err = s.Consume(ctx, "a@example.com", "111111")
	require.ErrorIs(t, err, ErrMismatch)
	name, err := s.Consume(ctx, "a@example.com", "222222")
	require.NoError(t, err)
	require.Equal(t, "second", name)
}

func TestRedisStore_ServerDown(t *testing.T) {
	now := time.Now()
	s, mr := newTestRedisStore(t, &now)
	mr.Close()

	_, err := s.Issue(ctx, "a@example.com", "A")
	require.Error(t, err)
	_, err = s.Consume(ctx, "a@example.com", "123456")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoCode)
}
