package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConversationRetention(t *testing.T) {
	d, err := conversationRetention(90)
	require.NoError(t, err)
	require.Equal(t, 90*24*time.Hour, d)

	d, err = conversationRetention(-1)
	require.NoError(t, err)
	require.Equal(t, time.Duration(-1), d)

	_, err = conversationRetention(0)
	require.Error(t, err)
}

func TestVerificationBackend(t *testing.T) {
	require.Equal(t, "memory", verificationBackend("", ""))
	require.Equal(t, "redis", verificationBackend("", "localhost:6379"))
	require.Equal(t, "memory", verificationBackend("memory", "localhost:6379"))
	require.Equal(t, "redis", verificationBackend("redis", ""))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, "DEBUG", parseLevel("debug").String())
	require.Equal(t, "INFO", parseLevel("nonsense").String())
}
