package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCartExpired(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	require.False(t, Cart{}.Expired(now), "zero ExpiresAt never expires")
	require.False(t, Cart{ExpiresAt: now.Add(time.Hour)}.Expired(now))
	require.True(t, Cart{ExpiresAt: now.Add(-time.Second)}.Expired(now))
}
