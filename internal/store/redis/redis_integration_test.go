//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/linkspace/linkspace/internal/id"
	"github.com/linkspace/linkspace/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) Config {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	return Config{Addr: addr}
}

func TestRevocationStore_Integration(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, newTestClient(t))
	require.NoError(t, err)
	defer client.Close()

	store := NewRevocationStore(client, "linkspace:test:revoked:")
	jti := id.NewUUIDv7()

	fresh, err := store.Revoke(ctx, jti, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.Revoke(ctx, jti, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, fresh, "second consume must lose")

	revoked, err := store.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, id.NewUUIDv7())
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRateLimit_Integration(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, newTestClient(t))
	require.NoError(t, err)
	defer client.Close()

	limiter := ratelimit.NewRedis(client, "linkspace:test:rl:", 5, time.Minute)
	key := id.NewUUIDv7()
	for i := 1; i <= 5; i++ {
		d, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 5-i, d.Remaining)
	}
	d, err := limiter.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}
