package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	bl := NewInMemoryTokenBlacklist()

	t.Run("blacklists jti until ttl", func(t *testing.T) {
		require.NoError(t, bl.AddToBlacklist(ctx, "jti-1", time.Minute))
		ok, err := bl.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = bl.IsBlacklisted(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired entries are dropped", func(t *testing.T) {
		require.NoError(t, bl.AddToBlacklist(ctx, "short", time.Millisecond))
		time.Sleep(5 * time.Millisecond)
		ok, err := bl.IsBlacklisted(ctx, "short")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("non-positive ttl is ignored", func(t *testing.T) {
		require.NoError(t, bl.AddToBlacklist(ctx, "gone", 0))
		ok, _ := bl.IsBlacklisted(ctx, "gone")
		assert.False(t, ok)
	})

	t.Run("user invalidation rejects older tokens", func(t *testing.T) {
		require.NoError(t, bl.InvalidateUserTokens(ctx, 5, time.Hour))

		old, err := bl.IsUserTokenInvalidated(ctx, 5, time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, old)

		fresh, err := bl.IsUserTokenInvalidated(ctx, 5, time.Now().Add(time.Second))
		require.NoError(t, err)
		assert.False(t, fresh)

		other, err := bl.IsUserTokenInvalidated(ctx, 6, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.False(t, other)
	})
}
