package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	defer c.Close()

	t.Run("get and set", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
		v, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", string(v))
	})

	t.Run("expired entries miss", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Millisecond))
		time.Sleep(5 * time.Millisecond)
		_, ok, _ := c.Get(ctx, "short")
		assert.False(t, ok)
	})

	t.Run("delete prefix", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "products:1", []byte("a"), 0))
		require.NoError(t, c.Set(ctx, "products:2", []byte("b"), 0))
		require.NoError(t, c.Set(ctx, "categories:tree", []byte("c"), 0))

		require.NoError(t, c.DeletePrefix(ctx, "products:"))
		_, ok, _ := c.Get(ctx, "products:1")
		assert.False(t, ok)
		_, ok, _ = c.Get(ctx, "categories:tree")
		assert.True(t, ok)

		require.NoError(t, c.Delete(ctx, "categories:tree"))
		_, ok, _ = c.Get(ctx, "categories:tree")
		assert.False(t, ok)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		other := NewInMemoryCache()
		other.Close()
		assert.NotPanics(t, other.Close)
	})
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	defer c.Close()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, SetJSON(ctx, c, "p", payload{Name: "rum", Count: 3}, time.Minute))

	var got payload
	ok, err := GetJSON(ctx, c, "p", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "rum", Count: 3}, got)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), time.Minute))
	ok, err = GetJSON(ctx, c, "bad", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}
