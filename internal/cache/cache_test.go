package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMemory(t *testing.T) Cache {
	t.Helper()
	c := NewMemoryCache(zap.NewNop())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMemoryCacheSetGet(t *testing.T) {
	c := newMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := newMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCacheDeletePattern(t *testing.T) {
	c := newMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "comments:roots:newest:10:anon", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "comments:roots:mostLiked:10:anon", []byte("b"), time.Minute))
	require.NoError(t, c.Set(ctx, "users:1", []byte("c"), time.Minute))

	require.NoError(t, c.DeletePattern(ctx, "comments:*"))

	_, ok := c.Get(ctx, "comments:roots:newest:10:anon")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "comments:roots:mostLiked:10:anon")
	assert.False(t, ok)

	// Keys outside the pattern survive.
	_, ok = c.Get(ctx, "users:1")
	assert.True(t, ok)
}

func TestMemoryCacheOverwrite(t *testing.T) {
	c := newMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("old"), time.Minute))
	require.NoError(t, c.Set(ctx, "k", []byte("new"), time.Minute))

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestMemoryCacheHealth(t *testing.T) {
	c := newMemory(t)
	assert.NoError(t, c.Health(context.Background()))
}

func TestNewFallsBackToMemory(t *testing.T) {
	// An unknown provider and a redis provider without a reachable server
	// both come up as the in-memory cache rather than failing startup.
	c := New("bogus", "", zap.NewNop())
	require.NotNil(t, c)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	_, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
}
