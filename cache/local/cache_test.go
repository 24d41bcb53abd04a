package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := NewCache(Config{GCInterval: time.Hour})
	t.Cleanup(c.Close)
	return c
}

func TestKV_SetGetDel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Del(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKV_TTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	ok, _ := c.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestSetNX(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Del(ctx, "lock"))
	ok, _ = c.SetNX(ctx, "lock", "3", time.Minute)
	assert.True(t, ok)
}

func TestExpire(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Expire(ctx, "missing", time.Minute), ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	require.NoError(t, c.Expire(ctx, "k", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestZSet_RevRangeAndScore(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.ZAdd(ctx, "rank", 100, "a"))
	require.NoError(t, c.ZAdd(ctx, "rank", 300, "b"))
	require.NoError(t, c.ZAdd(ctx, "rank", 200, "c"))

	members, err := c.ZRevRange(ctx, "rank", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, members)

	top, err := c.ZRevRange(ctx, "rank", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, top)

	score, err := c.ZScore(ctx, "rank", "c")
	require.NoError(t, err)
	assert.Equal(t, float64(200), score)

	_, err = c.ZScore(ctx, "rank", "zz")
	assert.ErrorIs(t, err, ErrNotFound)
}
