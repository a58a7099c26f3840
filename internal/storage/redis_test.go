package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisGetSetRemove(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	r := NewRedis(client, time.Hour)

	_, ok, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "k", "v"))
	value, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	require.NoError(t, r.Remove(ctx, "k"))
	_, ok, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisKeysExpireAfterTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	r := NewRedis(client, time.Minute)

	require.NoError(t, r.Set(ctx, "k", "v"))
	mr.FastForward(2 * time.Minute)

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisUnavailableReturnsError(t *testing.T) {
	mr, client := newTestRedis(t)
	r := NewRedis(client, 0)
	mr.Close()

	_, _, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
}
