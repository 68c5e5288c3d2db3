package counter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedis(context.Background(), RedisConfig{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedis_Increment(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		hit, err := c.Increment(ctx, "10.0.0.1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(i), hit.Count)
		assert.True(t, hit.ResetAt.After(time.Now()))
	}

	assert.True(t, mr.Exists("test:10.0.0.1"))
	assert.Equal(t, time.Minute, mr.TTL("test:10.0.0.1"))
}

func TestRedis_WindowExpiry(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	_, err := c.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	_, err = c.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)

	mr.FastForward(time.Minute + time.Second)

	hit, err := c.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hit.Count)
}

func TestRedis_RestoresMissingTTL(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:k", "7"))

	hit, err := c.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(8), hit.Count)
	assert.Equal(t, time.Minute, mr.TTL("test:k"))
}

func TestNewRedis_RequiresAddr(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisConfig{})
	require.Error(t, err)
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), RedisConfig{Addr: addr})
	require.Error(t, err)
}

func TestNewRedisFromClient_DefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisFromClient(client, "")
	t.Cleanup(func() { _ = c.Close() })

	_, err := c.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("reqguard:rate:k"))
}
