package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, &RedisCache{name: "test", client: client, logger: zerolog.Nop()}
}

func TestRedisCache_SetGet(t *testing.T) {
	_, c := setupMiniRedis(t)

	c.Set("buffer:song-1", map[string]any{"targetBufferSec": 20.0}, 5*time.Minute)

	val, ok := c.Get("buffer:song-1")
	require.True(t, ok)
	m, ok := val.(map[string]any)
	require.True(t, ok)
	require.Equal(t, 20.0, m["targetBufferSec"])
}

func TestRedisCache_GetMiss(t *testing.T) {
	_, c := setupMiniRedis(t)

	_, ok := c.Get("missing-key")
	require.False(t, ok)
}

func TestRedisCache_Delete(t *testing.T) {
	_, c := setupMiniRedis(t)

	c.Set("k", "v", time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr, c := setupMiniRedis(t)

	c.Set("k", "v", 50*time.Millisecond)
	mr.FastForward(100 * time.Millisecond)

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestRedisCache_Ping(t *testing.T) {
	_, c := setupMiniRedis(t)
	require.NoError(t, c.Ping(context.Background()))
}
