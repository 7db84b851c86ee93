package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func testData() SessionData {
	return SessionData{
		SessionID:     uuid.NewString(),
		UserID:        7,
		EncryptionKey: "0b7e1d2c",
	}
}

func TestRedisCachePutGet(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()
	id := uuid.NewString()
	data := testData()

	require.NoError(t, c.Put(ctx, id, data, time.Minute))

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRedisCacheMiss(t *testing.T) {
	c, _ := newTestRedisCache(t)
	_, err := c.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheTTL(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, c.Put(ctx, id, testData(), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheDelete(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, c.Put(ctx, id, testData(), time.Minute))
	require.NoError(t, c.Delete(ctx, id))

	_, err := c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Deleting an absent entry is not an error.
	assert.NoError(t, c.Delete(ctx, id))
}

func TestRedisCacheDeleteMany(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	for _, id := range ids {
		require.NoError(t, c.Put(ctx, id, testData(), time.Minute))
	}
	require.NoError(t, c.DeleteMany(ctx, ids))

	for _, id := range ids {
		_, err := c.Get(ctx, id)
		assert.ErrorIs(t, err, ErrCacheMiss)
	}

	assert.NoError(t, c.DeleteMany(ctx, nil))
}

func TestRedisCacheKeyPrefix(t *testing.T) {
	c, mr := newTestRedisCache(t)
	id := uuid.NewString()
	require.NoError(t, c.Put(context.Background(), id, testData(), time.Minute))
	assert.True(t, mr.Exists("auth:access:"+id))
}

func TestMemoryCachePutGetDelete(t *testing.T) {
	c := NewMemoryCache()
	defer c.Stop()
	ctx := context.Background()
	id := uuid.NewString()
	data := testData()

	require.NoError(t, c.Put(ctx, id, data, time.Minute))
	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, c.Delete(ctx, id))
	_, err = c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Stop()
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, c.Put(ctx, id, testData(), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDeleteMany(t *testing.T) {
	c := NewMemoryCache()
	defer c.Stop()
	ctx := context.Background()

	ids := []string{uuid.NewString(), uuid.NewString()}
	for _, id := range ids {
		require.NoError(t, c.Put(ctx, id, testData(), time.Minute))
	}
	require.NoError(t, c.DeleteMany(ctx, ids))
	for _, id := range ids {
		_, err := c.Get(ctx, id)
		assert.ErrorIs(t, err, ErrCacheMiss)
	}
}
