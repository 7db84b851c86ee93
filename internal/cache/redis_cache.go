package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the production AccessCache backed by Redis. Descriptors are
// stored as JSON strings with a native Redis TTL.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Put stores the descriptor under the access-token key with the given TTL.
func (r *RedisCache) Put(ctx context.Context, accessTokenID string, data SessionData, ttl time.Duration) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session data: %w", err)
	}
	return r.client.Set(ctx, accessKey(accessTokenID), b, ttl).Err()
}

// Get returns the descriptor or ErrCacheMiss when the key is absent.
func (r *RedisCache) Get(ctx context.Context, accessTokenID string) (SessionData, error) {
	var data SessionData
	b, err := r.client.Get(ctx, accessKey(accessTokenID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return data, ErrCacheMiss
	}
	if err != nil {
		return data, err
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return data, fmt.Errorf("unmarshal session data: %w", err)
	}
	return data, nil
}

// Delete removes one entry. Absent keys are not an error.
func (r *RedisCache) Delete(ctx context.Context, accessTokenID string) error {
	return r.client.Del(ctx, accessKey(accessTokenID)).Err()
}

// DeleteMany removes a batch of entries through one pipeline round trip.
func (r *RedisCache) DeleteMany(ctx context.Context, accessTokenIDs []string) error {
	if len(accessTokenIDs) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, id := range accessTokenIDs {
		pipe.Del(ctx, accessKey(id))
	}
	_, err := pipe.Exec(ctx)
	return err
}
