package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryCache is an in-process AccessCache used when no Redis server is
// configured (development) and in tests. It honors the same TTL contract as
// the Redis implementation.
type MemoryCache struct {
	items *ttlcache.Cache[string, SessionData]
}

// NewMemoryCache creates a MemoryCache and starts its expiry loop.
func NewMemoryCache() *MemoryCache {
	items := ttlcache.New[string, SessionData]()
	go items.Start()
	return &MemoryCache{items: items}
}

// Stop terminates the background expiry loop.
func (m *MemoryCache) Stop() {
	m.items.Stop()
}

// Put stores the descriptor with the given TTL.
func (m *MemoryCache) Put(_ context.Context, accessTokenID string, data SessionData, ttl time.Duration) error {
	m.items.Set(accessKey(accessTokenID), data, ttl)
	return nil
}

// Get returns the descriptor or ErrCacheMiss. Expired items are treated as
// absent even before the expiry loop collects them.
func (m *MemoryCache) Get(_ context.Context, accessTokenID string) (SessionData, error) {
	item := m.items.Get(accessKey(accessTokenID))
	if item == nil || item.IsExpired() {
		return SessionData{}, ErrCacheMiss
	}
	return item.Value(), nil
}

// Delete removes one entry.
func (m *MemoryCache) Delete(_ context.Context, accessTokenID string) error {
	m.items.Delete(accessKey(accessTokenID))
	return nil
}

// DeleteMany removes a batch of entries.
func (m *MemoryCache) DeleteMany(ctx context.Context, accessTokenIDs []string) error {
	for _, id := range accessTokenIDs {
		if err := m.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
