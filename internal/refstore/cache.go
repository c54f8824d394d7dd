package refstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/intake-cli/internal/model"
)

// EntityCache is a bounded, TTL-based cache of reference entities keyed by
// kind and natural key. It is constructed explicitly and injected rather
// than shared as package state, so tests never leak entries into each other.
// Population is race-tolerant: last writer wins, no cross-entry locking.
type EntityCache struct {
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	capacity int
	ttl      time.Duration
	nowFunc  func() time.Time
}

type cacheEntry struct {
	entity   model.ReferenceEntity
	storedAt time.Time
}

// NewEntityCache creates a cache with the given capacity and TTL.
// Non-positive values fall back to 10000 entries / 15 minutes.
func NewEntityCache(capacity int, ttl time.Duration) *EntityCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &EntityCache{
		entries:  make(map[string]cacheEntry, capacity),
		capacity: capacity,
		ttl:      ttl,
		nowFunc:  time.Now,
	}
}

func cacheKey(kind model.EntityKind, key string) string {
	return string(kind) + "\x00" + key
}

// Get returns the cached entity, or nil on miss or expiry.
func (c *EntityCache) Get(kind model.EntityKind, key string) *model.ReferenceEntity {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(kind, key)]
	c.mu.RUnlock()
	if !ok || c.nowFunc().Sub(entry.storedAt) > c.ttl {
		return nil
	}
	e := entry.entity
	return &e
}

// Set stores an entity, evicting the oldest entry when at capacity.
func (c *EntityCache) Set(e model.ReferenceEntity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := cacheKey(e.Kind, e.Key)
	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[k] = cacheEntry{entity: e, storedAt: c.nowFunc()}
}

// Len returns the number of live entries, counting expired ones until they
// are evicted.
func (c *EntityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *EntityCache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// CachedStore wraps a Store with an EntityCache on key lookups. All other
// operations pass through; the resolution path is read-only, so entries can
// only go stale for the TTL window, never wrong.
type CachedStore struct {
	Store
	cache *EntityCache
}

// NewCachedStore wraps store with the given cache.
func NewCachedStore(store Store, cache *EntityCache) *CachedStore {
	return &CachedStore{Store: store, cache: cache}
}

func (s *CachedStore) GetByKey(ctx context.Context, kind model.EntityKind, key string) (*model.ReferenceEntity, error) {
	if e := s.cache.Get(kind, key); e != nil {
		return e, nil
	}
	e, err := s.Store.GetByKey(ctx, kind, key)
	if err != nil {
		return nil, err
	}
	if e != nil {
		s.cache.Set(*e)
	}
	return e, nil
}

// Warm preloads active entities of the given kind into the cache, one
// bounded page at a time. Returns the number of entities loaded.
func (s *CachedStore) Warm(ctx context.Context, kind model.EntityKind, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = 500
	}
	loaded := 0
	for offset := 0; ; offset += pageSize {
		page, err := s.Store.ListActive(ctx, kind, pageSize, offset)
		if err != nil {
			return loaded, err
		}
		for _, e := range page {
			s.cache.Set(e)
		}
		loaded += len(page)
		if len(page) < pageSize || loaded >= s.cache.capacity {
			break
		}
	}
	zap.L().Info("reference cache warmed",
		zap.String("kind", string(kind)),
		zap.Int("entities", loaded),
	)
	return loaded, nil
}
