// Package media resolves remote media URLs into inline base64 data URLs,
// backed by a short-lived byte cache so the same avatar or attachment is not
// fetched once per event.
package media

import (
	"sync"
	"time"
)

// Cache stores fetched payloads under their normalized source URL. Entries
// expire after their TTL; an expired entry reads as a miss. Racing writes to
// the same key are tolerated, last write wins.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache used in tests and as a fallback when
// no cache file is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	// now is swappable so expiry can be tested without sleeping.
	now func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}
