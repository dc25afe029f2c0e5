package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/smartsave/backend/internal/domain"
)

type memoryEntry struct {
	records  []domain.ProductRecord
	storedAt time.Time
}

// MemoryCache is a thread-safe in-process layer over another SourceCache.
// Writes go through to the inner cache; reads are served from memory while
// fresh, so repeated queries within a TTL window do not re-read and re-parse
// the backing files. Only entries this process wrote are memoized: a hit
// from the inner cache is returned as-is, because its age is unknown here
// and memoizing it could stretch staleness past the TTL.
type MemoryCache struct {
	inner domain.SourceCache
	mu    sync.RWMutex
	data  map[string]memoryEntry

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache layers an in-process cache over inner. Close releases the
// background sweeper.
func NewMemoryCache(inner domain.SourceCache) *MemoryCache {
	c := &MemoryCache{
		inner: inner,
		data:  make(map[string]memoryEntry),
		stop:  make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Close stops the sweep goroutine. Safe to call more than once; the cache
// itself stays usable.
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func entryKey(retailer, query, region string) string {
	return strings.ToLower(retailer) + "|" + strings.ToLower(strings.TrimSpace(query)) + "|" + strings.ToUpper(region)
}

// Get returns the cached records for (retailer, query, region) when the
// stored entry is younger than ttl, falling back to the inner cache.
func (c *MemoryCache) Get(retailer, query, region string, ttl time.Duration) ([]domain.ProductRecord, error) {
	key := entryKey(retailer, query, region)

	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if ok && len(entry.records) > 0 && time.Since(entry.storedAt) <= ttl {
		out := make([]domain.ProductRecord, len(entry.records))
		copy(out, entry.records)
		return out, nil
	}

	if c.inner == nil {
		return nil, domain.ErrCacheMiss
	}
	return c.inner.Get(retailer, query, region, ttl)
}

// Put stores records in memory and writes them through to the inner cache.
// The write-through error is the caller's to handle; the memory entry stays
// either way so the current process keeps serving what it fetched.
func (c *MemoryCache) Put(retailer, query, region string, records []domain.ProductRecord) error {
	kept := make([]domain.ProductRecord, len(records))
	copy(kept, records)

	c.mu.Lock()
	c.data[entryKey(retailer, query, region)] = memoryEntry{records: kept, storedAt: time.Now()}
	c.mu.Unlock()

	if c.inner == nil {
		return nil
	}
	return c.inner.Put(retailer, query, region, records)
}

// sweep drops entries older than any retailer TTL in use. Six hours is the
// longest configured TTL, so anything older is unreachable garbage.
func (c *MemoryCache) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-6 * time.Hour)
			c.mu.Lock()
			for key, entry := range c.data {
				if entry.storedAt.Before(cutoff) {
					delete(c.data, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Size reports the current entry count, for logging and tests.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
