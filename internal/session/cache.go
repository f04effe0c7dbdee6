package session

import (
	"context"
	"sync"
	"time"

	"github.com/f1nsight/telemetry/internal/monitoring"
	"github.com/f1nsight/telemetry/internal/telemetry"
	"github.com/f1nsight/telemetry/internal/timeutil"
)

// Cache decorates a Loader with a TTL cache keyed by (year, event,
// session). Entries are read-only snapshots; requests served from the cache
// may observe slightly stale data, which is acceptable for completed
// sessions. Failed loads are not cached.
type Cache struct {
	loader Loader
	ttl    time.Duration
	clock  timeutil.Clock

	mu      sync.RWMutex
	entries map[Key]cacheEntry
}

type cacheEntry struct {
	data     *telemetry.SessionData
	loadedAt time.Time
}

// NewCache wraps loader with a TTL cache. A zero ttl means entries never
// expire (historical sessions do not change). A nil clock uses real time.
func NewCache(loader Loader, ttl time.Duration, clock timeutil.Clock) *Cache {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Cache{
		loader:  loader,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[Key]cacheEntry),
	}
}

// Load returns the cached session when fresh, otherwise loads through and
// stores the result.
func (c *Cache) Load(ctx context.Context, key Key) (*telemetry.SessionData, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.fresh(e) {
		return e.data, nil
	}

	data, err := c.loader.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{data: data, loadedAt: c.clock.Now()}
	c.mu.Unlock()
	monitoring.Debugf("session cache: stored %s", key)
	return data, nil
}

func (c *Cache) fresh(e cacheEntry) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.clock.Since(e.loadedAt) < c.ttl
}

// Invalidate drops the entry for key, if present.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll drops every cached entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[Key]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of cached sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
