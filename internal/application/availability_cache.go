package application

import (
	"sync"
	"time"
)

// availabilityCache stores recently computed day grids to avoid recomputing
// the full partition for repeated lookups while reservations and the catalog
// remain unchanged. Any write to either invalidates the whole cache.
type availabilityCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]availabilityCacheEntry
}

type availabilityCacheEntry struct {
	grid      DayAvailability
	expiresAt time.Time
}

func newAvailabilityCache(ttl time.Duration, maxEntries int, now func() time.Time) *availabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if now == nil {
		now = time.Now
	}
	return &availabilityCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]availabilityCacheEntry),
	}
}

func (c *availabilityCache) Get(key string) (DayAvailability, bool) {
	if c == nil {
		return DayAvailability{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return DayAvailability{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return DayAvailability{}, false
	}
	return cloneDayAvailability(entry.grid), true
}

func (c *availabilityCache) Store(key string, grid DayAvailability) {
	if c == nil {
		return
	}
	cloned := cloneDayAvailability(grid)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = availabilityCacheEntry{grid: cloned, expiresAt: expiry}
}

func (c *availabilityCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]availabilityCacheEntry)
	c.mu.Unlock()
}

func (c *availabilityCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *availabilityCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneDayAvailability(grid DayAvailability) DayAvailability {
	out := DayAvailability{Date: grid.Date}
	out.Resources = make([]ResourceAvailability, len(grid.Resources))
	for i, resource := range grid.Resources {
		cloned := resource
		cloned.Resource.AllowedCategories = append([]string(nil), resource.Resource.AllowedCategories...)
		cloned.Blocks = append([]BlockAvailability(nil), resource.Blocks...)
		out.Resources[i] = cloned
	}
	return out
}
