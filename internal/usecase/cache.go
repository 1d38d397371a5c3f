package usecase

import (
	"context"
	"sync"

	"github.com/gpx-speedmap/internal/domain"
)

// LookupFunc resolves the speed record for one coordinate.
type LookupFunc func(ctx context.Context, lat, lon float64) (domain.SpeedRecord, error)

type cacheEntry struct {
	ready chan struct{}
	rec   domain.SpeedRecord
	err   error
}

// LookupCache deduplicates speed lookups per spatial cell for the
// lifetime of one invocation. Concurrent callers hitting the same cell
// are collapsed onto a single in-flight lookup: the first caller
// computes, the rest wait for its result.
type LookupCache struct {
	mu      sync.Mutex
	entries map[domain.CellKey]*cacheEntry
}

func NewLookupCache() *LookupCache {
	return &LookupCache{
		entries: make(map[domain.CellKey]*cacheEntry),
	}
}

// GetOrCompute returns the cached record for the coordinate's cell, or
// invokes fn exactly once per cell and caches the result. A failed
// computation wakes all waiters with the error and leaves the cell
// empty so a later call may retry.
func (c *LookupCache) GetOrCompute(ctx context.Context, lat, lon float64, fn LookupFunc) (domain.SpeedRecord, error) {
	key := domain.Cell(lat, lon)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-entry.ready:
			return entry.rec, entry.err
		case <-ctx.Done():
			return domain.SpeedRecord{Lat: lat, Lon: lon}, ctx.Err()
		}
	}
	entry := &cacheEntry{ready: make(chan struct{})}
	c.entries[key] = entry
	c.mu.Unlock()

	entry.rec, entry.err = fn(ctx, lat, lon)
	if entry.err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	close(entry.ready)
	return entry.rec, entry.err
}

// Len reports the number of cached cells.
func (c *LookupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
