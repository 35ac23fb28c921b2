package orders

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/metrics"
)

// lookupFetchTimeout bounds a shared lookup fetch.
const lookupFetchTimeout = 30 * time.Second

type cacheKey struct {
	snapshot string
	lookup   string
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// lookupCache memoizes lookup results per (snapshot, lookup). Concurrent misses on the
// same key share one fetch. Failed fetches are not stored.
type lookupCache struct {
	clock  clockwork.Clock
	maxAge time.Duration

	mu         sync.Mutex
	snapshot   string
	generation uint64
	entries    map[cacheKey]cacheEntry

	group singleflight.Group
}

func newLookupCache(clock clockwork.Clock, snapshot string, maxAge time.Duration) *lookupCache {
	return &lookupCache{
		clock:    clock,
		maxAge:   maxAge,
		snapshot: snapshot,
		entries:  make(map[cacheKey]cacheEntry),
	}
}

func (c *lookupCache) setSnapshot(snapshot string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snapshot
}

func (c *lookupCache) currentSnapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func (c *lookupCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]cacheEntry)
	c.generation++
}

func (c *lookupCache) get(key cacheKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.maxAge > 0 && c.clock.Since(e.storedAt) >= c.maxAge {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *lookupCache) put(key cacheKey, generation uint64, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Drop results fetched before an invalidation.
	if generation != c.generation {
		return
	}
	c.entries[key] = cacheEntry{value: value, storedAt: c.clock.Now()}
}

func (c *lookupCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cached returns the memoized value of lookup for the current snapshot, fetching it on a miss.
func cached[T any](ctx context.Context, c *lookupCache, lookup string, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	key := cacheKey{snapshot: c.snapshot, lookup: lookup}
	generation := c.generation
	c.mu.Unlock()

	if v, ok := c.get(key); ok {
		metrics.RecordLookup(lookup, true)
		return v.(T), nil
	}
	metrics.RecordLookup(lookup, false)

	ch := c.group.DoChan(key.snapshot+"\x00"+key.lookup, func() (any, error) {
		// Shared by every waiter on the key; outlives the caller that started it.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupFetchTimeout)
		defer cancel()
		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.put(key, generation, value)
		return value, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
