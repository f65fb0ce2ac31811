package references

import "sync"

type cacheKey struct {
	ref string
	to  TargetType
}

type cacheEntry struct {
	value   any
	pending bool
}

type cacheState int

const (
	cacheMiss cacheState = iota
	cachePending
	cacheDone
)

// ResolutionCache memoizes resolved references per (reference key, target type).
//
// A key is claimed before its resolution starts and completed once with the result, so a key
// present in the cache means its resolution is either in progress or finished. Hitting a key that
// is still in progress means the resolution looped back on itself.
type ResolutionCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

// NewResolutionCache creates an empty cache.
func NewResolutionCache() *ResolutionCache {
	return &ResolutionCache{
		entries: make(map[cacheKey]*cacheEntry),
	}
}

// Has reports whether the key is in progress or resolved.
func (c *ResolutionCache) Has(ref string, to TargetType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[cacheKey{ref, to}]
	return ok
}

// Get returns the resolved value for the key, ignoring resolutions still in progress.
func (c *ResolutionCache) Get(ref string, to TargetType) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey{ref, to}]
	if !ok || e.pending {
		return nil, false
	}
	return e.value, true
}

// Set stores a resolved value. A key that is already resolved is never overwritten.
func (c *ResolutionCache) Set(ref string, to TargetType, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	key := cacheKey{ref, to}
	if e, ok := c.entries[key]; ok && !e.pending {
		return
	}
	c.entries[key] = &cacheEntry{value: value}
}

// Len returns the number of keys in progress or resolved.
func (c *ResolutionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Clear drops every entry.
func (c *ResolutionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]*cacheEntry)
}

// claim checks the key and, on a miss, marks it as in progress in the same step.
func (c *ResolutionCache) claim(ref string, to TargetType) (any, cacheState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.init()

	key := cacheKey{ref, to}
	e, ok := c.entries[key]
	switch {
	case !ok:
		c.entries[key] = &cacheEntry{pending: true}
		return nil, cacheMiss
	case e.pending:
		return nil, cachePending
	default:
		return e.value, cacheDone
	}
}

// release drops an in-progress claim after a failed resolution.
func (c *ResolutionCache) release(ref string, to TargetType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{ref, to}
	if e, ok := c.entries[key]; ok && e.pending {
		delete(c.entries, key)
	}
}

func (c *ResolutionCache) init() {
	if c.entries == nil {
		c.entries = make(map[cacheKey]*cacheEntry)
	}
}
