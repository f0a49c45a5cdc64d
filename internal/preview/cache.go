package preview

import (
	"sync"

	"github.com/babarot/tana/internal/entry"
)

type cacheEntry struct {
	artifact   *Artifact
	cost       int64
	lastAccess uint64
	refs       int
}

// Cache is a size-bounded LRU of preview artifacts keyed by fingerprint.
// Entries referenced through a live Handle are never evicted.
type Cache struct {
	maxSize int64

	mu      sync.Mutex
	entries map[entry.Fingerprint]*cacheEntry
	size    int64
	clock   uint64
}

// Handle pins an artifact in the cache until Release is called
type Handle struct {
	Artifact *Artifact

	once  sync.Once
	cache *Cache
	fp    entry.Fingerprint
	entry *cacheEntry
}

// Release unpins the artifact. It is safe to call more than once and on nil.
func (h *Handle) Release() {
	if h == nil || h.entry == nil {
		return
	}
	h.once.Do(func() {
		h.cache.mu.Lock()
		defer h.cache.mu.Unlock()
		if h.entry.refs > 0 {
			h.entry.refs--
		}
	})
}

// NewCache creates a cache holding at most maxSize bytes of artifacts
func NewCache(maxSize int64) *Cache {
	return &Cache{
		maxSize: maxSize,
		entries: make(map[entry.Fingerprint]*cacheEntry),
	}
}

// Get returns a pinned handle and refreshes the entry's recency
func (c *Cache) Get(fp entry.Fingerprint) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fp]
	if !ok {
		return nil, false
	}
	return c.pin(fp, e), true
}

// Put stores a and returns a pinned handle to it. When the bound cannot be
// met without evicting pinned entries the artifact is returned uncached.
func (c *Cache) Put(fp entry.Fingerprint, a *Artifact) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[fp]; ok {
		return c.pin(fp, e)
	}

	cost := a.Cost()
	if cost > c.maxSize || c.pinnedSize()+cost > c.maxSize {
		// evicting could not make room, keep what is cached
		return &Handle{Artifact: a}
	}
	for c.size+cost > c.maxSize {
		c.evictOldest()
	}

	e := &cacheEntry{artifact: a, cost: cost}
	c.entries[fp] = e
	c.size += cost
	return c.pin(fp, e)
}

// Remove drops fp regardless of recency. Outstanding handles stay valid.
func (c *Cache) Remove(fp entry.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[fp]; ok {
		c.size -= e.cost
		delete(c.entries, fp)
	}
}

// RemovePath drops every version of path
func (c *Cache) RemovePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for fp, e := range c.entries {
		if fp.Path == path {
			c.size -= e.cost
			delete(c.entries, fp)
		}
	}
}

// Stats returns cache statistics.
func (c *Cache) Stats() (size, maxSize int64, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size, c.maxSize, len(c.entries)
}

// pin must be called with lock held
func (c *Cache) pin(fp entry.Fingerprint, e *cacheEntry) *Handle {
	c.clock++
	e.lastAccess = c.clock
	e.refs++
	return &Handle{Artifact: e.artifact, cache: c, fp: fp, entry: e}
}

// pinnedSize is the cost that eviction cannot reclaim. Must be called with lock held.
func (c *Cache) pinnedSize() int64 {
	var n int64
	for _, e := range c.entries {
		if e.refs > 0 {
			n += e.cost
		}
	}
	return n
}

// evictOldest removes the least recently used unpinned entry.
// Must be called with lock held.
func (c *Cache) evictOldest() bool {
	var oldest *cacheEntry
	var oldestFP entry.Fingerprint

	for fp, e := range c.entries {
		if e.refs > 0 {
			continue
		}
		if oldest == nil || e.lastAccess < oldest.lastAccess {
			oldest = e
			oldestFP = fp
		}
	}

	if oldest == nil {
		return false
	}

	c.size -= oldest.cost
	delete(c.entries, oldestFP)
	return true
}
