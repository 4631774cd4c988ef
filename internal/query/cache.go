package query

import (
	"container/list"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// defaultCacheEntries and defaultCacheTTL bound the response cache's size
// and lifetime: a bounded entry count plus a TTL, not unbounded growth.
const (
	defaultCacheEntries = 512
	defaultCacheTTL     = 10 * time.Minute
)

// cacheEntry is one cached engine response.
type cacheEntry struct {
	key      uint64
	value    any
	epoch    int64
	expireAt time.Time
}

// ResponseCache is the LRU+TTL planner held on Engines, keyed by (tool,
// normalized payload, cache epoch). Only search_symbols reads and writes
// it; the other engines compute every response afresh. Access is guarded by
// a single mutex performing only constant-time map and list operations.
type ResponseCache struct {
	mu       sync.Mutex
	maxSize  int
	ttl      time.Duration
	entries  map[uint64]*list.Element // key -> list element holding *cacheEntry
	order    *list.List               // front = most recently used
	hits     int64
	misses   int64
	evictions int64
}

// NewResponseCache builds a cache with the given capacity and TTL; zero
// values fall back to the package defaults.
func NewResponseCache(maxSize int, ttl time.Duration) *ResponseCache {
	if maxSize <= 0 {
		maxSize = defaultCacheEntries
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ResponseCache{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[uint64]*list.Element, maxSize),
		order:   list.New(),
	}
}

// CacheKey hashes a tool name, a normalized request payload, and the cache
// epoch into a single lookup key with xxhash. Content hashing proper
// stays SHA-256; this key never touches disk, so a fast non-cryptographic
// hash is enough.
func CacheKey(tool, normalizedPayload string, epoch int64) uint64 {
	h := xxhash.New()
	h.WriteString(tool)
	h.WriteString("\x00")
	h.WriteString(normalizedPayload)
	h.WriteString("\x00")
	h.WriteString(strconv.FormatInt(epoch, 10))
	return h.Sum64()
}

// Get returns the cached value for key if present and unexpired. A cache
// epoch mismatch is impossible by construction (the epoch is baked into
// the key), so every hit is against data computed at exactly this epoch;
// any ongoing index run's bump is therefore seen as either a full hit
// against the old epoch or a clean miss against the new one, never a
// torn read.
func (c *ResponseCache) Get(key uint64) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expireAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return entry.value, true
}

// Put stores value under key, evicting the least-recently-used entry if
// the cache is at capacity.
func (c *ResponseCache) Put(key uint64, value any, epoch int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value = &cacheEntry{key: key, value: value, epoch: epoch, expireAt: time.Now().Add(c.ttl)}
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{key: key, value: value, epoch: epoch, expireAt: time.Now().Add(c.ttl)})
	c.entries[key] = el
	if c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
			c.evictions++
		}
	}
}

// Stats reports hit/miss/eviction counters, useful for planner_trace
// aggregate diagnostics.
func (c *ResponseCache) Stats() (hits, misses, evictions int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.evictions
}
