// Package build provides the render cache and fingerprints used to skip
// regenerating an unchanged artifact.
package build

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache caches rendered artifacts with LRU eviction and TTL. It realizes the
// cache(key) -> artifact-or-build contract through GetOrBuild.
type Cache struct {
	entries     map[string]*CacheEntry
	mutex       sync.Mutex
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	now         func() time.Time
	// LRU list with sentinel head and tail
	head *CacheEntry
	tail *CacheEntry

	hits      int64
	misses    int64
	sets      int64
	evictions int64
}

// CacheEntry is one cached artifact.
type CacheEntry struct {
	Key        string
	Value      []byte
	CreatedAt  time.Time
	AccessedAt time.Time
	Size       int64

	prev *CacheEntry
	next *CacheEntry
}

// CacheStats is a point-in-time view of the cache counters.
type CacheStats struct {
	Entries   int
	Size      int64
	MaxSize   int64
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// NewCache creates a cache holding at most maxSize bytes of values. A zero
// ttl keeps entries until they are evicted.
func NewCache(maxSize int64, ttl time.Duration) *Cache {
	cache := &Cache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}

	cache.head = &CacheEntry{}
	cache.tail = &CacheEntry{}
	cache.head.next = cache.tail
	cache.tail.prev = cache.head

	return cache
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.get(key)
}

func (c *Cache) get(key string) ([]byte, bool) {
	entry, exists := c.entries[key]
	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	if c.expired(entry) {
		c.remove(entry)
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	c.moveToFront(entry)
	entry.AccessedAt = c.now()
	atomic.AddInt64(&c.hits, 1)
	return entry.Value, true
}

// Set stores a value in the cache. Values larger than the cache are not
// stored.
func (c *Cache) Set(key string, value []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.set(key, value)
}

func (c *Cache) set(key string, value []byte) {
	size := int64(len(value))
	if size > c.maxSize {
		return
	}

	if existing, exists := c.entries[key]; exists {
		c.currentSize += size - existing.Size
		existing.Value = value
		existing.Size = size
		existing.CreatedAt = c.now()
		existing.AccessedAt = existing.CreatedAt
		c.moveToFront(existing)
		c.evictIfNeeded(0)
		atomic.AddInt64(&c.sets, 1)
		return
	}

	c.evictIfNeeded(size)

	now := c.now()
	entry := &CacheEntry{
		Key:        key,
		Value:      value,
		CreatedAt:  now,
		AccessedAt: now,
		Size:       size,
	}
	c.entries[key] = entry
	c.currentSize += size
	c.addToFront(entry)
	atomic.AddInt64(&c.sets, 1)
}

// GetOrBuild returns the cached value for key, or runs build and caches its
// result. Build errors are returned and nothing is cached. The lock is held
// while building so concurrent callers never build the same key twice.
func (c *Cache) GetOrBuild(key string, build func() ([]byte, error)) ([]byte, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if value, ok := c.get(key); ok {
		return value, true, nil
	}

	value, err := build()
	if err != nil {
		return nil, false, err
	}
	c.set(key, value)
	return value, false, nil
}

// Clear drops every entry and resets the counters.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*CacheEntry)
	c.currentSize = 0
	c.head.next = c.tail
	c.tail.prev = c.head

	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.sets, 0)
	atomic.StoreInt64(&c.evictions, 0)
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return CacheStats{
		Entries:   len(c.entries),
		Size:      c.currentSize,
		MaxSize:   c.maxSize,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Sets:      atomic.LoadInt64(&c.sets),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}

func (c *Cache) expired(entry *CacheEntry) bool {
	return c.ttl > 0 && c.now().Sub(entry.CreatedAt) > c.ttl
}

// evictIfNeeded drops least recently used entries until newSize fits.
func (c *Cache) evictIfNeeded(newSize int64) {
	for c.currentSize+newSize > c.maxSize && c.tail.prev != c.head {
		c.remove(c.tail.prev)
		atomic.AddInt64(&c.evictions, 1)
	}
}

func (c *Cache) remove(entry *CacheEntry) {
	c.removeFromList(entry)
	delete(c.entries, entry.Key)
	c.currentSize -= entry.Size
}

func (c *Cache) addToFront(entry *CacheEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *Cache) removeFromList(entry *CacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (c *Cache) moveToFront(entry *CacheEntry) {
	c.removeFromList(entry)
	c.addToFront(entry)
}
