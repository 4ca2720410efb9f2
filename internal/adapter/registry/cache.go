package registry

import (
	"context"
	"sync"

	"github.com/openplume/air-quality-etl/internal/domain"
)

// CachedDirectory wraps a StationDirectory with an in-memory LRU cache.
// Registry records change rarely, so a modest cache absorbs nearly every
// lookup on a steady station fleet.
type CachedDirectory struct {
	inner domain.StationDirectory
	cache *lruCache
}

// NewCachedDirectory creates a cache decorator around a directory.
func NewCachedDirectory(inner domain.StationDirectory, maxEntries int) *CachedDirectory {
	return &CachedDirectory{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedDirectory) Lookup(ctx context.Context, station string) (domain.StationInfo, error) {
	if info, ok := c.cache.get(station); ok {
		return info, nil
	}
	info, err := c.inner.Lookup(ctx, station)
	if err != nil {
		return info, err
	}
	// Only cache non-empty records so stations registered later are retried.
	if info.Name != "" {
		c.cache.put(station, info)
	}
	return info, nil
}

// lruCache is a simple thread-safe LRU cache for StationInfos.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.StationInfo
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.StationInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.StationInfo{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.StationInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
