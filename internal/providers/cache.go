package providers

import (
	"container/list"
	"sync"
)

const defaultCacheSize = 1000

// lruCache caches translation results keyed by (source, target, text).
// Least recently used entries are evicted once the capacity is reached.
type lruCache struct {
	mu      sync.Mutex
	cap     int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value string
}

func newLRUCache(capacity int) *lruCache {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}
	return &lruCache{cap: capacity, order: list.New(), entries: make(map[string]*list.Element)}
}

func cacheKey(sourceLang, targetLang, text string) string {
	return sourceLang + "|" + targetLang + "|" + text
}

func (c *lruCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

func (c *lruCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
	if c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
