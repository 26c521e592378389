package registry

import (
	"container/list"
	"regexp"
)

// lruCache is a bounded least-recently-used cache of compiled regular
// expressions keyed by pattern string. Both get and put refresh an entry's
// recency; inserting past capacity evicts the least recently used entry. A
// capacity of zero disables the cache entirely: get always misses and put
// stores nothing. The cache owns its ordering structure exclusively and
// performs no locking; callers sharing a cache across goroutines must
// serialize access.
type lruCache struct {
	capacity int
	order    *list.List // front is most recently used
	items    map[string]*list.Element
}

// lruEntry is the value stored in each list element.
type lruEntry struct {
	pattern string
	re      *regexp.Regexp
}

// newLRUCache returns an lruCache holding up to capacity entries.
func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// get returns the compiled pattern cached under pattern and refreshes its
// recency. The second return value reports whether the pattern was present.
func (c *lruCache) get(pattern string) (*regexp.Regexp, bool) {
	el, ok := c.items[pattern]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).re, true
}

// put caches re under pattern, refreshing its recency if already present
// and evicting the least recently used entry if the cache is over capacity.
func (c *lruCache) put(pattern string, re *regexp.Regexp) {
	if c.capacity == 0 {
		return
	}

	if el, ok := c.items[pattern]; ok {
		el.Value.(*lruEntry).re = re
		c.order.MoveToFront(el)
		return
	}

	c.items[pattern] = c.order.PushFront(&lruEntry{pattern: pattern, re: re})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry).pattern)
	}
}

// len returns the number of cached patterns.
func (c *lruCache) len() int {
	return c.order.Len()
}
