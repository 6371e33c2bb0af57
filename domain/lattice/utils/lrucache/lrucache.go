package lrucache

import (
	"container/list"
)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache is a least-recently-used cache holding at most capacity entries.
// It is not safe for concurrent use.
type LRUCache[K comparable, V any] struct {
	cache    map[K]*list.Element
	order    *list.List
	capacity int
}

// New creates a new LRUCache
func New[K comparable, V any](capacity int) *LRUCache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache[K, V]{
		cache:    make(map[K]*list.Element, capacity+1),
		order:    list.New(),
		capacity: capacity,
	}
}

// Add adds an entry to the LRUCache, evicting the least recently used entry
// if the cache is full.
func (c *LRUCache[K, V]) Add(key K, value V) {
	if element, ok := c.cache[key]; ok {
		element.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(element)
		return
	}
	c.cache[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})

	if len(c.cache) > c.capacity {
		c.evictOldest()
	}
}

// Get returns the entry for the given key and marks it as recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	element, ok := c.cache[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(element)
	return element.Value.(*entry[K, V]).value, true
}

// Has returns whether the LRUCache contains the given key
func (c *LRUCache[K, V]) Has(key K) bool {
	_, ok := c.cache[key]
	return ok
}

// Remove removes the entry for the the given key. Does nothing if
// the entry does not exist
func (c *LRUCache[K, V]) Remove(key K) {
	element, ok := c.cache[key]
	if !ok {
		return
	}
	c.order.Remove(element)
	delete(c.cache, key)
}

// Len returns the number of cached entries.
func (c *LRUCache[K, V]) Len() int {
	return len(c.cache)
}

// Clear clears the cache
func (c *LRUCache[K, V]) Clear() {
	c.cache = make(map[K]*list.Element, c.capacity+1)
	c.order.Init()
}

func (c *LRUCache[K, V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.Remove(oldest.Value.(*entry[K, V]).key)
}
