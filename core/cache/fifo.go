package cache

import (
	"container/list"
	"sync"
)

// FIFOCache is a thread-safe bounded cache that evicts entries in insertion
// order. Reads do not affect eviction order, which keeps Get cheap under
// concurrent traffic.
type FIFOCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List
	onEvict  func(key K, value V)
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// NewFIFOCache creates a cache holding at most capacity entries.
// A capacity of zero or less disables storage: Put becomes a no-op.
func NewFIFOCache[K comparable, V any](capacity int) *FIFOCache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &FIFOCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the value stored for key.
func (c *FIFOCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put stores value for key. Updating an existing key keeps its original
// insertion position. When the cache is full the oldest-inserted entry is
// evicted and reported through the eviction callback.
func (c *FIFOCache[K, V]) Put(key K, value V) {
	if c.capacity == 0 {
		return
	}

	c.mu.Lock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.mu.Unlock()
		return
	}

	var evicted *entry[K, V]
	if c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		evicted = c.order.Remove(oldest).(*entry[K, V])
		delete(c.items, evicted.key)
	}

	c.items[key] = c.order.PushBack(&entry[K, V]{key: key, value: value})
	onEvict := c.onEvict
	c.mu.Unlock()

	// Callback runs outside the lock so it may call back into the cache.
	if evicted != nil && onEvict != nil {
		onEvict(evicted.key, evicted.value)
	}
}

// Remove deletes key and returns its value.
func (c *FIFOCache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	e := c.order.Remove(el).(*entry[K, V])
	delete(c.items, key)
	return e.value, true
}

// Contains reports whether key is cached.
func (c *FIFOCache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Len returns the number of cached entries.
func (c *FIFOCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the maximum number of entries.
func (c *FIFOCache[K, V]) Cap() int {
	return c.capacity
}

// Clear removes all entries without invoking the eviction callback.
func (c *FIFOCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

// SetEvictCallback registers fn to be called with every entry evicted
// because the cache was full.
func (c *FIFOCache[K, V]) SetEvictCallback(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}
