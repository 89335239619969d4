// Package cache provides thread-safe bounded caches with generic keys and values.
//
// # FIFO Cache
//
// FIFOCache evicts the oldest-inserted entry once capacity is reached. Reads
// never reorder entries, so a hot key is evicted as soon as enough newer keys
// arrive. This is the policy the router uses for its resolution cache, where
// every entry can be recomputed cheaply and an eviction only costs one tree walk.
//
//	import "github.com/dmitrymomot/waypoint/core/cache"
//
//	c := cache.NewFIFOCache[string, int](2)
//	c.Put("a", 1)
//	c.Put("b", 2)
//	c.Put("c", 3) // evicts "a"
//
//	if v, ok := c.Get("b"); ok {
//		fmt.Println(v)
//	}
//
// # Eviction Callbacks
//
// Register a callback to observe evictions, for example to feed metrics:
//
//	c.SetEvictCallback(func(key string, _ int) {
//		evictions.Inc()
//	})
//
// The callback runs after the cache lock is released.
//
// # Thread Safety
//
// Every operation holds a single mutex for its whole read-check-evict-insert
// sequence, so concurrent Put calls never lose an eviction and the cache never
// grows beyond its capacity.
//
// # Complexity
//
//   - Get: O(1)
//   - Put: O(1)
//   - Remove: O(1)
//   - Memory: O(capacity)
package cache
