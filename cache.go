package regexdev

import (
	"container/list"
	"sync"

	"github.com/magnetde/regexdev/regex"
)

// DefaultCacheSize is the default number of compiled patterns kept by an Evaluator.
// Interactive use recompiles the same few patterns on every keystroke and flag toggle, so 32 is more than enough.
const DefaultCacheSize = 32

// Cache is a LRU cache for compiled patterns, including patterns that failed to compile.
// The cache is implemented with a map and a linked list.
// When the cache exceeds the maximum size, the oldest used element is purged.
// A Cache is safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	size  int
	list  *list.List                 // Least recent used patterns
	cache map[cacheKey]*list.Element // Mapping of patterns to list elements
}

// cacheKey is a type, that is used for cache key, containing the pattern, the flags and the options.
type cacheKey struct {
	pattern string
	flags   regex.FlagSet
	opts    regex.Options
}

// Is necessary, because each list element needs to store the key in the map.
type cacheValue struct {
	pattern *regex.Pattern
	err     *PatternError
	key     cacheKey
}

// NewCache creates a cache holding up to `size` patterns.
func NewCache(size int) *Cache {
	return &Cache{
		size:  max(size, 1),
		list:  list.New(),
		cache: make(map[cacheKey]*list.Element),
	}
}

// Compile compiles a pattern. If the pattern is already in the cache,
// the compiled pattern (or its error) is returned from the cache.
// Else, the pattern is compiled and then added to the cache.
func (c *Cache) Compile(pattern string, flags regex.FlagSet, opts regex.Options) (*regex.Pattern, *PatternError) {
	if pattern == "" {
		return nil, nil
	}

	key := cacheKey{
		pattern: pattern,
		flags:   flags,
		opts:    opts,
	}

	c.mu.Lock()
	if e, ok := c.cache[key]; ok { // pattern found in the cache
		c.list.MoveToFront(e) // "refresh" the pattern in the linked list
		v := e.Value.(*cacheValue)
		c.mu.Unlock()

		return v.pattern, v.err
	}
	c.mu.Unlock()

	// compile outside of the lock
	p, perr := Compile(pattern, flags, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cache[key]; !ok {
		// purge elements, if the size exceeds a certain threshold
		for c.list.Len() >= c.size {
			last := c.list.Back() // determine the oldest element
			delete(c.cache, last.Value.(*cacheValue).key)
			c.list.Remove(last)
		}

		c.cache[key] = c.list.PushFront(&cacheValue{
			pattern: p,
			err:     perr,
			key:     key,
		})
	}

	return p, perr
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.list.Len()
}

// Purge clears the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list.Init()
	clear(c.cache)
}
