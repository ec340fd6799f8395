// ABOUTME: Thread-safe TTL + LRU cache for rendered fragments.
// ABOUTME: Varies entries by recorded cache contexts and drops them by cache tag.

package render

import (
	"container/list"
	"slices"
	"strings"
	"sync"
	"time"
)

// cacheEntry stores one variation of a fragment.
type cacheEntry struct {
	key       string // lazy key + variation key
	lazyKey   string
	fragment  *Fragment
	timestamp time.Time
	element   *list.Element
}

// redirect records which contexts a lazy key varies by. The contexts are
// only known after the first build, so lookups go through the redirect.
type redirect struct {
	contexts []string
	refs     int
}

// Cache stores built fragments keyed by their Lazy key and the values of the
// cache contexts the fragment declared. Uses a doubly-linked list to maintain
// insertion order for O(1) eviction.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*cacheEntry
	redirects map[string]*redirect
	order     *list.List // oldest at front
	ttl       time.Duration
	maxSize   int
	done      chan struct{}
	closed    bool
}

// NewCache creates a fragment cache with the specified TTL and maximum size.
// A background goroutine periodically cleans up expired entries.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		entries:   make(map[string]*cacheEntry),
		redirects: make(map[string]*redirect),
		order:     list.New(),
		ttl:       ttl,
		maxSize:   maxSize,
		done:      make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// variationKey joins the context values in the order the contexts were declared.
func variationKey(contexts []string, value func(string) string) string {
	var b strings.Builder
	for _, name := range contexts {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value(name))
		b.WriteByte(0)
	}
	return b.String()
}

// Get returns the cached fragment for lazyKey under the current context
// values, or false on a miss or expired entry.
func (c *Cache) Get(lazyKey string, value func(context string) string) (*Fragment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.redirects[lazyKey]
	if !ok {
		return nil, false
	}
	entry, ok := c.entries[lazyKey+"|"+variationKey(r.contexts, value)]
	if !ok {
		return nil, false
	}
	if time.Since(entry.timestamp) >= c.ttl {
		c.removeLocked(entry)
		return nil, false
	}
	c.order.MoveToBack(entry.element)
	return entry.fragment, true
}

// Set stores a fragment. The variation key is computed from the lazy key's
// redirect, which only ever widens: a fragment declaring contexts the
// redirect lacks replaces it with the union, and a fragment declaring fewer
// is stored under the wider key.
func (c *Cache) Set(lazyKey string, fragment *Fragment, value func(context string) string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	contexts := fragment.Cache.Contexts()
	if r, ok := c.redirects[lazyKey]; ok {
		if missing := missingContexts(r.contexts, contexts); len(missing) > 0 {
			// Older variations were keyed on fewer contexts and are unreachable.
			contexts = append(slices.Clone(r.contexts), missing...)
			c.dropLazyKeyLocked(lazyKey)
		} else {
			contexts = slices.Clone(r.contexts)
		}
	}

	key := lazyKey + "|" + variationKey(contexts, value)
	if entry, exists := c.entries[key]; exists {
		entry.fragment = fragment
		entry.timestamp = time.Now()
		c.order.MoveToBack(entry.element)
		return
	}

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	r, ok := c.redirects[lazyKey]
	if !ok {
		r = &redirect{contexts: contexts}
		c.redirects[lazyKey] = r
	}

	entry := &cacheEntry{
		key:       key,
		lazyKey:   lazyKey,
		fragment:  fragment,
		timestamp: time.Now(),
	}
	entry.element = c.order.PushBack(entry)
	c.entries[key] = entry
	r.refs++
}

// missingContexts returns the contexts in want that are not in have.
func missingContexts(have, want []string) []string {
	var missing []string
	for _, name := range want {
		if !slices.Contains(have, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// InvalidateTags drops every entry whose fragment carries any of the tags.
// Returns the number of entries dropped.
func (c *Cache) InvalidateTags(tags ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for _, entry := range c.entries {
		for _, tag := range entry.fragment.Cache.Tags() {
			if slices.Contains(tags, tag) {
				c.removeLocked(entry)
				dropped++
				break
			}
		}
	}
	return dropped
}

// Len returns the number of cached variations.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// dropLazyKeyLocked removes every variation of lazyKey. Must be called with mu held.
func (c *Cache) dropLazyKeyLocked(lazyKey string) {
	for _, entry := range c.entries {
		if entry.lazyKey == lazyKey {
			c.removeLocked(entry)
		}
	}
	delete(c.redirects, lazyKey)
}

// removeLocked removes an entry and releases its redirect. Must be called with mu held.
func (c *Cache) removeLocked(entry *cacheEntry) {
	c.order.Remove(entry.element)
	delete(c.entries, entry.key)
	if r, ok := c.redirects[entry.lazyKey]; ok {
		r.refs--
		if r.refs <= 0 {
			delete(c.redirects, entry.lazyKey)
		}
	}
}

// evictOldest removes the oldest entry from the cache.
// Must be called with mu held. O(1) operation using linked list.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	entry, _ := front.Value.(*cacheEntry)
	c.removeLocked(entry)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries from the cache.
func (c *Cache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, entry := range c.entries {
		if now.Sub(entry.timestamp) >= c.ttl {
			c.removeLocked(entry)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
