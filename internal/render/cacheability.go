// ABOUTME: Explicit cache-dependency accumulator threaded through fragment builders
// ABOUTME: Collects cache tags (invalidation) and cache contexts (variation) as ordered sets

package render

import "slices"

// CacheableDependency is external state whose change must invalidate a
// cached fragment.
type CacheableDependency interface {
	// CacheTags name the state; invalidating a tag drops every fragment
	// that carries it.
	CacheTags() []string
	// CacheContexts name request properties the fragment varies by.
	CacheContexts() []string
}

// Cacheability accumulates the dependencies of one fragment. The zero value
// is ready to use. It is not safe for concurrent use.
type Cacheability struct {
	tags     []string
	contexts []string
}

// AddDependency records every tag and context of dep.
func (c *Cacheability) AddDependency(dep CacheableDependency) {
	for _, tag := range dep.CacheTags() {
		c.AddTag(tag)
	}
	for _, ctx := range dep.CacheContexts() {
		c.AddContext(ctx)
	}
}

// AddTag records a single cache tag.
func (c *Cacheability) AddTag(tag string) {
	if !slices.Contains(c.tags, tag) {
		c.tags = append(c.tags, tag)
	}
}

// AddContext records a single cache context.
func (c *Cacheability) AddContext(ctx string) {
	if !slices.Contains(c.contexts, ctx) {
		c.contexts = append(c.contexts, ctx)
	}
}

// Merge adds everything recorded in other.
func (c *Cacheability) Merge(other Cacheability) {
	for _, tag := range other.tags {
		c.AddTag(tag)
	}
	for _, ctx := range other.contexts {
		c.AddContext(ctx)
	}
}

// DependsOn reports whether every tag and context of dep has been recorded.
// A dependency with no tags and no contexts is never reported.
func (c *Cacheability) DependsOn(dep CacheableDependency) bool {
	tags, contexts := dep.CacheTags(), dep.CacheContexts()
	if len(tags) == 0 && len(contexts) == 0 {
		return false
	}
	for _, tag := range tags {
		if !slices.Contains(c.tags, tag) {
			return false
		}
	}
	for _, ctx := range contexts {
		if !slices.Contains(c.contexts, ctx) {
			return false
		}
	}
	return true
}

// Tags returns the recorded tags in insertion order.
func (c *Cacheability) Tags() []string {
	return slices.Clone(c.tags)
}

// Contexts returns the recorded contexts in insertion order.
func (c *Cacheability) Contexts() []string {
	return slices.Clone(c.contexts)
}
