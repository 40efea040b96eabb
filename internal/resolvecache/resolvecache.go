// Package resolvecache provides a small bounded cache from class name to
// resolved adapter.TypeRef, shared by the four deferrable breakpoint
// registries. It never changes resolution semantics — a miss always falls
// through to adapter.ClassesByName — it only avoids repeated adapter
// round-trips when many classes prepare in a short window.
package resolvecache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dev-console/debugctl/internal/adapter"
)

const defaultCapacity = 256

// Cache maps class name to its resolved types.
type Cache struct {
	lru *lru.Cache[string, []adapter.TypeRef]
}

// New builds a cache with the default capacity.
func New() *Cache {
	c, err := lru.New[string, []adapter.TypeRef](defaultCapacity)
	if err != nil {
		// Only returns an error for a non-positive size, which defaultCapacity never is.
		panic(err)
	}
	return &Cache{lru: c}
}

// Get returns the cached types for name, if present.
func (c *Cache) Get(name string) ([]adapter.TypeRef, bool) {
	return c.lru.Get(name)
}

// Put stores the resolved types for name.
func (c *Cache) Put(name string, types []adapter.TypeRef) {
	c.lru.Add(name, types)
}

// Invalidate drops any cached entry for name, called on class_unload
// monitor events so a later reload isn't served stale data.
func (c *Cache) Invalidate(name string) {
	c.lru.Remove(name)
}

// Resolve looks up name in the cache, falling back to the adapter on a
// miss and populating the cache with the result.
func (c *Cache) Resolve(a adapter.Adapter, t adapter.Target, name string) ([]adapter.TypeRef, error) {
	if types, ok := c.Get(name); ok {
		return types, nil
	}
	types, err := a.ClassesByName(t, name)
	if err != nil {
		return nil, err
	}
	if len(types) > 0 {
		c.Put(name, types)
	}
	return types, nil
}
