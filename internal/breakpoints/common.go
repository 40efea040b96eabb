// Package breakpoints implements the six deferred-binding breakpoint/
// watchpoint registries: line, field-access, field-modify,
// method-entry, method-exit, and exception. Each shares the same skeleton
// — identity allocation, enable/disable, pending-vs-active tracking, and a
// deferred-resolution hook fired by class-prepare — implemented here once
// and specialized per record kind in the sibling files.
package breakpoints

import (
	"github.com/dev-console/debugctl/internal/adapter"
	"github.com/dev-console/debugctl/internal/resolvecache"
)

// idCounter hands out monotonically increasing, prefixed ids. A fresh
// Set/remove/Set cycle always yields a new id — the counter never resets
// (round-trip law).
type idCounter struct {
	prefix  string
	counter int
}

func (c *idCounter) next() string {
	c.counter++
	return c.prefix + itoa(c.counter)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// resolveClass resolves a class name via the shared cache, returning
// ClassNotFound-classified nil (not an error) when the class simply isn't
// loaded yet — callers distinguish "not loaded" (defer) from a genuine
// adapter error.
func resolveClass(a adapter.Adapter, t adapter.Target, cache *resolvecache.Cache, name string) (adapter.TypeRef, error) {
	types, err := cache.Resolve(a, t, name)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, nil
	}
	return types[0], nil
}

