package formula

import "sync"

// Cache memoizes parsed formulas by their exact source text. Parse errors
// are cached too. Entries are never evicted; a changed formula is simply a
// different key.
type Cache struct {
	entries sync.Map // formula body → *cacheEntry
}

type cacheEntry struct {
	node Node
	err  error
}

// NewCache creates an empty parse cache.
func NewCache() *Cache {
	return &Cache{}
}

// Parse returns the cached AST for src, parsing it on first use.
func (c *Cache) Parse(src string) (Node, error) {
	if cached, ok := c.entries.Load(src); ok {
		e := cached.(*cacheEntry)
		return e.node, e.err
	}
	node, err := Parse(src)
	actual, _ := c.entries.LoadOrStore(src, &cacheEntry{node: node, err: err})
	e := actual.(*cacheEntry)
	return e.node, e.err
}

// Len returns the number of cached formulas.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
