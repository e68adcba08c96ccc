package tsl

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// parseCache is a simple bounded cache mapping filter source strings to
// their parsed trees. Rule engines and record stores tend to evaluate a
// small number of distinct filter strings against many records, so repeated
// identical sources should not re-run the lexer and parser every time.
// Cached trees are immutable, so sharing them between callers is safe.
//
// Keys are xxhash digests of the source; the source itself is kept in the
// entry and verified on hit so a hash collision can never hand back the
// wrong tree.
//
// Eviction strategy: when the cache reaches its capacity limit the entire
// map is replaced. This is simpler than a true LRU and sufficient for the
// target use-case (a small number of distinct filter templates repeated
// many times).
//
// Thread safety: all methods are safe for concurrent use.
type parseCache struct {
	mu    sync.RWMutex
	items map[uint64]parseCacheEntry
	max   int
}

type parseCacheEntry struct {
	source string
	node   Node
}

var globalParseCache = &parseCache{
	items: make(map[uint64]parseCacheEntry, 256),
	max:   256,
}

func (c *parseCache) get(source string) (Node, bool) {
	key := xxhash.Sum64String(source)
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || entry.source != source {
		return nil, false
	}
	return entry.node, true
}

func (c *parseCache) put(source string, node Node) {
	key := xxhash.Sum64String(source)
	c.mu.Lock()
	if len(c.items) >= c.max {
		// Evict everything and start fresh rather than tracking individual
		// entry ages.
		c.items = make(map[uint64]parseCacheEntry, c.max)
	}
	c.items[key] = parseCacheEntry{source: source, node: node}
	c.mu.Unlock()
}

// ParseCached behaves like Parse but consults a bounded process-wide cache
// first. Parse failures are not cached; a malformed filter fails on every
// call rather than pinning its error.
//
// The cache is keyed by source alone, so calls carrying ParseOptions bypass
// it: a hit must never hand back a tree parsed under different options.
func ParseCached(source string, opts ...ParseOption) (Node, error) {
	if len(opts) > 0 {
		return Parse(source, opts...)
	}

	if node, ok := globalParseCache.get(source); ok {
		return node, nil
	}

	node, err := Parse(source)
	if err != nil {
		return nil, err
	}

	globalParseCache.put(source, node)
	return node, nil
}
