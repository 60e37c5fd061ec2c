package estimator

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Basis index sentinels used in CacheEntry routing tables.
const (
	// basisIdentity marks an all-identity term: it occupies no basis
	// slot and contributes its coefficient directly.
	basisIdentity = -1
	// basisSkipped marks a term dropped by tolerant dense-grouping
	// degradation; it contributes nothing.
	basisSkipped = -2
)

// CacheEntry is the memoized grouping result for one (circuit set,
// observable set) key: per circuit, the grouped families, one
// measurement template per family, and per observable the basis index
// every term routes to. Entries are immutable once built; parameter
// values never affect them.
type CacheEntry struct {
	// Families and Templates are parallel per circuit index.
	Families  map[int][]Family
	Templates map[int][]*Procedure
	// ObsMaps: circuit index -> observable index -> term index -> basis
	// index (or a sentinel).
	ObsMaps map[int]map[int][]int
}

// experimentCache wraps a bounded LRU keyed by the request's circuit and
// observable identity indices plus the approximation flag. Eviction is
// least-recently-used; retained keys are guaranteed to return the entry
// built on first miss without recomputation.
type experimentCache struct {
	entries *lru.Cache[string, *CacheEntry]
}

// DefaultCacheSize is the Experiment Cache capacity when the
// configuration leaves it unset.
const DefaultCacheSize = 128

func newExperimentCache(size int) (*experimentCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *CacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating experiment cache: %w", err)
	}
	return &experimentCache{entries: c}, nil
}

func (c *experimentCache) get(key string) (*CacheEntry, bool) {
	return c.entries.Get(key)
}

func (c *experimentCache) add(key string, entry *CacheEntry) {
	c.entries.Add(key, entry)
}

// cacheKey renders the identity-index sequences into a stable string.
// Indices are stable because the identity registries only ever append.
func cacheKey(circIdxs, obsIdxs []int, approximation bool) string {
	var b strings.Builder
	b.WriteString("c:")
	for i, ci := range circIdxs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", ci)
	}
	b.WriteString("|o:")
	for i, oi := range obsIdxs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", oi)
	}
	fmt.Fprintf(&b, "|approx:%t", approximation)
	return b.String()
}
