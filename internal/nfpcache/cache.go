// Package nfpcache memoizes no-fit-polygon computations keyed on the
// pair of shapes, fit mode, and rotation angles involved, so the
// genetic driver's repeated decode passes never recompute the same NFP
// twice within a generation batch.
package nfpcache

import "github.com/piwi3910/nestcut/internal/model"

// Cache is a content-addressed NFP store. It is not safe for concurrent
// use from multiple goroutines without external synchronization. The
// genetic driver evaluates a generation sequentially into one batch
// Cache and merges it into its long-lived Cache once the generation is
// scored.
type Cache struct {
	data map[model.NFPKey]model.NFPValue
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{data: make(map[model.NFPKey]model.NFPValue)}
}

// Get returns the cached NFP for key, if present.
func (c *Cache) Get(key model.NFPKey) (model.NFPValue, bool) {
	v, ok := c.data[key]
	return v, ok
}

// Put stores the NFP for key, overwriting any existing entry.
func (c *Cache) Put(key model.NFPKey, value model.NFPValue) {
	c.data[key] = value
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	return len(c.data)
}

// Keys returns every key currently cached; the genetic driver uses a
// batch cache's keys as the keep-set for Prune.
func (c *Cache) Keys() []model.NFPKey {
	keys := make([]model.NFPKey, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Merge folds another cache's entries into c, overwriting entries with
// the same key; the genetic driver uses it to fold a generation's batch
// cache into its long-lived cache.
func (c *Cache) Merge(other *Cache) {
	if other == nil {
		return
	}
	for k, v := range other.data {
		c.data[k] = v
	}
}

// Prune drops every entry whose key is not in keep. Run once between
// generation batches so the cache tracks only the (shape, rotation)
// pairs the current population can still produce, instead of growing
// unboundedly across a long run.
func (c *Cache) Prune(keep map[model.NFPKey]struct{}) {
	for k := range c.data {
		if _, ok := keep[k]; !ok {
			delete(c.data, k)
		}
	}
}
