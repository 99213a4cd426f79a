package core

import "sort"

// ItemCache is a bounded mapping from global index to fetched record.
//
// Eviction is anchored, not recency-based: when an insertion batch
// pushes the cache past capacity, entries are ranked by absolute
// distance from the triggering fetch's starting offset and only the
// nearest capacity entries survive. This keeps the cache clustered
// around the current scroll position.
//
// A capacity of 0 disables caching entirely: each batch replaces the
// previous contents wholesale. That is a valid configured mode, not a
// degraded one; it trades memory for recency-correctness.
type ItemCache struct {
	capacity int
	items    map[int]Record
}

// NewItemCache creates a cache holding at most capacity records.
func NewItemCache(capacity int) *ItemCache {
	if capacity < 0 {
		capacity = 0
	}
	return &ItemCache{
		capacity: capacity,
		items:    make(map[int]Record),
	}
}

// Enabled reports whether caching across batches is on.
func (c *ItemCache) Enabled() bool {
	return c.capacity > 0
}

// Get returns the record cached at the given global index.
func (c *ItemCache) Get(index int) (Record, bool) {
	rec, ok := c.items[index]
	return rec, ok
}

// Len returns the number of cached records.
func (c *ItemCache) Len() int {
	return len(c.items)
}

// Merge inserts a fetched batch starting at offset. Insertion is
// idempotent per index, so overlapping batches arriving in any order
// converge to the same contents. When caching is disabled the batch
// replaces the cache; otherwise the batch is merged and the eviction
// pass runs with offset as the anchor.
func (c *ItemCache) Merge(offset int, batch []Record) {
	if !c.Enabled() {
		c.items = make(map[int]Record, len(batch))
	}
	for i, rec := range batch {
		c.items[offset+i] = rec
	}
	if c.Enabled() {
		c.evict(offset)
	}
}

// Reset discards all cached records.
func (c *ItemCache) Reset() {
	c.items = make(map[int]Record)
}

// evict trims the cache to capacity, keeping the indices nearest to
// the anchor. Ties break toward the smaller index so the survivor set
// is deterministic.
func (c *ItemCache) evict(anchor int) {
	if len(c.items) <= c.capacity {
		return
	}
	keys := make([]int, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		di, dj := absDistance(keys[i], anchor), absDistance(keys[j], anchor)
		if di != dj {
			return di < dj
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys[c.capacity:] {
		delete(c.items, k)
	}
}

func absDistance(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}
