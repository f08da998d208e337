// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// FIFOCache is a bounded map that evicts the oldest inserted key first.
//
// Description:
//
//	Lookups never reorder entries, so eviction order is insertion order
//	rather than recency. Put never evicts; Add evicts the oldest entry
//	once the cache holds more than its limit.
//
// Thread Safety: Safe for concurrent use.
type FIFOCache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*list.Element
	order   *list.List
	limit   int

	hits      int64
	misses    int64
	evictions int64
}

type fifoEntry[K comparable, V any] struct {
	key   K
	value V
}

// CacheStats contains statistics about a FIFOCache.
type CacheStats struct {
	// Entries is the number of entries currently held.
	Entries int `json:"entries"`

	// Limit is the configured limit.
	Limit int `json:"limit"`

	// Hits is the number of successful lookups.
	Hits int64 `json:"hits"`

	// Misses is the number of failed lookups.
	Misses int64 `json:"misses"`

	// Evictions is the number of entries removed by Add or EvictOldest.
	Evictions int64 `json:"evictions"`
}

// NewFIFOCache creates a cache with the given limit. A negative limit is
// treated as zero.
func NewFIFOCache[K comparable, V any](limit int) *FIFOCache[K, V] {
	if limit < 0 {
		limit = 0
	}
	return &FIFOCache[K, V]{
		entries: make(map[K]*list.Element),
		order:   list.New(),
		limit:   limit,
	}
}

// Get returns the value stored under key.
func (c *FIFOCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		var zero V
		return zero, false
	}
	atomic.AddInt64(&c.hits, 1)
	return elem.Value.(*fifoEntry[K, V]).value, true
}

// Put stores value under key. An existing key keeps its position.
func (c *FIFOCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*fifoEntry[K, V]).value = value
		return
	}
	c.entries[key] = c.order.PushBack(&fifoEntry[K, V]{key: key, value: value})
}

// EvictOldest removes the oldest entry and returns its key.
func (c *FIFOCache[K, V]) EvictOldest() (K, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictOldestLocked()
}

// EvictOverflow evicts the oldest entry if the cache holds more than its
// limit, and reports the evicted key.
func (c *FIFOCache[K, V]) EvictOverflow() (K, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.order.Len() > c.limit {
		return c.evictOldestLocked()
	}
	var zero K
	return zero, false
}

// Add inserts value under key, first evicting the oldest entry if the cache
// already holds more than its limit. An existing key is updated in place
// and nothing is evicted.
//
// Description:
//
//	Eviction runs before insertion and only when Len() > limit, so the
//	cache settles at limit+1 entries. Both steps happen under one lock,
//	which keeps that bound when misses for different keys race.
//
// Outputs:
//
//	K - The evicted key, if any.
//	bool - True if an entry was evicted.
func (c *FIFOCache[K, V]) Add(key K, value V) (K, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var evicted K
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*fifoEntry[K, V]).value = value
		return evicted, false
	}

	didEvict := false
	if c.order.Len() > c.limit {
		evicted, didEvict = c.evictOldestLocked()
	}
	c.entries[key] = c.order.PushBack(&fifoEntry[K, V]{key: key, value: value})
	return evicted, didEvict
}

func (c *FIFOCache[K, V]) evictOldestLocked() (K, bool) {
	front := c.order.Front()
	if front == nil {
		var zero K
		return zero, false
	}
	entry := c.order.Remove(front).(*fifoEntry[K, V])
	delete(c.entries, entry.key)
	atomic.AddInt64(&c.evictions, 1)
	return entry.key, true
}

// Contains reports whether key is present without touching hit counters.
func (c *FIFOCache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Len returns the number of entries.
func (c *FIFOCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Limit returns the configured limit.
func (c *FIFOCache[K, V]) Limit() int {
	return c.limit
}

// Keys returns all keys, oldest first.
func (c *FIFOCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for e := c.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*fifoEntry[K, V]).key)
	}
	return keys
}

// Purge removes all entries. Statistics are kept.
func (c *FIFOCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*list.Element)
	c.order.Init()
}

// Stats returns a snapshot of cache statistics.
func (c *FIFOCache[K, V]) Stats() CacheStats {
	c.mu.Lock()
	entries := c.order.Len()
	c.mu.Unlock()

	return CacheStats{
		Entries:   entries,
		Limit:     c.limit,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}
