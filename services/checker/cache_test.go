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
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFIFOCache_AddEvictsOnlyAfterExceedingLimit verifies the cache settles
// at limit+1 entries.
func TestFIFOCache_AddEvictsOnlyAfterExceedingLimit(t *testing.T) {
	c := NewFIFOCache[string, int](2)

	_, evicted := c.Add("a", 1)
	assert.False(t, evicted)
	_, evicted = c.Add("b", 2)
	assert.False(t, evicted)

	// At the limit: no eviction yet.
	_, evicted = c.Add("c", 3)
	assert.False(t, evicted, "eviction must not trigger at the limit")
	assert.Equal(t, 3, c.Len())

	// Over the limit: the oldest goes.
	key, evicted := c.Add("d", 4)
	require.True(t, evicted)
	assert.Equal(t, "a", key)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b", "c", "d"}, c.Keys())
}

// TestFIFOCache_NeverExceedsLimitPlusOne inserts many keys and checks the bound.
func TestFIFOCache_NeverExceedsLimitPlusOne(t *testing.T) {
	for _, limit := range []int{0, 1, 3, 10} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			c := NewFIFOCache[int, int](limit)
			for i := 0; i < 50; i++ {
				c.Add(i, i)
				assert.LessOrEqual(t, c.Len(), limit+1)
			}
			assert.Equal(t, limit+1, c.Len())
		})
	}
}

// TestFIFOCache_IsNotLRU verifies lookups do not protect an entry from eviction.
func TestFIFOCache_IsNotLRU(t *testing.T) {
	c := NewFIFOCache[string, int](1)
	c.Add("old", 1)
	c.Add("new", 2)

	// Touch "old" repeatedly; an LRU would now evict "new".
	for i := 0; i < 5; i++ {
		_, ok := c.Get("old")
		require.True(t, ok)
	}

	key, evicted := c.Add("newest", 3)
	require.True(t, evicted)
	assert.Equal(t, "old", key)
	assert.False(t, c.Contains("old"))
	assert.True(t, c.Contains("new"))
}

// TestFIFOCache_UpdateKeepsPosition verifies re-adding a key neither moves
// it nor evicts.
func TestFIFOCache_UpdateKeepsPosition(t *testing.T) {
	c := NewFIFOCache[string, int](1)
	c.Add("a", 1)
	c.Add("b", 2)

	_, evicted := c.Add("a", 10)
	assert.False(t, evicted)
	assert.Equal(t, []string{"a", "b"}, c.Keys())

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)

	c.Put("b", 20)
	assert.Equal(t, []string{"a", "b"}, c.Keys())
}

func TestFIFOCache_PutDoesNotEvict(t *testing.T) {
	c := NewFIFOCache[int, int](1)
	for i := 0; i < 5; i++ {
		c.Put(i, i)
	}
	assert.Equal(t, 5, c.Len())

	key, ok := c.EvictOldest()
	require.True(t, ok)
	assert.Equal(t, 0, key)
	assert.Equal(t, 4, c.Len())
}

func TestFIFOCache_EvictOverflow(t *testing.T) {
	c := NewFIFOCache[string, int](1)

	_, evicted := c.EvictOverflow()
	assert.False(t, evicted, "empty cache")

	c.Put("a", 1)
	_, evicted = c.EvictOverflow()
	assert.False(t, evicted, "at limit")

	c.Put("b", 2)
	key, evicted := c.EvictOverflow()
	require.True(t, evicted, "over limit")
	assert.Equal(t, "a", key)
	assert.Equal(t, []string{"b"}, c.Keys())
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestFIFOCache_EvictOldestEmpty(t *testing.T) {
	c := NewFIFOCache[string, int](3)
	_, ok := c.EvictOldest()
	assert.False(t, ok)
}

func TestFIFOCache_NegativeLimit(t *testing.T) {
	c := NewFIFOCache[string, int](-5)
	assert.Equal(t, 0, c.Limit())
}

func TestFIFOCache_Stats(t *testing.T) {
	c := NewFIFOCache[string, int](0)
	c.Add("a", 1)
	c.Get("a")
	c.Get("missing")
	c.Add("b", 2)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 0, stats.Limit)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestFIFOCache_Purge(t *testing.T) {
	c := NewFIFOCache[string, int](5)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Purge()

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())

	c.Add("c", 3)
	assert.Equal(t, []string{"c"}, c.Keys())
}

// TestFIFOCache_ConcurrentAdd checks the limit+1 bound under contention.
func TestFIFOCache_ConcurrentAdd(t *testing.T) {
	const limit = 4
	c := NewFIFOCache[int, int](limit)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Add(base*1000+i, i)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, limit+1, c.Len())
}
