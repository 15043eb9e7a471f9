// Package cache provides the process-wide memo layer in front of the
// search engines, keyed by normalized query and filters, with hit/miss
// accounting. Expiry is lazy: an entry past its TTL is evicted on the
// next lookup; no background sweeper runs.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a concurrency-safe LRU cache with per-entry TTL.
type LRU struct {
	capacity   int
	defaultTTL time.Duration
	mu         sync.Mutex

	entries map[string]*entry
	order   *list.List // doubly linked list for LRU ordering

	hits   uint64
	misses uint64
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	element   *list.Element
}

const (
	defaultCapacity = 1000
	defaultTTL      = 5 * time.Minute
)

// NewLRU creates an LRU cache. Non-positive arguments fall back to the
// defaults (1000 entries, 5 minutes).
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LRU{
		capacity:   capacity,
		defaultTTL: ttl,
		entries:    make(map[string]*entry),
		order:      list.New(),
	}
}

// Get retrieves a value, counting the lookup as a hit or miss. An entry
// past its TTL is evicted and counted as a miss.
func (c *LRU) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(e.element)
	c.hits++
	return e.value, true
}

// Set stores a value with the given TTL (0 means the default TTL).
func (c *LRU) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	e := &entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
}

// Size returns the number of entries, counting ones not yet lazily
// expired.
func (c *LRU) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries. Counters are kept.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.order.Init()
}

// Counters returns the accumulated hit and miss counts.
func (c *LRU) Counters() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// evictOldest removes the least recently used entry.
// Must be called with the lock held.
func (c *LRU) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.removeEntry(oldest.Value.(*entry))
}

// removeEntry removes an entry. Must be called with the lock held.
func (c *LRU) removeEntry(e *entry) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}
