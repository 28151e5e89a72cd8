// Package cache holds translated texts in memory with least-recently-used eviction.
package cache

import (
	"container/list"
	"hash/maphash"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

// DefaultShards number of independently locked shards
const DefaultShards = 16

// Stats cache counters snapshot
type Stats = entity.CacheStats

// LRU bounded translation cache.
//
// Keys are spread over shards by hash, each with its own lock. Every access
// stamps the entry from one cache-wide counter, so each shard list is ordered
// by stamp and the global least recently used entry is the oldest shard tail.
// Capacity is shared by all shards: an insert evicts only when the whole
// cache is full, and then evicts that global tail.
type LRU struct {
	shards   []*shard
	seed     maphash.Seed
	capacity int

	clock    atomic.Uint64 // recency stamps
	reserved atomic.Int64  // stored entries plus inserts in flight
	evictMu  sync.Mutex

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard struct {
	mu    sync.Mutex
	ll    *list.List // front = most recently used
	items map[entity.CacheKey]*list.Element
}

type entry struct {
	key   entity.CacheKey
	value string
	stamp uint64
}

type options struct {
	shards int
}

// Option configures New
type Option func(*options)

// WithShards sets the shard count. It is capped at the capacity.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// New creates a cache holding at most capacity entries
func New(capacity int, opts ...Option) *LRU {
	o := options{shards: DefaultShards}
	for _, opt := range opts {
		opt(&o)
	}
	if capacity < 1 {
		capacity = 1
	}
	if o.shards < 1 {
		o.shards = 1
	}
	if o.shards > capacity {
		o.shards = capacity
	}

	c := &LRU{
		shards:   make([]*shard, o.shards),
		seed:     maphash.MakeSeed(),
		capacity: capacity,
	}
	for i := range c.shards {
		c.shards[i] = &shard{
			ll:    list.New(),
			items: make(map[entity.CacheKey]*list.Element),
		}
	}
	return c
}

func (c *LRU) shardFor(key entity.CacheKey) *shard {
	if len(c.shards) == 1 {
		return c.shards[0]
	}
	return c.shards[maphash.Comparable(c.seed, key)%uint64(len(c.shards))]
}

// touch marks el most recently used. Caller holds s.mu.
func (c *LRU) touch(s *shard, el *list.Element) {
	el.Value.(*entry).stamp = c.clock.Add(1)
	s.ll.MoveToFront(el)
}

// Get returns the cached value and marks the key most recently used
func (c *LRU) Get(key entity.CacheKey) (string, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	el, ok := s.items[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		return "", false
	}
	c.touch(s, el)
	value := el.Value.(*entry).value
	s.mu.Unlock()

	c.hits.Add(1)
	return value, true
}

// Put stores value under key, marking it most recently used.
// When the cache is full the least recently used entry of the whole cache is evicted first.
func (c *LRU) Put(key entity.CacheKey, value string) {
	s := c.shardFor(key)
	if c.update(s, key, value) {
		return
	}

	if c.reserved.Add(1) > int64(c.capacity) {
		c.evictOldest()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		// inserted by a concurrent Put of the same key
		el.Value.(*entry).value = value
		c.touch(s, el)
		c.reserved.Add(-1)
		return
	}
	s.items[key] = s.ll.PushFront(&entry{key: key, value: value, stamp: c.clock.Add(1)})
}

func (c *LRU) update(s *shard, key entity.CacheKey, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	if !ok {
		return false
	}
	el.Value.(*entry).value = value
	c.touch(s, el)
	return true
}

// evictOldest removes the entry with the lowest stamp across all shards.
// Stamps only grow, so a tail that is unchanged when relocked is still the oldest.
func (c *LRU) evictOldest() {
	c.evictMu.Lock()
	defer c.evictMu.Unlock()

	for {
		var (
			victim *shard
			tail   *list.Element
			oldest uint64
		)
		for _, s := range c.shards {
			s.mu.Lock()
			if back := s.ll.Back(); back != nil {
				if stamp := back.Value.(*entry).stamp; victim == nil || stamp < oldest {
					victim, tail, oldest = s, back, stamp
				}
			}
			s.mu.Unlock()
		}
		if victim == nil {
			// every slot is held by an insert that has not landed yet
			runtime.Gosched()
			continue
		}

		victim.mu.Lock()
		if victim.ll.Back() == tail && tail.Value.(*entry).stamp == oldest {
			victim.ll.Remove(tail)
			delete(victim.items, tail.Value.(*entry).key)
			victim.mu.Unlock()
			c.reserved.Add(-1)
			c.evictions.Add(1)
			return
		}
		victim.mu.Unlock()
	}
}

// Len current number of entries
func (c *LRU) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += s.ll.Len()
		s.mu.Unlock()
	}
	return n
}

// Capacity maximum number of entries
func (c *LRU) Capacity() int {
	return c.capacity
}

// Stats counters snapshot
func (c *LRU) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
