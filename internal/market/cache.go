package market

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultShardCount = 32

// shard is one independently-locked partition of the cache.
type shard struct {
	mu    sync.RWMutex
	items map[MarketKey]MarketState
}

// Cache is a sharded concurrent key-value store from MarketKey to
// MarketState. Each shard has its own lock, so UpsertMerge on one key never
// contends a Get on an unrelated key. There is no global lock and no
// cross-key barrier, matching the per-key linearizability contract: every
// UpsertMerge is linearizable with Get for the same key, and readers of
// different keys make independent progress.
type Cache struct {
	shards []*shard
	mask   uint64
}

// NewCache allocates a cache with the default shard count (a power of two).
func NewCache() *Cache {
	return NewCacheWithShards(defaultShardCount)
}

// NewCacheWithShards allocates a cache with n shards, rounded up to the
// next power of two. Exposed mainly so tests can exercise small shard
// counts without changing the hot-path default.
func NewCacheWithShards(n int) *Cache {
	if n <= 0 {
		n = 1
	}
	size := 1
	for size < n {
		size <<= 1
	}
	shards := make([]*shard, size)
	for i := range shards {
		shards[i] = &shard{items: make(map[MarketKey]MarketState)}
	}
	return &Cache{shards: shards, mask: uint64(size - 1)}
}

func (c *Cache) shardFor(key MarketKey) *shard {
	h := xxhash.Sum64String(key.String())
	return c.shards[h&c.mask]
}

// UpsertMerge inserts a fresh state if none exists for key, or merges the
// partial into the existing one. Only non-nil fields of partial overwrite;
// nil fields preserve the prior value. LastUpdate is always taken from
// partial. It returns the post-merge snapshot.
func (c *Cache) UpsertMerge(key MarketKey, partial MarketState) MarketState {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[key]
	if !ok {
		cur = partial
		s.items[key] = cur
		return cur.Clone()
	}

	if partial.BestBid != nil {
		cur.BestBid = partial.BestBid
	}
	if partial.BestAsk != nil {
		cur.BestAsk = partial.BestAsk
	}
	if partial.Volume24h != nil {
		cur.Volume24h = partial.Volume24h
	}
	cur.LastUpdate = partial.LastUpdate
	s.items[key] = cur
	return cur.Clone()
}

// Get returns a value snapshot for key, never a reference that could
// observe a torn write in progress.
func (c *Cache) Get(key MarketKey) (MarketState, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.items[key]
	if !ok {
		return MarketState{}, false
	}
	return st.Clone(), true
}

// MarketEntry pairs a key with its state, used by SnapshotAll.
type MarketEntry struct {
	Key   MarketKey
	State MarketState
}

// SnapshotAll returns every entry currently in the cache. It is a
// diagnostics operation, never used on the hot path, and takes every
// shard's lock in turn rather than a single global lock.
func (c *Cache) SnapshotAll() []MarketEntry {
	out := make([]MarketEntry, 0)
	for _, s := range c.shards {
		s.mu.RLock()
		for k, v := range s.items {
			out = append(out, MarketEntry{Key: k, State: v.Clone()})
		}
		s.mu.RUnlock()
	}
	return out
}
