// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package inspector

import (
	"hash/fnv"
	"sync"
)

// numShards controls the fan-out of the concurrent per-IP and
// per-domain maps. 256 shards is the same width the DNS service's
// response cache uses for the same reason: cut lock contention across
// thousands of concurrently-active keys without paying for a full
// lock-free structure.
const numShards = 256

// ipShardSet is a sharded map[string]*ipState with per-key atomic
// mutation: withLock runs fn holding only the shard the key hashes to,
// so unrelated source IPs never contend.
type ipShardSet struct {
	shards [numShards]*ipShard
}

type ipShard struct {
	mu    sync.Mutex
	items map[string]*ipState
}

func newIPShardSet() *ipShardSet {
	s := &ipShardSet{}
	for i := range s.shards {
		s.shards[i] = &ipShard{items: make(map[string]*ipState)}
	}
	return s
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % numShards
}

func (s *ipShardSet) shardFor(key string) *ipShard {
	return s.shards[shardIndex(key)]
}

// withLock runs fn with the state for ip held under the owning shard's
// lock, creating it first via create if it doesn't exist and create is
// non-nil. It reports whether the entry existed before this call.
func (s *ipShardSet) withLock(ip string, create func() *ipState, fn func(st *ipState, existed bool)) {
	shard := s.shardFor(ip)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	st, existed := shard.items[ip]
	if !existed {
		if create == nil {
			fn(nil, false)
			return
		}
		st = create()
		shard.items[ip] = st
	}
	fn(st, existed)
}

// peek runs fn with the existing state for ip, if any, under lock.
// It never creates an entry.
func (s *ipShardSet) peek(ip string, fn func(st *ipState) bool) bool {
	shard := s.shardFor(ip)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	st, ok := shard.items[ip]
	if !ok {
		return false
	}
	return fn(st)
}

// snapshot returns a point-in-time copy of the state for ip, if tracked.
func (s *ipShardSet) snapshot(ip string) (Snapshot, bool) {
	var snap Snapshot
	found := s.peek(ip, func(st *ipState) bool {
		snap = st.snapshot()
		return true
	})
	return snap, found
}

// len reports the number of tracked source IPs across all shards.
func (s *ipShardSet) len() int {
	n := 0
	for _, shard := range s.shards {
		shard.mu.Lock()
		n += len(shard.items)
		shard.mu.Unlock()
	}
	return n
}

// domainCounterSet is a sharded, monotonically-increasing per-domain
// request counter. Keys are exact lowercase query names; no suffix
// normalization is performed.
type domainCounterSet struct {
	shards [numShards]*domainShard
}

type domainShard struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func newDomainCounterSet() *domainCounterSet {
	d := &domainCounterSet{}
	for i := range d.shards {
		d.shards[i] = &domainShard{counts: make(map[string]uint64)}
	}
	return d
}

// increment bumps the counter for domain and returns its new value.
func (d *domainCounterSet) increment(domain string) uint64 {
	shard := d.shards[shardIndex(domain)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.counts[domain]++
	return shard.counts[domain]
}

// get returns the current counter value for domain without mutating it.
func (d *domainCounterSet) get(domain string) uint64 {
	shard := d.shards[shardIndex(domain)]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.counts[domain]
}

// len reports the number of distinct domains tracked across all shards.
func (d *domainCounterSet) len() int {
	n := 0
	for _, shard := range d.shards {
		shard.mu.Lock()
		n += len(shard.counts)
		shard.mu.Unlock()
	}
	return n
}
