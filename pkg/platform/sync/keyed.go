// Package sync holds concurrency helpers shared across packages.
package sync

import (
	"hash/fnv"
	"sync"
)

// DefaultShards suits the handful of UI slots a single process serves.
const DefaultShards = 32

// KeyedMutex serializes work per key while unrelated keys proceed. Keys hash
// onto a fixed set of shards, so two keys may occasionally share a lock.
type KeyedMutex struct {
	shards []sync.Mutex
}

// NewKeyedMutex returns a mutex with n shards; n <= 0 means DefaultShards.
func NewKeyedMutex(n int) *KeyedMutex {
	if n <= 0 {
		n = DefaultShards
	}
	return &KeyedMutex{shards: make([]sync.Mutex, n)}
}

// Lock acquires the shard owning key.
func (m *KeyedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

// Unlock releases the shard owning key.
func (m *KeyedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// WithLock runs fn while holding the shard owning key.
func (m *KeyedMutex) WithLock(key string, fn func()) {
	m.Lock(key)
	defer m.Unlock(key)
	fn()
}

func (m *KeyedMutex) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(m.shards)))
}
