package sync

import (
	"sync"

	"github.com/OneOfOne/xxhash"
)

const shardCount = 32

// ShardedMutex serializes work per key without a global lock.
// Keys are spread across a fixed set of mutexes by xxhash, so unrelated keys
// rarely contend while the same key always maps to the same mutex.
type ShardedMutex struct {
	shards [shardCount]sync.Mutex
}

func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

// Lock acquires the lock for the given key's shard.
// Empty keys default to shard 0.
func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// WithLock runs fn while holding the key's shard.
func (m *ShardedMutex) WithLock(key string, fn func() error) error {
	m.Lock(key)
	defer m.Unlock(key)
	return fn()
}

func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	return int(xxhash.ChecksumString64(key) % shardCount)
}
