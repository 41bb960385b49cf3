package sync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("same key serializes", func(t *testing.T) {
		m := NewKeyedMutex(0)
		counter := 0
		var wg sync.WaitGroup
		for range 100 {
			wg.Go(func() {
				m.WithLock("candidate-form", func() { counter++ })
			})
		}
		wg.Wait()
		assert.Equal(t, 100, counter)
	})

	t.Run("default shard count", func(t *testing.T) {
		assert.Len(t, NewKeyedMutex(-1).shards, DefaultShards)
		assert.Len(t, NewKeyedMutex(4).shards, 4)
	})

	t.Run("shard is stable per key", func(t *testing.T) {
		m := NewKeyedMutex(8)
		assert.Equal(t, m.shardFor("resume-1"), m.shardFor("resume-1"))
		assert.Less(t, m.shardFor(""), 8)
	})

	t.Run("slots spread over shards", func(t *testing.T) {
		m := NewKeyedMutex(0)
		shards := make(map[int]bool)
		for _, key := range []string{"candidate-form", "resume-1", "resume-2", "cli", "header", "sidebar", "detail", "preview"} {
			shards[m.shardFor(key)] = true
		}
		assert.GreaterOrEqual(t, len(shards), 3)
	})

	t.Run("single shard still unlocks", func(t *testing.T) {
		m := NewKeyedMutex(1)
		m.WithLock("a", func() {})
		m.WithLock("b", func() {})
	})
}
