package arbiter

import (
	"hash/fnv"
	"sync"
)

// lockTable is a sharded keyed-mutex: every session id hashes to one of a
// fixed number of shards, each guarded by its own sync.Mutex. Different
// sessions contend only when they happen to share a shard, which keeps
// lock acquisition cheap without growing an unbounded map of per-session
// locks (spec §5, "per-session exclusive lock").
type lockTable struct {
	shards []sync.Mutex
}

func newLockTable(shardCount int) *lockTable {
	if shardCount <= 0 {
		shardCount = 1
	}
	return &lockTable{shards: make([]sync.Mutex, shardCount)}
}

func (t *lockTable) shardFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &t.shards[h.Sum32()%uint32(len(t.shards))]
}

// Lock acquires the shard for sessionID and returns the unlock func.
func (t *lockTable) Lock(sessionID string) func() {
	m := t.shardFor(sessionID)
	m.Lock()
	return m.Unlock
}
