package xtask

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xthreadpool/pkg/util/xpool"
)

const (
	defaultKeyedShards = 32
	maxKeyedShards     = 1 << 16
)

// Keyed 保证同一 key 的任务不会同时执行，不同 key 的任务互不影响。
//
// 等待中的任务占用其所在 worker，同一 key 的并发任务过多时会降低 pool 的有效并行度。
// 同一 key 的执行顺序不保证与提交顺序一致。
type Keyed struct {
	shards []keyedShard
	mask   uint64
}

type keyedShard struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

// keyedEntry 的 ch 容量为 1，发送即加锁，接收即解锁。
type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// NewKeyed 创建 Keyed。shards 必须是 [1, 65536] 内 2 的幂，0 表示默认 32。
func NewKeyed(shards int) (*Keyed, error) {
	if shards == 0 {
		shards = defaultKeyedShards
	}
	if shards < 0 || shards > maxKeyedShards || shards&(shards-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShards, shards)
	}
	k := &Keyed{
		shards: make([]keyedShard, shards),
		mask:   uint64(shards - 1),
	}
	for i := range k.shards {
		k.shards[i].entries = make(map[string]*keyedEntry)
	}
	return k, nil
}

// Task 返回在 key 锁内执行 fn 的任务。fn 为 nil 时任务什么也不做。
func (k *Keyed) Task(key string, fn func()) xpool.Task {
	return func() {
		if fn == nil {
			return
		}
		e := k.acquire(key)
		defer k.release(key, e)
		fn()
	}
}

// Len 返回当前持有或等待锁的 key 数量。
func (k *Keyed) Len() int {
	n := 0
	for i := range k.shards {
		s := &k.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

func (k *Keyed) shard(key string) *keyedShard {
	return &k.shards[xxhash.Sum64String(key)&k.mask]
}

func (k *Keyed) acquire(key string) *keyedEntry {
	s := k.shard(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		s.entries[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.ch <- struct{}{}
	return e
}

func (k *Keyed) release(key string, e *keyedEntry) {
	<-e.ch

	s := k.shard(key)
	s.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
	}
	s.mu.Unlock()
}
