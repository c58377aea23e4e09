package xpool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexTask 返回一个把 i 写入 out 的任务，用于在出队后识别消息。
func indexTask(out *int, i int) Task {
	return func() { *out = i }
}

func TestDispatcher_FIFO(t *testing.T) {
	d := newDispatcher(0)
	var got int
	for i := range 100 {
		require.NoError(t, d.send(indexTask(&got, i)))
	}
	assert.Equal(t, 100, d.pending())

	for i := range 100 {
		msg, ok := d.receive()
		require.True(t, ok)
		require.Equal(t, kindWork, msg.kind)
		msg.task()
		require.Equal(t, i, got)
	}
	assert.Equal(t, 0, d.pending())
}

func TestDispatcher_ShutdownSealsQueue(t *testing.T) {
	d := newDispatcher(0)
	var got int
	require.NoError(t, d.send(indexTask(&got, 1)))

	assert.True(t, d.sendShutdown(2))
	assert.False(t, d.sendShutdown(2), "second shutdown must be ignored")
	assert.ErrorIs(t, d.send(func() {}), ErrPoolClosed)

	// 已入队的任务排在关闭消息之前
	msg, ok := d.receive()
	require.True(t, ok)
	assert.Equal(t, kindWork, msg.kind)
	for range 2 {
		msg, ok = d.receive()
		require.True(t, ok)
		assert.Equal(t, kindShutdown, msg.kind)
	}
	assert.Equal(t, 0, d.pending())
}

func TestDispatcher_Limit(t *testing.T) {
	d := newDispatcher(2)
	require.NoError(t, d.send(func() {}))
	require.NoError(t, d.send(func() {}))
	assert.ErrorIs(t, d.send(func() {}), ErrQueueFull)

	// 关闭消息不受上限约束
	assert.True(t, d.sendShutdown(3))

	_, ok := d.receive()
	require.True(t, ok)
	assert.Equal(t, 1, d.pending())
}

func TestDispatcher_LimitFreesAfterReceive(t *testing.T) {
	d := newDispatcher(1)
	require.NoError(t, d.send(func() {}))
	require.ErrorIs(t, d.send(func() {}), ErrQueueFull)

	_, ok := d.receive()
	require.True(t, ok)
	assert.NoError(t, d.send(func() {}))
}

func TestDispatcher_CloseDrainsThenReportsClosed(t *testing.T) {
	d := newDispatcher(0)
	require.NoError(t, d.send(func() {}))
	d.close()

	assert.ErrorIs(t, d.send(func() {}), ErrPoolClosed)
	assert.False(t, d.sendShutdown(1))

	msg, ok := d.receive()
	require.True(t, ok)
	assert.Equal(t, kindWork, msg.kind)

	_, ok = d.receive()
	assert.False(t, ok)
}

func TestDispatcher_CloseWakesReceivers(t *testing.T) {
	d := newDispatcher(0)

	var wg sync.WaitGroup
	results := make(chan bool, 3)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := d.receive()
			results <- ok
		}()
	}

	time.Sleep(10 * time.Millisecond)
	d.close()

	waitGroupWithin(t, &wg, time.Second)
	close(results)
	for ok := range results {
		assert.False(t, ok)
	}
}

// 多个接收方竞争同一队列时，每条消息恰好被取出一次。
func TestDispatcher_CompetingReceivers(t *testing.T) {
	const receivers, tasks = 4, 1000
	d := newDispatcher(0)

	var (
		mu   sync.Mutex
		seen = make(map[int]int, tasks)
		wg   sync.WaitGroup
	)
	for range receivers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				msg, ok := d.receive()
				if !ok || msg.kind == kindShutdown {
					return
				}
				msg.task()
			}
		}()
	}

	for i := range tasks {
		require.NoError(t, d.send(func() {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		}))
	}
	require.True(t, d.sendShutdown(receivers))
	waitGroupWithin(t, &wg, 2*time.Second)

	require.Len(t, seen, tasks)
	for i, n := range seen {
		require.Equal(t, 1, n, "task %d", i)
	}
}

func waitGroupWithin(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("goroutines did not finish within %v", d)
	}
}
