package xpool

import (
	"sync"

	"github.com/gammazero/deque"
)

// dispatcher 是连接提交方与 worker 的分发队列。
//
// 发送端可被任意多个 goroutine 并发使用，永不阻塞；
// 接收端被所有 worker 共享，同一时刻只有一个 worker 在出队。
// 锁只覆盖单次出队，任务执行发生在锁外。
type dispatcher struct {
	mu    sync.Mutex
	ready sync.Cond
	queue deque.Deque[message]

	limit  int // 待执行任务上限，0 表示无界
	work   int // 队列中的任务消息数（不含关闭消息）
	sealed bool
	closed bool
}

func newDispatcher(limit int) *dispatcher {
	d := &dispatcher{limit: limit}
	d.ready.L = &d.mu
	return d
}

// send 将任务追加到队尾。
// 队列被封住或关闭后返回 ErrPoolClosed；达到上限时返回 ErrQueueFull。
func (d *dispatcher) send(task Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sealed || d.closed {
		return ErrPoolClosed
	}
	if d.limit > 0 && d.work >= d.limit {
		return ErrQueueFull
	}
	d.queue.PushBack(workMessage(task))
	d.work++
	d.ready.Signal()
	return nil
}

// sendShutdown 封住队列并追加 n 条关闭消息。
// 关闭消息不受上限约束。只有第一次调用生效，返回值表示本次是否生效。
func (d *dispatcher) sendShutdown(n int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sealed || d.closed {
		return false
	}
	d.sealed = true
	for range n {
		d.queue.PushBack(shutdownMessage())
	}
	d.ready.Broadcast()
	return true
}

// receive 阻塞直到队首有消息可取。
// 队列已关闭且为空时返回 ok=false。
func (d *dispatcher) receive() (msg message, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for d.queue.Len() == 0 {
		if d.closed {
			return message{}, false
		}
		d.ready.Wait()
	}
	msg = d.queue.PopFront()
	if msg.kind == kindWork {
		d.work--
	}
	return msg, true
}

// close 关闭发送端并唤醒所有等待中的接收方。
// 已入队的消息仍可被取出。
func (d *dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sealed = true
	d.closed = true
	d.ready.Broadcast()
}

// pending 返回队列中尚未被取出的任务数。
func (d *dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.work
}
