package xpool

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"github.com/omeyang/xthreadpool/pkg/observability/xmetrics"
)

// worker 是 pool 中的一个执行单元。
// id 仅用于诊断，不参与任务路由。
type worker struct {
	id   int
	pool *Pool
	tid  atomic.Int64 // 绑定 OS 线程时记录线程 id，否则为 0
	done chan struct{}
}

func startWorker(id int, p *Pool) *worker {
	w := &worker{
		id:   id,
		pool: p,
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

// run 是 worker 的主循环：出队 → 执行 → 出队，直到收到关闭消息。
func (w *worker) run() {
	defer close(w.done)

	logger := w.pool.logger.With(slog.Int("worker", w.id))
	if w.pool.opts.lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		w.tid.Store(int64(currentThreadID()))
		logger = logger.With(slog.Int64("tid", w.tid.Load()))
	}
	logger.Debug("xpool: worker started")

	for {
		msg, ok := w.pool.dispatch.receive()
		if !ok {
			// 发送端关闭但没有收到关闭消息，视为隐式关闭
			logger.Debug("xpool: dispatch closed, worker exiting")
			return
		}
		if msg.kind == kindShutdown {
			logger.Debug("xpool: worker stopped")
			return
		}
		w.execute(logger, msg.task)
	}
}

// execute 执行单个任务并捕获 panic。
// 任务调用 runtime.Goexit 时 execute 不会返回，worker 随之结束。
func (w *worker) execute(logger *slog.Logger, task Task) {
	p := w.pool
	p.busy.Add(1)
	_, span := xmetrics.Start(context.Background(), p.opts.observer, xmetrics.SpanOptions{
		Component: p.name,
		Operation: "execute",
		Attrs:     []xmetrics.Attr{xmetrics.Int("worker", w.id)},
	})

	finished := false
	defer func() {
		r := recover()
		switch {
		case r != nil:
			perr := &PanicError{Value: r, Stack: debug.Stack()}
			p.panicked.Add(1)
			span.End(xmetrics.Result{Err: perr})
			logger.Error("xpool: task panic recovered",
				slog.Any("panic", r),
				slog.String("stack", string(perr.Stack)),
			)
			w.notifyPanic(logger, perr)
		case finished:
			p.completed.Add(1)
			span.End(xmetrics.Result{})
		default:
			span.End(xmetrics.Result{Status: xmetrics.StatusError})
			logger.Warn("xpool: task called runtime.Goexit, worker exiting")
		}
		p.busy.Add(-1)
	}()

	task()
	finished = true
}

func (w *worker) notifyPanic(logger *slog.Logger, perr *PanicError) {
	handler := w.pool.opts.panicHandler
	if handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("xpool: panic handler panicked", slog.Any("panic", r))
		}
	}()
	handler(perr.Value, perr.Stack)
}
