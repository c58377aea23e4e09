package xpool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/omeyang/xthreadpool/pkg/observability/xmetrics"
)

const (
	maxWorkers    = 1 << 16
	maxMaxPending = 1 << 24

	metricQueueDepth  = "xpool.queue.depth"
	metricWorkersBusy = "xpool.workers.busy"
)

// 编译期确保 Pool 满足 io.Closer 关闭契约。
var _ io.Closer = (*Pool)(nil)

// Pool 是固定大小的 worker pool。
//
// Pool 持有全部 worker 和分发队列的发送端。Submit 可从任意 goroutine 并发调用；
// Close/Shutdown 会等待所有已提交任务执行完毕并回收全部 worker。
type Pool struct {
	name     string
	opts     options
	logger   *slog.Logger
	dispatch *dispatcher
	workers  []*worker

	stopOnce   sync.Once
	done       chan struct{}
	unregister func() error

	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
	busy      atomic.Int64
}

// Stats 是 pool 运行状态的快照。
type Stats struct {
	// Workers 为 worker 数量。
	Workers int
	// Pending 为队列中尚未被取出的任务数。
	Pending int
	// Busy 为正在执行任务的 worker 数。
	Busy int
	// Submitted 为成功提交的任务总数。
	Submitted int64
	// Completed 为正常返回的任务总数。
	Completed int64
	// Panicked 为发生 panic 的任务总数。
	Panicked int64
}

// New 创建 pool 并立即启动 workers 个 worker。
//
// workers 必须在 [1, 65536] 之间，否则返回 ErrInvalidWorkers；
// 不存在"零个 worker"的 pool，因为提交给它的任务永远不会执行。
func New(workers int, opts ...Option) (*Pool, error) {
	if workers < 1 || workers > maxWorkers {
		return nil, fmt.Errorf("%w: %d (must be in [1, %d])", ErrInvalidWorkers, workers, maxWorkers)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		opt(&o)
	}
	if o.maxPending < 0 || o.maxPending > maxMaxPending {
		return nil, fmt.Errorf("%w: %d (must be in [0, %d])", ErrInvalidMaxPending, o.maxPending, maxMaxPending)
	}
	if o.name == "" {
		o.name = defaultName()
	}

	p := &Pool{
		name:     o.name,
		opts:     o,
		logger:   o.logger.With(slog.String("pool", o.name)),
		dispatch: newDispatcher(o.maxPending),
		done:     make(chan struct{}),
	}

	// 先注册指标再启动 worker，注册失败时无需回收 goroutine
	if err := p.registerGauges(); err != nil {
		return nil, err
	}

	p.workers = make([]*worker, workers)
	for i := range workers {
		p.workers[i] = startWorker(i, p)
	}

	p.logger.Debug("xpool: pool started",
		slog.Int("workers", workers),
		slog.Int("max_pending", o.maxPending),
	)
	return p, nil
}

func defaultName() string {
	return "xpool-" + uuid.NewString()[:8]
}

func (p *Pool) registerGauges() error {
	registrar, ok := p.opts.observer.(xmetrics.GaugeRegistrar)
	if !ok {
		return nil
	}
	unregister, err := registrar.RegisterGauges(p.name,
		xmetrics.Gauge{
			Name:        metricQueueDepth,
			Description: "tasks waiting in the dispatch queue",
			Value:       func() int64 { return int64(p.dispatch.pending()) },
		},
		xmetrics.Gauge{
			Name:        metricWorkersBusy,
			Description: "workers currently executing a task",
			Value:       p.busy.Load,
		},
	)
	if err != nil {
		return fmt.Errorf("xpool: register gauges: %w", err)
	}
	p.unregister = unregister
	return nil
}

// Submit 提交任务，立即返回，不等待执行。
//
// 返回错误：
//   - ErrNilTask：task 为 nil
//   - ErrPoolClosed：pool 已开始关闭
//   - ErrQueueFull：设置了 WithMaxPending 且队列已满
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	// 先计数再入队，保证任何时刻 Completed+Panicked 不超过 Submitted
	p.submitted.Add(1)
	if err := p.dispatch.send(task); err != nil {
		p.submitted.Add(-1)
		return err
	}
	return nil
}

// Close 优雅关闭 pool，等价于 Shutdown(context.Background())。
// 返回前所有已提交任务都已执行完毕，所有 worker 都已退出。
// 多次调用是安全的。
func (p *Pool) Close() error {
	return p.Shutdown(context.Background())
}

// Shutdown 优雅关闭 pool，ctx 控制等待时长。
//
// 首次调用时封住队列并发送与 worker 数量相同的关闭消息，随后等待全部 worker 退出。
// ctx 先到期时返回 ctx.Err()，剩余 worker 继续在后台处理队列中的任务直到退出，
// 可通过 Done() 等待最终完成。重复调用会等待同一次关闭过程。
func (p *Pool) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	p.stopOnce.Do(func() {
		p.logger.Debug("xpool: pool shutting down",
			slog.Int("pending", p.dispatch.pending()),
		)
		p.dispatch.sendShutdown(len(p.workers))
		go p.join()
	})

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// join 按 id 顺序等待每个 worker 退出，随后释放分发队列与指标注册。
func (p *Pool) join() {
	for _, w := range p.workers {
		<-w.done
	}
	p.dispatch.close()

	if p.unregister != nil {
		if err := p.unregister(); err != nil {
			p.logger.Warn("xpool: unregister gauges failed", slog.Any("error", err))
		}
	}

	stats := p.Stats()
	p.logger.Debug("xpool: pool stopped",
		slog.Int64("submitted", stats.Submitted),
		slog.Int64("completed", stats.Completed),
		slog.Int64("panicked", stats.Panicked),
	)
	close(p.done)
}

// Done 返回一个在所有 worker 退出后关闭的 channel。
// 关闭开始前该 channel 不会被关闭。
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Name 返回 pool 名称。
func (p *Pool) Name() string {
	return p.name
}

// Workers 返回 worker 数量。
func (p *Pool) Workers() int {
	return len(p.workers)
}

// Stats 返回当前运行状态快照。各字段分别读取，彼此之间不保证原子一致。
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   len(p.workers),
		Pending:   p.dispatch.pending(),
		Busy:      int(p.busy.Load()),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
}
