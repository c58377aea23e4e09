package xpool

import (
	"log/slog"

	"github.com/omeyang/xthreadpool/pkg/observability/xmetrics"
)

// Option 定义 Pool 可选配置函数类型。
type Option func(*options)

// PanicHandler 在任务 panic 被捕获后调用。
// recovered 为 recover() 的返回值，stack 为 panic 时的堆栈。
type PanicHandler func(recovered any, stack []byte)

type options struct {
	logger       *slog.Logger
	name         string
	observer     xmetrics.Observer
	panicHandler PanicHandler
	maxPending   int
	lockOSThread bool
}

func defaultOptions() options {
	return options{
		logger:   slog.Default(),
		observer: xmetrics.NoopObserver{},
	}
}

// WithLogger 设置自定义日志记录器。
// 默认使用 slog.Default()。传入 nil 将被忽略，保持使用默认值。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 pool 名称，用于在多实例场景下区分日志与指标来源。
// 默认为 "xpool-" 加 8 位随机十六进制后缀。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithObserver 设置观测器，每个任务的执行会产生一个观测跨度。
// 若 observer 同时实现 [xmetrics.GaugeRegistrar]，pool 还会注册
// 队列深度和忙碌 worker 数两个异步指标。传入 nil 将被忽略。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithPanicHandler 设置任务 panic 时的回调。
// 回调在发生 panic 的 worker 上同步执行，其自身的 panic 会被忽略。
func WithPanicHandler(fn PanicHandler) Option {
	return func(o *options) {
		o.panicHandler = fn
	}
}

// WithMaxPending 设置队列中待执行任务数的上限，超过时 Submit 返回 ErrQueueFull。
// 默认 0 表示无界。负数会使 New 返回 ErrInvalidMaxPending。
func WithMaxPending(n int) Option {
	return func(o *options) {
		o.maxPending = n
	}
}

// WithLockOSThread 让每个 worker 独占一个 OS 线程（runtime.LockOSThread），
// 适用于依赖线程局部状态的任务（如部分 cgo 库）。
func WithLockOSThread() Option {
	return func(o *options) {
		o.lockOSThread = true
	}
}
