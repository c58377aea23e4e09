package xtask

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xthreadpool/pkg/util/xpool"
)

// BreakerOption 配置 Breaker。
type BreakerOption func(*breakerConfig)

type breakerConfig struct {
	failures      uint32
	maxRequests   uint32
	interval      time.Duration
	timeout       time.Duration
	logger        *slog.Logger
	onStateChange func(name string, from, to gobreaker.State)
}

// WithConsecutiveFailures 设置连续失败多少次后打开熔断，默认 5。
func WithConsecutiveFailures(n uint32) BreakerOption {
	return func(c *breakerConfig) {
		if n > 0 {
			c.failures = n
		}
	}
}

// WithOpenTimeout 设置熔断打开后多久进入半开状态，默认 30s。
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(c *breakerConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithInterval 设置关闭状态下计数清零的周期，0（默认）表示不清零。
func WithInterval(d time.Duration) BreakerOption {
	return func(c *breakerConfig) { c.interval = d }
}

// WithHalfOpenRequests 设置半开状态允许通过的请求数，默认 1。
func WithHalfOpenRequests(n uint32) BreakerOption {
	return func(c *breakerConfig) {
		if n > 0 {
			c.maxRequests = n
		}
	}
}

// WithBreakerLogger 设置记录状态变化的日志器，默认 slog.Default()。
func WithBreakerLogger(logger *slog.Logger) BreakerOption {
	return func(c *breakerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnStateChange 设置状态变化回调，在日志之后调用。
func WithOnStateChange(fn func(name string, from, to gobreaker.State)) BreakerOption {
	return func(c *breakerConfig) { c.onStateChange = fn }
}

// Breaker 用熔断器保护一类任务，避免下游故障时 worker 被持续占用。
// 并发安全，可被多个 worker 共享。
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreaker 创建熔断器，name 用于日志。
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	cfg := breakerConfig{
		failures:    5,
		maxRequests: 1,
		timeout:     30 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.maxRequests,
		Interval:    cfg.interval,
		Timeout:     cfg.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.logger.Info("xtask: breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if cfg.onStateChange != nil {
				cfg.onStateChange(name, from, to)
			}
		},
	}
	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker[struct{}](st)}
}

// Guard 返回受熔断保护的 fn。熔断打开时不调用 fn，
// 直接返回 gobreaker.ErrOpenState（可用 IsRejected 判断）。
func (b *Breaker) Guard(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if fn == nil {
			return ErrNilFunc
		}
		_, err := b.cb.Execute(func() (struct{}, error) {
			return struct{}{}, fn(ctx)
		})
		return err
	}
}

// Task 返回受熔断保护的任务。fn 的错误或熔断拒绝通过 onErr 报告，onErr 可为 nil。
func (b *Breaker) Task(fn func() error, onErr func(error)) xpool.Task {
	guarded := b.Guard(nil)
	if fn != nil {
		guarded = b.Guard(func(context.Context) error { return fn() })
	}
	return func() {
		if err := guarded(context.Background()); err != nil && onErr != nil {
			onErr(err)
		}
	}
}

// Name 返回熔断器名称。
func (b *Breaker) Name() string { return b.name }

// State 返回当前状态。
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Counts 返回当前统计窗口的计数。
func (b *Breaker) Counts() gobreaker.Counts { return b.cb.Counts() }
