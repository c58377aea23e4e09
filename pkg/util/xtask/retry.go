package xtask

import (
	"context"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/omeyang/xthreadpool/pkg/util/xpool"
)

const (
	defaultAttempts = 3
	defaultDelay    = 100 * time.Millisecond
)

// RetryOption 配置 Retry。
type RetryOption func(*retryConfig)

type retryConfig struct {
	attempts  uint
	delay     time.Duration
	maxDelay  time.Duration
	fixed     bool
	retryIf   func(error) bool
	onRetry   func(attempt uint, err error)
	onFailure func(error)
}

// WithAttempts 设置最大尝试次数（含首次），默认 3。0 表示直到成功或 ctx 取消。
func WithAttempts(n uint) RetryOption {
	return func(c *retryConfig) { c.attempts = n }
}

// WithDelay 设置首次重试前的等待时间，默认 100ms，之后指数退避。
func WithDelay(d time.Duration) RetryOption {
	return func(c *retryConfig) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithMaxDelay 限制单次等待时间上限。
func WithMaxDelay(d time.Duration) RetryOption {
	return func(c *retryConfig) { c.maxDelay = d }
}

// WithFixedDelay 使用固定间隔代替指数退避。
func WithFixedDelay() RetryOption {
	return func(c *retryConfig) { c.fixed = true }
}

// WithRetryIf 设置是否继续重试的判断，返回 false 时立即放弃。
func WithRetryIf(fn func(error) bool) RetryOption {
	return func(c *retryConfig) { c.retryIf = fn }
}

// WithOnRetry 在每次失败后、下一次重试前调用，attempt 从 0 开始。
func WithOnRetry(fn func(attempt uint, err error)) RetryOption {
	return func(c *retryConfig) { c.onRetry = fn }
}

// WithOnFailure 在所有尝试都失败后调用，参数为最后一次的错误
// （ctx 取消时为 ctx 的错误）。
func WithOnFailure(fn func(error)) RetryOption {
	return func(c *retryConfig) { c.onFailure = fn }
}

// Retry 返回一个带重试的任务。
//
// 任务在 worker 上运行 fn，失败后按配置重试；ctx 取消时停止重试。
// 最终失败通过 WithOnFailure 报告，任务本身不返回错误。
// nil ctx 视为 context.Background()。
func Retry(ctx context.Context, fn func(context.Context) error, opts ...RetryOption) xpool.Task {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := retryConfig{attempts: defaultAttempts, delay: defaultDelay}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func() {
		if fn == nil {
			cfg.fail(ErrNilFunc)
			return
		}
		err := retry.New(cfg.options(ctx)...).Do(func() error {
			return fn(ctx)
		})
		if err != nil {
			cfg.fail(err)
		}
	}
}

func (c *retryConfig) options(ctx context.Context) []retry.Option {
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
	}
	if c.maxDelay > 0 {
		opts = append(opts, retry.MaxDelay(c.maxDelay))
	}
	if c.fixed {
		opts = append(opts, retry.DelayType(retry.FixedDelay))
	}
	if c.retryIf != nil {
		opts = append(opts, retry.RetryIf(c.retryIf))
	}
	if c.onRetry != nil {
		opts = append(opts, retry.OnRetry(c.onRetry))
	}
	return opts
}

func (c *retryConfig) fail(err error) {
	if c.onFailure != nil {
		c.onFailure(err)
	}
}
