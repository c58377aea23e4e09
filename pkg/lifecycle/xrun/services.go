package xrun

import (
	"context"
	"errors"
	"reflect"
	"time"
)

// Drainer 是可优雅关闭的组件，如 *xpool.Pool。
type Drainer interface {
	Shutdown(ctx context.Context) error
}

// Drain 返回一个服务函数：阻塞直到 ctx 取消，然后调用 d.Shutdown 等待其排空。
//
// timeout <= 0 表示无限等待。超时返回 context.DeadlineExceeded，
// 此时组件仍在后台继续排空。d 为 nil 或包装了 nil 指针（如 (*xpool.Pool)(nil)）
// 时立即返回 ErrNilDrainer。
func Drain(d Drainer, timeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if isNilDrainer(d) {
			return ErrNilDrainer
		}
		<-ctx.Done()

		// 父 ctx 已取消，关闭等待需要独立的 context
		shutdownCtx := context.WithoutCancel(ctx)
		if timeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, timeout)
			defer cancel()
		}
		return d.Shutdown(shutdownCtx)
	}
}

func isNilDrainer(d Drainer) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// Ticker 返回周期执行 fn 的服务函数。immediate 为 true 时启动即执行一次。
// fn 返回错误时服务退出；ctx 取消时返回 nil。
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}
		if immediate && ctx.Err() == nil {
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
			case <-ctx.Done():
				return nil
			}
		}
	}
}
