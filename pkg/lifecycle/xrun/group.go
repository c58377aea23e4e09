package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// Group 并发运行一组服务，任一服务出错时取消其余服务。
//
// Go 可从多个 goroutine 并发调用；Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *options
}

// NewGroup 创建 Group，返回的 ctx 在任一服务出错或调用 Cancel 时取消。
// nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     o,
	}, egCtx
}

// Go 以 name 启动一个服务，name 仅用于日志。
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		logger := g.opts.logger.With(slog.String("group", g.opts.name), slog.String("service", name))
		logger.Debug("xrun: service starting")

		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("xrun: service exited with error", slog.Any("error", err))
		} else {
			logger.Debug("xrun: service stopped")
		}
		return err
	})
}

// Cancel 以 cause 为原因取消所有服务，Wait 会返回该原因。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤掉。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Wait 等待所有服务返回。
//
// 返回第一个非取消类错误；若 Group 被 Cancel(cause) 或信号取消，返回该原因；
// 普通取消返回 nil。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	g.opts.logger.Debug("xrun: all services stopped", slog.String("group", g.opts.name))

	// 只有 Group 自身被取消时才过滤 context.Canceled；服务内部产生的取消错误原样返回
	if err == nil || errors.Is(err, context.Canceled) {
		if g.causeCtx.Err() != nil {
			if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
				return cause
			}
			return nil
		}
	}
	return err
}

// Run 启动信号监听以及 services，阻塞直到全部退出。
//
// 收到信号时返回 *SignalError。opts 可为 nil。
func Run(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)
	if !g.opts.noSignals {
		g.Go("signal", g.watchSignals)
	}
	for i, svc := range services {
		g.Go(serviceName(i), svc)
	}
	return g.Wait()
}

func (g *Group) watchSignals(ctx context.Context) error {
	signals := g.opts.signals
	if len(signals) == 0 {
		signals = DefaultSignals()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	var sig os.Signal
	select {
	case sig = <-sigCh:
	case sig = <-testSigChan(ctx):
	case <-ctx.Done():
		return ctx.Err()
	}

	g.opts.logger.Info("xrun: received signal",
		slog.String("group", g.opts.name),
		slog.String("signal", sig.String()),
	)
	g.cancel(&SignalError{Signal: sig})
	return nil
}

func serviceName(i int) string {
	return "service-" + strconv.Itoa(i)
}

type testSigChanKey struct{}

// testSigChan 返回测试通过 context 注入的信号通道，生产环境为 nil（永不就绪）。
func testSigChan(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(testSigChanKey{}).(<-chan os.Signal)
	return c
}

func withTestSigChan(ctx context.Context, c <-chan os.Signal) context.Context {
	return context.WithValue(ctx, testSigChanKey{}, c)
}
