// Package xrun 管理进程级的服务生命周期：并发运行、信号处理、协调关闭。
//
// 基于 errgroup + context.WithCancelCause。任一服务返回错误或收到信号时，
// 所有服务的 ctx 被取消；[Group.Wait] 返回第一个错误或退出原因。
//
// # 典型用法
//
//	err := xrun.Run(ctx, nil,
//	    xrun.Drain(pool, 10*time.Second),
//	    xrun.Ticker(time.Second, false, report),
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常的信号退出
//	}
//
// [Drain] 在 ctx 取消后优雅关闭一个 worker pool（或任何带 Shutdown(ctx) 的组件），
// 等待已提交任务执行完毕。
//
// # 信号
//
// 默认监听 [DefaultSignals]（SIGHUP、SIGINT、SIGTERM、SIGQUIT），
// 收到信号时以 *[SignalError] 作为取消原因，可用 errors.Is(err, ErrSignal) 判断。
package xrun
