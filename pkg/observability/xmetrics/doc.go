// Package xmetrics 提供 worker pool 使用的可观测性接口（metrics + tracing）。
//
// # 设计理念
//
// xmetrics 仅定义最小化接口：Observer/Span/Attr 以及异步指标 Gauge，
// xpool 只依赖接口；具体实现可替换。
// 默认实现基于 OpenTelemetry，兼容主流可观测栈，跨度类型为 Consumer。
//
// # 使用示例
//
//	obs, _ := xmetrics.NewOTelObserver()
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "image-resize",
//		Operation: "execute",
//	})
//	defer span.End(xmetrics.Result{Err: err})
//
// # 指标命名
//
// 同步指标（每个跨度结束时记录）：
//   - xpool.task.total
//   - xpool.task.duration
//
// 统一属性：component / operation / status。
//
// 异步指标由调用方通过 [GaugeRegistrar] 注册，属性为 component。
package xmetrics
