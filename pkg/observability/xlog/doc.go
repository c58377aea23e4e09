// Package xlog 基于 log/slog 构建进程级 Logger。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，后续 Set 操作被跳过）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/xpool/pool.log", xrotate.WithMaxSize(100)).
//		Build()
//	defer cleanup()
//
// [Logger] 内嵌 *slog.Logger，可直接交给只接受 *slog.Logger 的组件（如 xpool.WithLogger）。
//
// # 动态级别
//
// [Logger.SetLevel] 与 [Logger.SetLevelString] 在运行时修改级别，
// 所有派生 logger 共享同一个 slog.LevelVar，变更立即生效。
// 配置文件热加载通过它调整 log.level。
//
// # Trace 关联
//
// 默认启用 [EnrichHandler]：日志调用的 context 中带有 OpenTelemetry span 时，
// 自动附加 trace_id 与 span_id。
package xlog
