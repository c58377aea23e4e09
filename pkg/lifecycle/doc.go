// Package lifecycle 提供进程生命周期管理相关的子包。
//
// 子包列表：
//   - xrun: 基于 errgroup 的服务编排与信号处理
package lifecycle
