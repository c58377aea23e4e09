// Package util 提供 worker pool 及其周边工具。
//
// 子包列表：
//   - xpool: 固定大小的 worker pool，共享 FIFO 队列、优雅关闭
//   - xtask: 任务适配器，重试、熔断、按 key 互斥
//   - xid: 基于 Sonyflake 的唯一 ID，用于任务批次标识
package util
