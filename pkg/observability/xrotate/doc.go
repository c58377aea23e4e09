// Package xrotate 为日志文件提供按大小轮转。
//
// [NewLumberjack] 基于 lumberjack v2 实现 [Rotator]，
// 可直接作为 xlog 的输出目标（xlog.Builder.SetRotation）。
// 所有实现并发安全；Close 之后 Write/Rotate 返回 [ErrClosed]。
package xrotate
