// Package xid 基于 Sonyflake 生成进程间唯一、按时间递增的 int64 ID。
//
// 用于给一批任务打上关联标识，例如 cron 每次触发提交的任务共享一个批次 ID，
// 便于在日志中串联同一批任务的执行与失败。
//
//	gen, err := xid.NewGenerator()
//	batch, err := gen.NextString() // base36，12-13 个字符
//
// 机器 ID 默认由 [DefaultMachineID] 决定，多实例部署时建议通过
// XID_MACHINE_ID 环境变量显式分配。
package xid
