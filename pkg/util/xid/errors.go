package xid

import "errors"

var (
	// ErrInvalidConfig 表示机器 ID 获取或校验失败。
	ErrInvalidConfig = errors.New("xid: invalid config")
	// ErrInvalidID 表示待解析的 ID 不是正的 base36 整数。
	ErrInvalidID = errors.New("xid: invalid id")
	// ErrOverTimeLimit 表示时间分量溢出，生成器不能再产生 ID。
	ErrOverTimeLimit = errors.New("xid: time component overflow")
)
