package xtask

import (
	"errors"

	"github.com/sony/gobreaker/v2"
)

// ErrNilFunc 表示被包装的函数为 nil。
var ErrNilFunc = errors.New("xtask: nil func")

// IsRejected 判断 err 是否为熔断器拒绝执行（打开状态或半开状态请求过多）。
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// ErrInvalidShards 表示 NewKeyed 的分片数不是 [1, 65536] 内 2 的幂。
var ErrInvalidShards = errors.New("xtask: invalid shard count")
