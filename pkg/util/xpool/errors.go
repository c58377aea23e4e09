package xpool

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTask 表示提交的任务为 nil。
	ErrNilTask = errors.New("xpool: task cannot be nil")

	// ErrPoolClosed 表示 pool 已开始关闭，无法提交任务。
	ErrPoolClosed = errors.New("xpool: pool is closed")

	// ErrQueueFull 表示待执行任务数已达到 WithMaxPending 设置的上限。
	ErrQueueFull = errors.New("xpool: queue is full")

	// ErrInvalidWorkers 表示 worker 数量无效。
	ErrInvalidWorkers = errors.New("xpool: invalid worker count")

	// ErrInvalidMaxPending 表示队列上限无效。
	ErrInvalidMaxPending = errors.New("xpool: invalid max pending")

	// ErrNilContext 表示 context 参数为 nil。
	ErrNilContext = errors.New("xpool: nil context")

	// ErrNilOption 表示传入了 nil 的 Option。
	ErrNilOption = errors.New("xpool: nil option")
)

// PanicError 描述任务执行期间被捕获的 panic。
type PanicError struct {
	// Value 是 recover() 返回的值。
	Value any
	// Stack 是 panic 发生时的 goroutine 堆栈。
	Stack []byte
}

// Error 实现 error 接口。
func (e *PanicError) Error() string {
	return fmt.Sprintf("xpool: task panicked: %v", e.Value)
}

// Unwrap 在 panic 值本身是 error 时返回它，便于 errors.Is/As 判断。
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
