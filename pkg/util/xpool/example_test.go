package xpool_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/omeyang/xthreadpool/pkg/util/xpool"
)

func Example() {
	var count atomic.Int32

	pool, err := xpool.New(2)
	if err != nil {
		panic(err)
	}

	for range 5 {
		if err := pool.Submit(func() { count.Add(1) }); err != nil {
			fmt.Println("Submit error:", err)
		}
	}

	// Close 等待所有任务处理完成
	if err := pool.Close(); err != nil {
		panic(err)
	}

	fmt.Println("Processed:", count.Load())

	// Output:
	// Processed: 5
}

func ExamplePool_Shutdown() {
	pool, err := xpool.New(2, xpool.WithName("example"))
	if err != nil {
		panic(err)
	}

	for range 5 {
		_ = pool.Submit(func() { time.Sleep(time.Millisecond) })
	}

	// 带超时的优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Shutdown(ctx); err != nil {
		fmt.Println("Shutdown error:", err)
	}

	err = pool.Submit(func() {})
	fmt.Println("shutdown complete:", errors.Is(err, xpool.ErrPoolClosed))
	// Output:
	// shutdown complete: true
}

func Example_panicHandler() {
	pool, err := xpool.New(1, xpool.WithPanicHandler(func(r any, _ []byte) {
		fmt.Println("recovered:", r)
	}))
	if err != nil {
		panic(err)
	}

	_ = pool.Submit(func() { panic("invalid input") })
	_ = pool.Submit(func() { fmt.Println("still running") })

	if err := pool.Close(); err != nil {
		panic(err)
	}
	fmt.Println("panicked:", pool.Stats().Panicked)

	// Output:
	// recovered: invalid input
	// still running
	// panicked: 1
}
