package xpool

import (
	"math"
	"sync/atomic"
	"testing"
)

func FuzzNew(f *testing.F) {
	f.Add(1, 0)
	f.Add(0, 0)
	f.Add(-1, -1)
	f.Add(100, 100)
	f.Add(math.MaxInt, 1)           // 极端 workers
	f.Add(1, math.MaxInt)           // 极端 maxPending
	f.Add(math.MinInt, math.MinInt) // 双极端
	f.Add(maxWorkers+1, 1)          // 超上限 workers
	f.Add(1, maxMaxPending+1)       // 超上限 maxPending
	f.Add(1, maxMaxPending)         // 上限边界

	f.Fuzz(func(t *testing.T, workers, maxPending int) {
		// 限制 worker 数量，避免单个输入启动过多 goroutine
		if workers > 256 {
			workers = workers%256 + 1
		}
		pool, err := New(workers, WithMaxPending(maxPending))
		if err != nil {
			// 参数无效时应返回错误而非 panic
			return
		}

		var ran atomic.Int64
		accepted := int64(0)
		for range 10 {
			if pool.Submit(func() { ran.Add(1) }) == nil {
				accepted++
			}
		}
		if err := pool.Close(); err != nil {
			t.Fatal(err)
		}
		if got := ran.Load(); got != accepted {
			t.Fatalf("ran %d tasks, accepted %d", got, accepted)
		}
	})
}
