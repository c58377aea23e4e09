// Package xtask 把带错误返回的业务函数适配成 xpool.Task。
//
// xpool 不关心任务结果；需要重试或熔断时，在提交前用本包包装：
//
//	pool.Submit(xtask.Retry(ctx, fetch,
//	    xtask.WithAttempts(5),
//	    xtask.WithOnFailure(func(err error) { logger.Warn("fetch failed", xlog.Err(err)) }),
//	))
//
//	br := xtask.NewBreaker("thumbnail-store")
//	pool.Submit(br.Task(upload, onErr))
//
// 两者可以组合：[Breaker.Guard] 返回受熔断保护的函数，交给 [Retry]，
// 再配合 WithRetryIf(func(err error) bool { return !xtask.IsRejected(err) })
// 在熔断打开时立即放弃重试。
//
// [Keyed] 让同一 key 的任务互斥执行（例如同一租户的写操作），
// 不同 key 仍可在多个 worker 上并行：
//
//	k, _ := xtask.NewKeyed(0)
//	pool.Submit(k.Task(tenantID, write))
//
// 重试基于 avast/retry-go，熔断基于 sony/gobreaker，key 分片使用 xxhash。
package xtask
