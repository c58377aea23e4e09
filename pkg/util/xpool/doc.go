// Package xpool 提供固定大小的 worker pool（线程池）。
//
// Pool 在创建时启动固定数量的 worker，所有 worker 共享同一个无界 FIFO
// 分发队列，从中竞争获取任务并执行。任务提交与任务执行完全解耦：
// Submit 立即返回，不等待执行，也不返回结果。
//
// 支持以下特性：
//   - 任务类型为 [Task]（无参数、无返回值的一次性函数）
//   - worker 数量在 [1, 65536] 之间，创建后固定不变
//   - 无界队列（默认），可通过 WithMaxPending 设置上限，超限返回 ErrQueueFull
//   - 优雅关闭：Close 前已提交的任务全部执行完毕后才返回
//   - 超时关闭：Shutdown(ctx) 支持 context 超时/取消，Done() 可等待残留 worker
//   - panic 隔离：单个任务 panic 被捕获并记录（含堆栈），worker 继续运行
//   - 可选将每个 worker 绑定到独立 OS 线程（WithLockOSThread）
//   - 可注入 slog 日志记录器与 xmetrics.Observer（OpenTelemetry 指标/追踪）
//
// # 关闭协议
//
// 关闭时 Pool 先封住队列（之后的 Submit 返回 ErrPoolClosed），再向队尾追加
// 与 worker 数量相同的关闭消息，然后按 id 顺序等待每个 worker 退出。
// 由于关闭消息排在所有已接受任务之后，FIFO 顺序保证每个已提交任务都会在任何
// worker 观察到关闭消息之前被取出；每个 worker 恰好消费一条关闭消息后退出。
//
// # 注意事项
//
//   - Close/Shutdown 不可在任务内部调用，否则会死锁
//   - 任务一旦提交无法撤回，执行中的任务不会被中断
//   - 调用 runtime.Goexit 的任务会结束其所在 worker，Pool 不会补充 worker
//   - 同一 worker 上的任务严格串行；不同 worker 之间没有执行顺序保证，
//     但出队顺序与提交顺序一致
//
// # 设计选择说明
//
// 分发队列使用互斥锁 + 条件变量保护的环形缓冲区，而非 Go channel：
// channel 容量固定，无法满足"发送端永不阻塞"的无界语义。
// 接收端的锁只在一次出队期间持有，任务执行前释放，
// 因此一个 worker 执行任务不会阻塞其他 worker 取任务。
package xpool
