package xpool

// Task 是提交给 Pool 的一次性任务。
//
// 任务在某个 worker 上恰好执行一次；执行结果对 Pool 不可见。
// 需要返回值或错误处理的场景，请在闭包内部自行完成（参见 xtask 包）。
type Task func()

// messageKind 区分分发队列中的消息类型。
type messageKind uint8

const (
	kindWork messageKind = iota
	kindShutdown
)

// message 是分发队列中的元素：要么携带一个任务，要么是关闭信号。
type message struct {
	kind messageKind
	task Task
}

func workMessage(task Task) message {
	return message{kind: kindWork, task: task}
}

func shutdownMessage() message {
	return message{kind: kindShutdown}
}
