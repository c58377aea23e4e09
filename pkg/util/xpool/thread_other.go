//go:build !linux

package xpool

// currentThreadID 在非 Linux 平台上无法获取线程 id，返回 0。
func currentThreadID() int {
	return 0
}
