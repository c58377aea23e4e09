//go:build linux

package xpool

import "golang.org/x/sys/unix"

// currentThreadID 返回当前 OS 线程 id。
func currentThreadID() int {
	return unix.Gettid()
}
