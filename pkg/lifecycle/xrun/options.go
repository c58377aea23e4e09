package xrun

import (
	"log/slog"
	"os"
	"syscall"
)

// Option 配置 Group。
type Option func(*options)

type options struct {
	logger    *slog.Logger
	name      string
	signals   []os.Signal
	noSignals bool
}

func defaultOptions() *options {
	return &options{
		logger: slog.Default(),
		name:   "xrun",
	}
}

// WithLogger 设置生命周期日志的记录器，nil 被忽略。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName 设置 Group 名称，出现在日志的 group 字段。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithSignals 覆盖 Run 监听的信号。空列表等价于默认值。
func WithSignals(signals ...os.Signal) Option {
	copied := append([]os.Signal(nil), signals...)
	return func(o *options) {
		o.signals = copied
	}
}

// WithoutSignalHandler 禁用 Run 的信号监听。
func WithoutSignalHandler() Option {
	return func(o *options) {
		o.noSignals = true
	}
}

// DefaultSignals 返回默认监听的信号：SIGHUP、SIGINT、SIGTERM、SIGQUIT。
// 每次调用返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
}
