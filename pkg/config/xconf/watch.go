package xconf

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// WatchCallback 在每次重载尝试后调用，err 非 nil 表示重载或监视失败，
// 此时 cfg 仍持有上一份有效配置。
type WatchCallback func(cfg *Config, err error)

// WatchOption 配置 Watch。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载。默认 100ms，非正数被忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// Watch 监视配置文件并在变更时重载，阻塞直到 ctx 取消。
//
// 回调在 Watch 所在 goroutine 同步执行，Watch 返回后不会再有回调。
// ctx 取消时返回 nil。
func (c *Config) Watch(ctx context.Context, onChange WatchCallback, opts ...WatchOption) error {
	if c.path == "" {
		return ErrNotFileBacked
	}
	if onChange == nil {
		return ErrNilCallback
	}
	o := watchOptions{debounce: defaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatchFailed, err)
	}
	defer w.Close()

	// 监视目录而非文件：编辑器常以"写临时文件再 rename"的方式保存
	dir := filepath.Dir(c.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("%w: add %s: %w", ErrWatchFailed, dir, err)
	}
	name := filepath.Base(c.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isConfigChange(ev, name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			onChange(c, fmt.Errorf("%w: %w", ErrWatchFailed, err))

		case <-fire:
			fire = nil
			onChange(c, c.Reload())
		}
	}
}

func isConfigChange(ev fsnotify.Event, name string) bool {
	if filepath.Base(ev.Name) != name {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
