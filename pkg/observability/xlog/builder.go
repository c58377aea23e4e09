package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/xthreadpool/pkg/observability/xrotate"
)

// ReplaceAttrFunc 在属性输出前改写它，返回空 Key 的 Attr 表示移除。
// 用于字段重命名、脱敏等治理场景。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器，一次性使用。
type Builder struct {
	output      io.Writer
	level       Level
	format      string
	addSource   bool
	enrich      bool
	replaceAttr ReplaceAttrFunc
	rotator     xrotate.Rotator
	err         error
}

// New 创建构建器。默认输出到 stderr，Info 级别，text 格式，启用 trace 注入。
func New() *Builder {
	return &Builder{
		output: os.Stderr,
		level:  LevelInfo,
		format: "text",
		enrich: true,
	}
}

// SetOutput 设置输出目标。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil {
		return b
	}
	if w == nil {
		b.err = ErrNilOutput
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置初始日志级别。
func (b *Builder) SetLevel(level Level) *Builder {
	if b.err == nil {
		b.level = level
	}
	return b
}

// SetLevelString 通过字符串设置初始日志级别。空字符串保持默认。
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil || strings.TrimSpace(s) == "" {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	b.level = level
	return b
}

// SetFormat 设置输出格式：text 或 json。空字符串保持默认。
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
	case "text", "json":
		b.format = normalized
	default:
		b.err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return b
}

// SetAddSource 是否记录源码位置。
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetEnrich 是否从 context 注入 trace_id/span_id，默认启用。
func (b *Builder) SetEnrich(enable bool) *Builder {
	b.enrich = enable
	return b
}

// SetReplaceAttr 设置属性改写函数。
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetRotation 输出到带轮转的日志文件，替换 SetOutput 设置的目标。
// 文件在 Build 返回的 cleanup 中关闭。
func (b *Builder) SetRotation(filename string, opts ...xrotate.LumberjackOption) *Builder {
	if b.err != nil {
		return b
	}
	rotator, err := xrotate.NewLumberjack(filename, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.rotator = rotator
	b.output = rotator
	return b
}

// Build 构建 Logger。
//
// 返回的 cleanup 释放轮转文件等资源，可重复调用。
// 构建失败时已打开的轮转文件会被关闭。
func (b *Builder) Build() (*Logger, func() error, error) {
	if b.err != nil {
		if b.rotator != nil {
			_ = b.rotator.Close()
		}
		return nil, nil, b.err
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.Level(b.level))

	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}

	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, opts)
	} else {
		handler = slog.NewTextHandler(b.output, opts)
	}
	if b.enrich {
		// base 非 nil，不会出错
		handler, _ = NewEnrichHandler(handler)
	}

	logger := &Logger{
		Logger: slog.New(handler),
		level:  levelVar,
	}
	return logger, b.cleanup(), nil
}

func (b *Builder) cleanup() func() error {
	var once sync.Once
	rotator := b.rotator
	return func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
