package xlog

import (
	"log/slog"
)

// Logger 是带动态级别控制的 *slog.Logger。
//
// 通过 With/WithGroup 派生出的 *slog.Logger 共享同一个级别变量。
type Logger struct {
	*slog.Logger

	level *slog.LevelVar
}

// SetLevel 运行时修改日志级别。
func (l *Logger) SetLevel(level Level) {
	l.level.Set(slog.Level(level))
}

// SetLevelString 解析并设置日志级别，解析失败时保持原级别。
func (l *Logger) SetLevelString(s string) error {
	level, err := ParseLevel(s)
	if err != nil {
		return err
	}
	l.SetLevel(level)
	return nil
}

// GetLevel 返回当前日志级别。
func (l *Logger) GetLevel() Level {
	return Level(l.level.Level())
}
