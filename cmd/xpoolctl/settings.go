package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xthreadpool/pkg/config/xconf"
	"github.com/omeyang/xthreadpool/pkg/observability/xlog"
	"github.com/omeyang/xthreadpool/pkg/util/xpool"
)

var errInvalidFlag = errors.New("xpoolctl: invalid flag")

// settings 是配置文件与命令行合并后的结果。
type settings struct {
	Pool poolSettings `koanf:"pool"`
	Log  logSettings  `koanf:"log"`
}

type poolSettings struct {
	Workers      int    `koanf:"workers"`
	Name         string `koanf:"name"`
	MaxPending   int    `koanf:"max_pending"`
	LockOSThread bool   `koanf:"lock_os_thread"`
}

type logSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

func defaultSettings() settings {
	return settings{
		Pool: poolSettings{Workers: runtime.NumCPU()},
		Log:  logSettings{Level: "info", Format: "text"},
	}
}

// env 是一次命令执行所需的公共依赖。
type env struct {
	settings settings
	config   *xconf.Config
	logger   *xlog.Logger
	cleanup  func() error
}

// loadEnv 依次应用默认值、配置文件、命令行参数，并构建日志器。
func loadEnv(cmd *cli.Command) (*env, error) {
	s := defaultSettings()

	var cfg *xconf.Config
	if path := cmd.String("config"); path != "" {
		var err error
		cfg, err = xconf.Load(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Unmarshal("", &s); err != nil {
			return nil, err
		}
	}
	applyFlags(cmd, &s)

	logger, cleanup, err := buildLogger(s.Log)
	if err != nil {
		return nil, err
	}
	return &env{settings: s, config: cfg, logger: logger, cleanup: cleanup}, nil
}

func applyFlags(cmd *cli.Command, s *settings) {
	if cmd.IsSet("log-level") {
		s.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		s.Log.Format = cmd.String("log-format")
	}
	if cmd.IsSet("log-file") {
		s.Log.File = cmd.String("log-file")
	}
	if cmd.IsSet("workers") {
		s.Pool.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("name") {
		s.Pool.Name = cmd.String("name")
	}
	if cmd.IsSet("max-pending") {
		s.Pool.MaxPending = cmd.Int("max-pending")
	}
	if cmd.IsSet("lock-os-thread") {
		s.Pool.LockOSThread = cmd.Bool("lock-os-thread")
	}
}

func buildLogger(s logSettings) (*xlog.Logger, func() error, error) {
	b := xlog.New().SetLevelString(s.Level).SetFormat(s.Format)
	if s.File != "" {
		b = b.SetRotation(s.File)
	}
	return b.Build()
}

func (e *env) close() {
	if err := e.cleanup(); err != nil {
		e.logger.Warn("xpoolctl: close log file failed", xlog.Err(err))
	}
}

// newPool 按 settings 创建 pool，extra 追加在配置项之后。
func (e *env) newPool(extra ...xpool.Option) (*xpool.Pool, error) {
	opts := []xpool.Option{
		xpool.WithLogger(e.logger.Logger),
		xpool.WithMaxPending(e.settings.Pool.MaxPending),
		xpool.WithPanicHandler(func(r any, _ []byte) {
			e.logger.Warn("xpoolctl: task panicked", slog.Any("panic", r))
		}),
	}
	if e.settings.Pool.Name != "" {
		opts = append(opts, xpool.WithName(e.settings.Pool.Name))
	}
	if e.settings.Pool.LockOSThread {
		opts = append(opts, xpool.WithLockOSThread())
	}
	opts = append(opts, extra...)

	pool, err := xpool.New(e.settings.Pool.Workers, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	e.logger.Info("xpoolctl: pool created",
		slog.String("pool", pool.Name()),
		slog.Int("workers", pool.Workers()),
	)
	return pool, nil
}

// onConfigChange 返回配置热更新回调：只应用日志级别。
func (e *env) onConfigChange() xconf.WatchCallback {
	return func(cfg *xconf.Config, err error) {
		if err != nil {
			e.logger.Warn("xpoolctl: config reload failed", xlog.Err(err))
			return
		}
		level := cfg.Client().String("log.level")
		if level == "" {
			return
		}
		if err := e.logger.SetLevelString(level); err != nil {
			e.logger.Warn("xpoolctl: invalid log level in config", xlog.Err(err))
			return
		}
		e.logger.Info("xpoolctl: log level reloaded", slog.String("level", e.logger.GetLevel().String()))
	}
}

// watchConfig 返回监视配置文件的服务；未使用配置文件时阻塞到 ctx 取消。
func (e *env) watchConfig() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if e.config == nil {
			e.logger.Warn("xpoolctl: --watch ignored without --config")
			<-ctx.Done()
			return nil
		}
		return e.config.Watch(ctx, e.onConfigChange())
	}
}
