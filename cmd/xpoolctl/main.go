// xpoolctl 是 xpool 的演示与压测命令行工具。
//
// 用法:
//
//	xpoolctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件（YAML/JSON），键见下文
//	    --log-level   日志级别 (debug/info/warn/error，默认 info)
//	    --log-format  日志格式 (text/json，默认 text)
//	    --log-file    日志文件，设置后按大小轮转
//
// 命令:
//
//	run        提交一批任务并等待完成，打印统计
//	bench      多个生产者并发提交，测量吞吐
//	schedule   按 cron 表达式周期提交任务，直到收到信号后排空退出
//
// 配置文件键:
//
//	pool.workers  pool.name  pool.max_pending  pool.lock_os_thread
//	log.level     log.format log.file
//
// 命令行参数优先于配置文件。schedule --watch 时，修改配置文件中的
// log.level 会立即生效；pool 大小固定，不随配置变化。
//
// 退出码:
//
//	0: 成功（schedule 收到 SIGINT/SIGTERM 后正常排空也视为成功）
//	1: 失败
//
// 示例:
//
//	xpoolctl run --workers 4 --tasks 1000 --sleep 1ms
//	xpoolctl bench --workers 8 --tasks 1000000 --producers 16
//	xpoolctl -c pool.yaml schedule --spec "@every 1s" --watch
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xthreadpool/pkg/lifecycle/xrun"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xpoolctl",
		Usage:   "xpool 演示与压测工具",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（YAML/JSON）",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径，为空时输出到 stderr",
			},
		},
		Commands: []*cli.Command{
			createRunCommand(),
			createBenchCommand(),
			createScheduleCommand(),
		},
		// 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	if err := createApp().Run(ctx, os.Args); err != nil {
		var sigErr *xrun.SignalError
		if errors.As(err, &sigErr) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// setupSignalHandler 第一次信号取消 ctx，第二次信号强制退出（130 = 128 + SIGINT）。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
