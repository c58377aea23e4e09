package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xthreadpool/pkg/lifecycle/xrun"
	"github.com/omeyang/xthreadpool/pkg/observability/xlog"
	"github.com/omeyang/xthreadpool/pkg/observability/xmetrics"
	"github.com/omeyang/xthreadpool/pkg/util/xid"
	"github.com/omeyang/xthreadpool/pkg/util/xpool"
	"github.com/omeyang/xthreadpool/pkg/util/xtask"
)

const (
	defaultTasks        = 1000
	defaultDrainTimeout = 30 * time.Second
	defaultStatsEvery   = 10 * time.Second
)

// poolFlags 是各子命令共用的 pool 参数，未设置时取配置文件或默认值。
func poolFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "worker 数量（默认 CPU 核数）",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "pool 名称",
		},
		&cli.IntFlag{
			Name:  "max-pending",
			Usage: "队列容量上限，0 表示不限",
		},
		&cli.BoolFlag{
			Name:  "lock-os-thread",
			Usage: "每个 worker 独占一个 OS 线程",
		},
	}
}

func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "提交一批任务并等待完成",
		Flags: append(poolFlags(),
			&cli.IntFlag{
				Name:    "tasks",
				Aliases: []string{"n"},
				Usage:   "任务数量",
				Value:   defaultTasks,
			},
			&cli.DurationFlag{
				Name:  "sleep",
				Usage: "每个任务的模拟耗时",
			},
			&cli.IntFlag{
				Name:  "keys",
				Usage: "任务按序号分到 N 个 key，同一 key 互斥执行，0 表示不分组",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "结束时打印 OpenTelemetry 指标",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			return cmdRun(ctx, e, cmd.Root().Writer, runOptions{
				tasks:   cmd.Int("tasks"),
				sleep:   cmd.Duration("sleep"),
				keys:    cmd.Int("keys"),
				metrics: cmd.Bool("metrics"),
			})
		},
	}
}

type runOptions struct {
	tasks   int
	sleep   time.Duration
	keys    int
	metrics bool
}

func cmdRun(ctx context.Context, e *env, w io.Writer, o runOptions) error {
	if o.tasks < 0 {
		return fmt.Errorf("%w: --tasks %d", errInvalidFlag, o.tasks)
	}
	if o.keys < 0 {
		return fmt.Errorf("%w: --keys %d", errInvalidFlag, o.keys)
	}

	var extra []xpool.Option
	var reader *sdkmetric.ManualReader
	if o.metrics {
		reader = sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.WithoutCancel(ctx)) }()

		obs, err := xmetrics.NewOTelObserver(xmetrics.WithMeterProvider(mp))
		if err != nil {
			return err
		}
		extra = append(extra, xpool.WithObserver(obs))
	}

	pool, err := e.newPool(extra...)
	if err != nil {
		return err
	}

	work := func() {
		if o.sleep > 0 {
			time.Sleep(o.sleep)
		}
	}
	var keyed *xtask.Keyed
	if o.keys > 0 {
		if keyed, err = xtask.NewKeyed(0); err != nil {
			_ = pool.Close()
			return err
		}
	}

	start := time.Now()
	var submitErr error
	for i := range o.tasks {
		if submitErr = ctx.Err(); submitErr != nil {
			break
		}
		task := xpool.Task(work)
		if keyed != nil {
			task = keyed.Task(strconv.Itoa(i%o.keys), work)
		}
		if submitErr = pool.Submit(task); submitErr != nil {
			break
		}
	}
	if err := pool.Close(); err != nil {
		return err
	}
	printStats(w, pool, time.Since(start))

	if reader != nil {
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(context.WithoutCancel(ctx), &rm); err != nil {
			return fmt.Errorf("collect metrics: %w", err)
		}
		printMetrics(w, rm)
	}
	return submitErr
}

// submitN 提交 n 个相同任务，ctx 取消时停止提交并返回 ctx 的错误。
func submitN(ctx context.Context, pool *xpool.Pool, n int, task xpool.Task) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := pool.Submit(task); err != nil {
			return err
		}
	}
	return nil
}

func createBenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "多生产者并发提交，测量吞吐",
		Flags: append(poolFlags(),
			&cli.IntFlag{
				Name:    "tasks",
				Aliases: []string{"n"},
				Usage:   "任务总数",
				Value:   100000,
			},
			&cli.IntFlag{
				Name:    "producers",
				Aliases: []string{"p"},
				Usage:   "并发提交的 goroutine 数",
				Value:   4,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			return cmdBench(ctx, e, cmd.Root().Writer, cmd.Int("tasks"), cmd.Int("producers"))
		},
	}
}

func cmdBench(ctx context.Context, e *env, w io.Writer, tasks, producers int) error {
	if tasks < 0 {
		return fmt.Errorf("%w: --tasks %d", errInvalidFlag, tasks)
	}
	if producers < 1 {
		return fmt.Errorf("%w: --producers %d", errInvalidFlag, producers)
	}

	pool, err := e.newPool()
	if err != nil {
		return err
	}

	var executed atomic.Int64
	task := func() { executed.Add(1) }

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := range producers {
		share := tasks / producers
		if i < tasks%producers {
			share++
		}
		g.Go(func() error { return submitN(gctx, pool, share, task) })
	}
	submitErr := g.Wait()
	submitted := time.Since(start)

	if err := pool.Close(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Fprintf(w, "producers=%d submit=%s total=%s executed=%d throughput=%.0f tasks/s\n",
		producers, submitted.Round(time.Microsecond), elapsed.Round(time.Microsecond),
		executed.Load(), float64(executed.Load())/elapsed.Seconds())
	return submitErr
}

func createScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "按 cron 表达式周期提交任务，收到信号后排空退出",
		Flags: append(poolFlags(),
			&cli.StringFlag{
				Name:  "spec",
				Usage: "cron 表达式，如 \"@every 1s\" 或 \"*/5 * * * *\"",
				Value: "@every 1s",
			},
			&cli.IntFlag{
				Name:  "batch",
				Usage: "每次触发提交的任务数",
				Value: 1,
			},
			&cli.DurationFlag{
				Name:  "sleep",
				Usage: "每个任务的模拟耗时",
			},
			&cli.IntFlag{
				Name:  "fail-every",
				Usage: "每 N 次执行模拟一次失败，0 表示不失败",
			},
			&cli.DurationFlag{
				Name:  "stats-every",
				Usage: "统计日志间隔",
				Value: defaultStatsEvery,
			},
			&cli.DurationFlag{
				Name:  "drain-timeout",
				Usage: "收到信号后等待排空的最长时间",
				Value: defaultDrainTimeout,
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "监视配置文件，热更新 log.level",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			return cmdSchedule(ctx, e, scheduleOptions{
				spec:         cmd.String("spec"),
				batch:        cmd.Int("batch"),
				sleep:        cmd.Duration("sleep"),
				failEvery:    cmd.Int("fail-every"),
				statsEvery:   cmd.Duration("stats-every"),
				drainTimeout: cmd.Duration("drain-timeout"),
				watch:        cmd.Bool("watch"),
			})
		},
	}
}

type scheduleOptions struct {
	spec         string
	// schedule 非 nil 时取代 spec
	schedule     cron.Schedule
	batch        int
	sleep        time.Duration
	failEvery    int
	statsEvery   time.Duration
	drainTimeout time.Duration
	watch        bool
	runOpts      []xrun.Option
}

var errSimulated = errors.New("simulated failure")

func cmdSchedule(ctx context.Context, e *env, o scheduleOptions) error {
	if o.batch < 1 {
		return fmt.Errorf("%w: --batch %d", errInvalidFlag, o.batch)
	}

	pool, err := e.newPool()
	if err != nil {
		return err
	}

	br := xtask.NewBreaker(pool.Name(), xtask.WithBreakerLogger(e.logger.Logger))
	var runs atomic.Int64
	job := br.Guard(func(context.Context) error {
		n := runs.Add(1)
		if o.sleep > 0 {
			time.Sleep(o.sleep)
		}
		if o.failEvery > 0 && n%int64(o.failEvery) == 0 {
			return errSimulated
		}
		return nil
	})

	ids, err := xid.NewGenerator()
	if err != nil {
		_ = pool.Close()
		return err
	}

	// 已入队的任务在排空期间仍需完成，不随 ctx 取消
	taskCtx := context.WithoutCancel(ctx)
	c := cron.New()
	fire := func() {
		batch, err := ids.NextString()
		if err != nil {
			e.logger.Warn("xpoolctl: batch id unavailable", xlog.Err(err))
			return
		}
		logger := e.logger.With(slog.String("batch", batch))
		for range o.batch {
			task := xtask.Retry(taskCtx, job,
				xtask.WithAttempts(3),
				xtask.WithRetryIf(func(err error) bool { return !xtask.IsRejected(err) }),
				xtask.WithOnFailure(func(err error) {
					logger.Warn("xpoolctl: scheduled task failed", xlog.Err(err))
				}),
			)
			if err := pool.Submit(task); err != nil {
				logger.Debug("xpoolctl: scheduled task skipped", xlog.Err(err))
				return
			}
		}
		logger.Debug("xpoolctl: batch submitted", slog.Int("tasks", o.batch))
	}
	if o.schedule != nil {
		c.Schedule(o.schedule, cron.FuncJob(fire))
	} else if _, err := c.AddFunc(o.spec, fire); err != nil {
		_ = pool.Close()
		return fmt.Errorf("%w: --spec %q: %w", errInvalidFlag, o.spec, err)
	}

	services := []func(context.Context) error{
		// 先停止调度，再排空 pool，避免排空期间继续提交
		func(ctx context.Context) error {
			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			return xrun.Drain(pool, o.drainTimeout)(ctx)
		},
		xrun.Ticker(o.statsEvery, false, func(context.Context) error {
			logStats(e.logger, pool, br)
			return nil
		}),
	}
	if o.watch {
		services = append(services, e.watchConfig())
	}

	runOpts := append([]xrun.Option{xrun.WithLogger(e.logger.Logger), xrun.WithName("xpoolctl")}, o.runOpts...)
	err = xrun.Run(ctx, runOpts, services...)
	logStats(e.logger, pool, br)
	return err
}

func logStats(logger *xlog.Logger, pool *xpool.Pool, br *xtask.Breaker) {
	s := pool.Stats()
	logger.Info("xpoolctl: pool stats",
		slog.String("pool", pool.Name()),
		slog.Int("pending", s.Pending),
		slog.Int("busy", s.Busy),
		slog.Int64("submitted", s.Submitted),
		slog.Int64("completed", s.Completed),
		slog.Int64("panicked", s.Panicked),
		slog.String("breaker", br.State().String()),
	)
}

func printStats(w io.Writer, pool *xpool.Pool, elapsed time.Duration) {
	s := pool.Stats()
	fmt.Fprintf(w, "pool=%s workers=%d submitted=%d completed=%d panicked=%d elapsed=%s\n",
		pool.Name(), s.Workers, s.Submitted, s.Completed, s.Panicked, elapsed.Round(time.Microsecond))
}

// printMetrics 打印计数类指标，每个数据点一行，按名称与属性排序。
func printMetrics(w io.Writer, rm metricdata.ResourceMetrics) {
	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s{%s} %d", m.Name, dp.Attributes.Encoded(attribute.DefaultEncoder()), dp.Value))
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s_count{%s} %d", m.Name, dp.Attributes.Encoded(attribute.DefaultEncoder()), dp.Count))
				}
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
