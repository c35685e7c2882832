package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/catalog"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/errcode"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/policy"
	"github.com/lk2023060901/xdooria-pet/pkg/app"
	"github.com/lk2023060901/xdooria-pet/pkg/config"
	"github.com/lk2023060901/xdooria-pet/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-pet/pkg/database/redis"
	"github.com/lk2023060901/xdooria-pet/pkg/idgen"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
	"github.com/lk2023060901/xdooria-pet/pkg/mq/kafka"
)

// 退出码
const (
	exitOK       = 0
	exitRejected = 1 // 业务拒绝
	exitFailed   = 2 // 参数、配置或基础设施错误
)

// CacheConfig 持有记录缓存
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// EventsConfig 事件发布
type EventsConfig struct {
	Topic string `mapstructure:"topic"`
}

// Config petctl 的完整配置结构
type Config struct {
	Log logger.Config `mapstructure:"log"`

	// 生物配置表
	Catalog catalog.Config `mapstructure:"catalog"`

	// 数值配置，缺省项使用 policy.DefaultConfig
	Policy *policy.Config `mapstructure:"policy"`

	// Database 配置
	Database postgres.Config `mapstructure:"database"`

	// Redis 配置，未配置时不使用缓存
	Redis *redis.Config `mapstructure:"redis"`
	Cache CacheConfig   `mapstructure:"cache"`

	// Kafka 配置，未配置时不发布事件
	Kafka  *kafka.Config `mapstructure:"kafka"`
	Events EventsConfig  `mapstructure:"events"`

	// ID 生成
	IDGen idgen.Config `mapstructure:"idgen"`

	// 指标配置
	Metrics metrics.Config `mapstructure:"metrics"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet(app.AppName, pflag.ContinueOnError)
	flags := app.BindConfigFlags(fs)
	userID := fs.Int64P("user", "u", 0, "user id the command acts on")
	timeout := fs.Duration("timeout", 30*time.Second, "command timeout")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return exitFailed
	}
	if fs.NArg() == 0 {
		usage(fs)
		return exitFailed
	}

	name, cmdArgs := fs.Arg(0), fs.Args()[1:]
	if name == "version" {
		fmt.Println(app.GetInfo().String())
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage(fs)
		return exitFailed
	}
	if err := cmd.check(cmdArgs, *userID); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\nusage: %s %s\n", name, err, app.AppName, cmd.usage)
		return exitFailed
	}

	// 1. 加载配置
	var cfg Config
	if err := flags.Load(&cfg, config.WithDefaults(map[string]any{"policy": policy.Defaults()})); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailed
	}
	if err := config.NewValidator().Validate(&cfg.Catalog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailed
	}

	// 2. 初始化主日志
	l, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailed
	}
	defer func() { _ = l.Sync() }()

	// 3. 通过 Wire 初始化
	cli, cleanup, err := InitCLI(&cfg, l)
	if err != nil {
		l.Error("failed to initialize petctl", "error", err)
		return exitFailed
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	// 4. 执行命令
	result, err := cmd.run(ctx, cli, *userID, cmdArgs)
	if pushErr := cli.Metrics.Push(); pushErr != nil {
		l.Warn("failed to push metrics", "error", pushErr)
	}
	return report(os.Stdout, l, name, result, err)
}

// report 输出 JSON 结果，业务错误同样以 JSON 输出
func report(w io.Writer, l logger.Logger, name string, result any, err error) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err != nil {
		if e, ok := errcode.As(err); ok {
			_ = enc.Encode(map[string]any{"error": e})
			return exitRejected
		}
		l.Error("command failed", "command", name, "error", err)
		return exitFailed
	}

	if err := enc.Encode(result); err != nil {
		l.Error("failed to encode result", "command", name, "error", err)
		return exitFailed
	}
	return exitOK
}
