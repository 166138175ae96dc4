package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wolf-scheduler/backend/config"
	"wolf-scheduler/backend/internal/cli"
	"wolf-scheduler/backend/internal/repository"
	"wolf-scheduler/backend/internal/service"
	applogger "wolf-scheduler/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	catalogPath := flag.String("catalog", "", "课程目录文件，覆盖 catalog.path")
	verbose := flag.Bool("v", false, "输出 info 级别日志")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if *catalogPath != "" {
		cfg.Catalog.Path = *catalogPath
	}

	// 交互模式下日志默认只输出警告以上，避免打断终端
	logCfg := config.LogConfig{Level: "warn", Format: "console"}
	if *verbose {
		logCfg.Level = "info"
	}
	logger, err := applogger.NewLogger(&logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := repository.NewRepository(logger)
	svc := service.NewService(cfg, repo, logger)
	if _, err := svc.Schedule.LoadCatalog(ctx, cfg.Catalog.Path); err != nil {
		logger.Fatal("课程目录加载失败", zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}

	if err := cli.NewShell(svc, os.Stdout, logger).Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("终端异常退出", zap.Error(err))
		os.Exit(1)
	}
}
