package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"trading-board-go/config"
	"trading-board-go/execution"
	"trading-board-go/infrastructure/logger"
	"trading-board-go/monitor"
	"trading-board-go/relay"
	"trading-board-go/source"
	"trading-board-go/store"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	dryRun := flag.Bool("dryRun", false, "内存存储+桩执行端点，不落库不下真实单")
	watch := flag.Bool("watch", true, "监听配置文件并热更新执行超时")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	appLog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer appLog.Close()

	mon := monitor.New(monitor.DefaultConfig())
	monitor.Serve(cfg.Metrics.Addr, mon)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orderStore, err := buildStore(cfg, *dryRun)
	if err != nil {
		log.Fatalf("初始化存储失败: %v", err)
	}

	var endpoint execution.Endpoint
	if *dryRun {
		endpoint = dryRunEndpoint{}
	} else {
		endpoint = &execution.RESTEndpoint{
			BaseURL:    cfg.Execution.BaseURL,
			APIKey:     cfg.Execution.APIKey,
			HTTPClient: execution.NewDefaultHTTPClient(),
		}
	}
	adapter := execution.NewAdapter(endpoint)

	src, closeSource, err := buildSource(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化订单源失败: %v", err)
	}
	defer closeSource()

	r := relay.New(src, orderStore, adapter, appLog, mon,
		time.Duration(cfg.Execution.TimeoutSeconds)*time.Second)

	if *watch {
		go func() {
			w := config.Watcher{Path: *cfgPath}
			_ = w.Start(ctx, func(newCfg config.AppConfig) {
				r.SetExecutionTimeout(time.Duration(newCfg.Execution.TimeoutSeconds) * time.Second)
				appLog.Info("config reloaded")
			})
		}()
	}

	appLog.Info("order relay started")
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLog.LogError(err, map[string]interface{}{"step": "run"})
	}
	appLog.Info("order relay stopped")
}

func buildStore(cfg config.AppConfig, dryRun bool) (store.OrderStore, error) {
	if dryRun || cfg.Store.Kind == "memory" {
		return store.NewMemoryStore(), nil
	}
	db, err := store.OpenPostgres(cfg.Store.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return store.NewGormStore(db, cfg.Store.CreateTables)
}

func buildSource(ctx context.Context, cfg config.AppConfig) (relay.Source, func(), error) {
	switch cfg.Source.Kind {
	case "redis":
		src, err := source.NewRedisSource(ctx, cfg.Source.RedisURL, cfg.Source.RedisChannel)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	case "websocket":
		src, err := source.NewWSSource(cfg.Source.WSURL)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

// dryRunEndpoint 不触网，直接返回一个假的成交引用。
type dryRunEndpoint struct{}

func (dryRunEndpoint) CreateOpenPosition(_ context.Context, params execution.PositionParams) (map[string]interface{}, error) {
	return map[string]interface{}{
		"dealReference": fmt.Sprintf("DRY-%s-%d", params.Epic, time.Now().UnixNano()),
	}, nil
}
