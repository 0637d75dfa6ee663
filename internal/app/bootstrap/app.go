package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/taoyao-code/crsdk-bridge/internal/app"
	cfgpkg "github.com/taoyao-code/crsdk-bridge/internal/config"
	"github.com/taoyao-code/crsdk-bridge/internal/health"
	"github.com/taoyao-code/crsdk-bridge/internal/httpserver"
	"github.com/taoyao-code/crsdk-bridge/internal/metrics"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk"
	"go.uber.org/zap"
)

// Run 统一启动流程：SDK 就绪并完成相机发现后再建立会话
func Run(cfg *cfgpkg.Config, log *zap.Logger) error {
	log.Info("starting camera event bridge", zap.String("driver", cfg.SDK.Driver))
	serverID := app.GenerateServerID(cfg.App.ServerID)

	// ========== 阶段1: 初始化基础组件 ==========
	reg, bm := app.NewMetrics()
	metricsHandler := metrics.Handler(reg)
	ready := health.New()
	codes := app.LoadCodeTable(cfg.SDK.WarningTablePath, log)

	// ========== 阶段2: 初始化 SDK（失败直接返回）==========
	driver, err := app.NewDriver(cfg, log)
	if err != nil {
		return err
	}
	if err := driver.Init(); err != nil {
		log.Error("sdk initialization failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := driver.Release(); err != nil {
			log.Warn("sdk release failed", zap.Error(err))
		}
	}()
	ready.SetSDKReady(true)
	log.Info("sdk ready", zap.String("version", sdk.VersionString(driver.Version())))

	// ========== 阶段3: 会话目录（Redis 可选）==========
	redisClient, err := app.NewRedisClient(context.Background(), cfg.Redis, log)
	if err != nil {
		log.Error("redis initialization failed", zap.Error(err))
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	dir := app.NewSessionDirectory(context.Background(), redisClient, serverID, cfg.Redis, log)
	mgr := app.NewSessionManager(driver, cfg, bm, dir, log)

	// ========== 阶段4: 启动HTTP服务（非阻塞）==========
	healthAgg := app.NewHealthAggregator(driver, mgr, cfg.Relay.HighWater)
	healthAgg.SetStartup(ready.Ready)
	app.AddRedisChecker(healthAgg, redisClient, dir)

	httpSrv := app.NewHTTPServer(cfg, httpserver.Options{
		MetricsHandler: metricsHandler,
		ReadyFn:        ready.Ready,
		Health:         healthAgg,
		Sessions:       mgr,
		Metrics:        bm,
		Logger:         log,
	})
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
		}
	}()
	log.Info("http server started", zap.String("addr", cfg.HTTP.Addr), zap.String("server_id", serverID))

	// ========== 阶段5: 相机发现与会话建立 ==========
	discoverCtx, cancelDiscover := context.WithTimeout(context.Background(),
		time.Duration(cfg.SDK.DiscoveryTimeoutSec)*time.Second+5*time.Second)
	cams, err := app.DiscoverCameras(discoverCtx, driver, cfg.SDK.DiscoveryTimeoutSec, bm, log)
	cancelDiscover()
	if err != nil {
		log.Error("camera discovery failed", zap.Error(err))
	}
	ready.SetDiscoveryReady(true)
	if len(cams) == 0 {
		log.Warn("no cameras found")
	}

	sessions := app.OpenSessions(context.Background(), mgr, cams, cfg.Session.Events, log)

	// 消费者在会话关闭后取完缓冲事件再退出，不依赖 ctx 取消
	var consumers sync.WaitGroup
	for _, s := range sessions {
		s := s // per-iteration copy (go 1.21 loop semantics)
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			if err := app.Consume(context.Background(), s, codes, log); err != nil {
				log.Warn("event consumer stopped", zap.String("session_id", s.ID), zap.Error(err))
			}
		}()
	}

	refreshCtx, cancelRefresh := context.WithCancel(context.Background())
	defer cancelRefresh()
	go mgr.RunDirectoryRefresh(refreshCtx, cfg.Redis.RefreshInterval)

	log.Info("all services ready", zap.Int("sessions", len(sessions)))

	// ========== 阶段6: 等待关闭信号 ==========
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("received shutdown signal, gracefully shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctx)
	log.Info("http server stopped")

	cancelRefresh()
	if err := mgr.CloseAll(); err != nil {
		log.Warn("session teardown reported errors", zap.Error(err))
	}
	log.Info("sessions closed")

	drained := make(chan struct{})
	go func() {
		consumers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		log.Warn("event consumers did not drain before shutdown deadline")
	}

	log.Info("shutdown complete")
	return nil
}
