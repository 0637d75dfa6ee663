package app

import (
	"context"

	cfgpkg "github.com/taoyao-code/crsdk-bridge/internal/config"
	"github.com/taoyao-code/crsdk-bridge/internal/metrics"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk"
	"github.com/taoyao-code/crsdk-bridge/internal/session"
	"go.uber.org/zap"
)

// NewSessionManager 创建会话管理器
func NewSessionManager(driver sdk.Driver, cfg *cfgpkg.Config, bm *metrics.BridgeMetrics, dir session.Directory, logger *zap.Logger) *session.Manager {
	opts := session.Options{
		Logger:       logger,
		Directory:    dir,
		HighWater:    cfg.Relay.HighWater,
		WarnInterval: cfg.Relay.WarnInterval,
	}
	// 避免 nil 指针被包装成非 nil 接口
	if bm != nil {
		opts.Metrics = bm
	}
	return session.NewManager(driver, opts)
}

// DiscoverCameras 扫描相机并更新指标
func DiscoverCameras(ctx context.Context, driver sdk.Driver, timeoutSec uint8, bm *metrics.BridgeMetrics, logger *zap.Logger) ([]sdk.Camera, error) {
	cams, err := sdk.Discover(ctx, driver, timeoutSec)
	if err != nil {
		return nil, err
	}
	if bm != nil {
		bm.CamerasDiscovered.Set(float64(len(cams)))
	}
	for i, cam := range cams {
		logger.Info("camera discovered",
			zap.Int("index", i),
			zap.String("camera", cam.String()),
			zap.String("name", cam.Name))
	}
	return cams, nil
}

// OpenSessions 为每台相机建立会话，单台失败只记录日志
func OpenSessions(ctx context.Context, mgr *session.Manager, cams []sdk.Camera, withEvents bool, logger *zap.Logger) []*session.Session {
	var opened []*session.Session
	for _, cam := range cams {
		s, err := mgr.Open(ctx, cam, withEvents)
		if err != nil {
			logger.Warn("open camera session failed",
				zap.String("camera", cam.String()),
				zap.Error(err))
			continue
		}
		opened = append(opened, s)
	}
	return opened
}
