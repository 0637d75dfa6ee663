package app

import (
	cfgpkg "github.com/taoyao-code/crsdk-bridge/internal/config"
	"github.com/taoyao-code/crsdk-bridge/internal/health"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk/simulator"
	"go.uber.org/zap"
)

// Driver 启动流程使用的 SDK 驱动：相机操作 + 初始化状态
type Driver interface {
	sdk.Driver
	health.SDKState
}

func newSimulator(cfg cfgpkg.SimulatorConfig, logger *zap.Logger) *simulator.Driver {
	return simulator.New(simulator.Options{
		Cameras:       cfg.Cameras,
		EventInterval: cfg.EventInterval,
		Logger:        logger,
	})
}
