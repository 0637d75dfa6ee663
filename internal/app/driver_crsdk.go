//go:build crsdk

package app

import (
	"fmt"

	cfgpkg "github.com/taoyao-code/crsdk-bridge/internal/config"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk/crsdk"
	"go.uber.org/zap"
)

// NewDriver 按配置创建驱动
func NewDriver(cfg *cfgpkg.Config, logger *zap.Logger) (Driver, error) {
	switch cfg.SDK.Driver {
	case "sim":
		return newSimulator(cfg.Simulator, logger), nil
	case "crsdk":
		return crsdk.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown sdk driver %q", cfg.SDK.Driver)
	}
}
