//go:build !crsdk

package app

import (
	"fmt"

	cfgpkg "github.com/taoyao-code/crsdk-bridge/internal/config"
	"go.uber.org/zap"
)

// NewDriver 按配置创建驱动。未使用 -tags crsdk 构建时只提供模拟器。
func NewDriver(cfg *cfgpkg.Config, logger *zap.Logger) (Driver, error) {
	switch cfg.SDK.Driver {
	case "sim":
		return newSimulator(cfg.Simulator, logger), nil
	default:
		return nil, fmt.Errorf("sdk driver %q not available: rebuild with -tags crsdk", cfg.SDK.Driver)
	}
}
