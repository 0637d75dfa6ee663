package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/taoyao-code/crsdk-bridge/internal/metrics"
)

// NewMetrics 初始化注册表与事件桥指标
func NewMetrics() (*prometheus.Registry, *metrics.BridgeMetrics) {
	reg := metrics.NewRegistry()
	bm := metrics.NewBridgeMetrics(reg)
	return reg, bm
}
