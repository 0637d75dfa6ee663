package app

import (
	cfgpkg "github.com/taoyao-code/crsdk-bridge/internal/config"
	"github.com/taoyao-code/crsdk-bridge/internal/httpserver"
)

// NewHTTPServer 根据配置创建 HTTP 服务器；未启用指标时不暴露指标路由
func NewHTTPServer(cfg *cfgpkg.Config, opts httpserver.Options) *httpserver.Server {
	if !cfg.Metrics.Enable {
		opts.MetricsHandler = nil
	}
	opts.MetricsPath = cfg.Metrics.Path
	return httpserver.New(cfg.HTTP, opts)
}
