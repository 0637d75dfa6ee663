package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/crsdk-bridge/internal/config"
	"github.com/taoyao-code/crsdk-bridge/internal/health"
	"github.com/taoyao-code/crsdk-bridge/internal/metrics"
	"github.com/taoyao-code/crsdk-bridge/internal/session"
)

// Sessions HTTP 层依赖的会话操作
type Sessions interface {
	List() []session.Info
	Get(id string) (*session.Session, bool)
	Close(id string) error
	Directory() session.Directory
}

// Options 可选组件，未设置的组件不注册对应路由
type Options struct {
	MetricsPath    string
	MetricsHandler http.Handler
	ReadyFn        func() bool
	Health         *health.Aggregator
	Sessions       Sessions
	Metrics        *metrics.BridgeMetrics
	Logger         *zap.Logger
}

// Server HTTP 服务封装
type Server struct {
	srv *http.Server
}

// New 创建并配置 Gin + HTTP Server，注册健康检查、指标与会话路由
func New(cfg cfgpkg.HTTPConfig, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Metrics != nil {
		r.Use(requestMetrics(opts.Metrics))
	}
	r.Use(RateLimit(cfg.RateLimit))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if opts.ReadyFn == nil || opts.ReadyFn() {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})

	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if opts.MetricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(opts.MetricsHandler))
	}
	if opts.Health != nil {
		health.RegisterHTTPRoutes(r, opts.Health)
	}
	if opts.Sessions != nil {
		registerSessionRoutes(r, opts.Sessions, APIKeyAuth(cfg.Auth, logger), logger)
	}
	if cfg.Pprof.Enable {
		registerPprof(r, cfg.Pprof.Prefix)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{srv: srv}
}

// Handler 返回路由处理器（测试使用）
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func registerSessionRoutes(r *gin.Engine, sessions Sessions, auth gin.HandlerFunc, logger *zap.Logger) {
	g := r.Group("/sessions", auth)

	// 本实例会话
	g.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": sessions.List()})
	})

	// 全部实例会话（需配置会话目录）
	g.GET("/cluster", func(c *gin.Context) {
		dir := sessions.Directory()
		if dir == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session directory disabled"})
			return
		}
		infos, err := dir.List(c.Request.Context())
		if err != nil {
			logger.Warn("list session directory failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": infos})
	})

	g.GET("/:id", func(c *gin.Context) {
		s, ok := sessions.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": session.ErrNotFound.Error()})
			return
		}
		c.JSON(http.StatusOK, s.Info())
	})

	g.DELETE("/:id", func(c *gin.Context) {
		id := c.Param("id")
		err := sessions.Close(id)
		switch {
		case errors.Is(err, session.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case err != nil:
			// 会话已从管理器移除，拆除错误仅作记录
			logger.Warn("session teardown reported errors", zap.String("session_id", id), zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"id": id, "closed": true, "error": err.Error()})
		default:
			c.JSON(http.StatusOK, gin.H{"id": id, "closed": true})
		}
	})
}

func requestMetrics(m *metrics.BridgeMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func registerPprof(r *gin.Engine, prefix string) {
	if prefix == "" {
		prefix = "/debug/pprof"
	}
	prefix = "/" + strings.Trim(prefix, "/")
	g := r.Group(prefix)
	g.GET("/", gin.WrapF(pprof.Index))
	g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	g.GET("/profile", gin.WrapF(pprof.Profile))
	g.POST("/symbol", gin.WrapF(pprof.Symbol))
	g.GET("/symbol", gin.WrapF(pprof.Symbol))
	g.GET("/trace", gin.WrapF(pprof.Trace))
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		g.GET("/"+name, gin.WrapH(pprof.Handler(name)))
	}
}
