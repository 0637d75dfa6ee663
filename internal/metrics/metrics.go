package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taoyao-code/crsdk-bridge/internal/event"
	"github.com/taoyao-code/crsdk-bridge/internal/relay"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// BridgeMetrics 事件桥指标
type BridgeMetrics struct {
	EventsPushed      *prometheus.CounterVec // labels: kind
	EventsDropped     *prometheus.CounterVec // labels: kind
	EventsPulled      *prometheus.CounterVec // labels: kind
	RelayDepth        *prometheus.GaugeVec   // labels: session
	CallbackPanics    *prometheus.CounterVec // labels: method
	SessionsOpen      prometheus.Gauge
	CamerasDiscovered prometheus.Gauge
	HTTPRequests      *prometheus.CounterVec // labels: method, route, code
}

// NewBridgeMetrics 注册并返回事件桥指标
func NewBridgeMetrics(reg prometheus.Registerer) *BridgeMetrics {
	m := &BridgeMetrics{
		EventsPushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_events_pushed_total",
			Help: "Events pushed into relay channels by SDK callbacks.",
		}, []string{"kind"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_events_dropped_total",
			Help: "Events discarded because the consumer had closed the relay.",
		}, []string{"kind"}),
		EventsPulled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_events_pulled_total",
			Help: "Events delivered to consumers.",
		}, []string{"kind"}),
		RelayDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bridge_relay_depth",
			Help: "Buffered events not yet pulled, per session.",
		}, []string{"session"}),
		CallbackPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_callback_panics_total",
			Help: "Panics recovered inside SDK callback handlers.",
		}, []string{"method"}),
		SessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_sessions_open",
			Help: "Current number of open camera sessions.",
		}),
		CamerasDiscovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bridge_cameras_discovered",
			Help: "Cameras found by the last discovery scan.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(
		m.EventsPushed, m.EventsDropped, m.EventsPulled, m.RelayDepth,
		m.CallbackPanics, m.SessionsOpen, m.CamerasDiscovered, m.HTTPRequests,
	)

	// 预注册所有事件类型，避免首次出现前查询不到序列
	for _, k := range event.Kinds() {
		m.EventsPushed.WithLabelValues(string(k))
		m.EventsDropped.WithLabelValues(string(k))
		m.EventsPulled.WithLabelValues(string(k))
	}
	return m
}

// Observer 返回某个会话通道的观测器
func (m *BridgeMetrics) Observer(sessionID string) relay.Observer {
	return &relayObserver{m: m, depth: m.RelayDepth.WithLabelValues(sessionID)}
}

// CallbackPanic 记录一次回调 panic
func (m *BridgeMetrics) CallbackPanic(method string) {
	m.CallbackPanics.WithLabelValues(method).Inc()
}

// SessionOpened 会话打开
func (m *BridgeMetrics) SessionOpened() {
	m.SessionsOpen.Inc()
}

// SessionClosed 会话关闭，同时删除该会话的深度序列
func (m *BridgeMetrics) SessionClosed(sessionID string) {
	m.SessionsOpen.Dec()
	m.RelayDepth.DeleteLabelValues(sessionID)
}

type relayObserver struct {
	m     *BridgeMetrics
	depth prometheus.Gauge
}

func (o *relayObserver) Pushed(kind event.Kind) {
	o.m.EventsPushed.WithLabelValues(string(kind)).Inc()
}

func (o *relayObserver) Dropped(kind event.Kind) {
	o.m.EventsDropped.WithLabelValues(string(kind)).Inc()
}

func (o *relayObserver) Pulled(kind event.Kind) {
	o.m.EventsPulled.WithLabelValues(string(kind)).Inc()
}

func (o *relayObserver) Depth(n int) { o.depth.Set(float64(n)) }
