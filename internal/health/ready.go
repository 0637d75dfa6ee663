package health

import "sync/atomic"

// Readiness 就绪状态聚合（SDK、相机发现）
type Readiness struct {
	sdkReady       atomic.Bool
	discoveryReady atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetSDKReady(v bool)       { r.sdkReady.Store(v) }
func (r *Readiness) SetDiscoveryReady(v bool) { r.discoveryReady.Store(v) }

// Ready 总体就绪：各子系统均为 true
func (r *Readiness) Ready() bool {
	return r.sdkReady.Load() && r.discoveryReady.Load()
}
