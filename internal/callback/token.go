package callback

import (
	"sync"

	"go.uber.org/zap"
)

// Token 上下文令牌：回调注册表中的查找键，跨 cgo 边界时以整数形式传递。
//
// 零值表示未绑定通道，SDK 侧收到零令牌时不回调 Go。
// 令牌不拥有回调对象：Release 只删除映射，不关闭任何通道。
type Token uintptr

// Registry 令牌 -> 回调 的注册表
type Registry struct {
	mu   sync.RWMutex
	next Token
	m    map[Token]DeviceCallback
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{m: make(map[Token]DeviceCallback)}
}

var defaultRegistry = NewRegistry()

// Register 在全局注册表中登记回调并返回令牌。cb 为 nil 时返回零令牌。
func Register(cb DeviceCallback) Token {
	return defaultRegistry.Register(cb)
}

// Register 登记回调并返回令牌，令牌从1开始递增且不复用
func (r *Registry) Register(cb DeviceCallback) Token {
	if cb == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.m[r.next] = cb
	return r.next
}

// Lookup 查找令牌对应的回调
func (r *Registry) Lookup(t Token) (DeviceCallback, bool) {
	if t == 0 {
		return nil, false
	}
	r.mu.RLock()
	cb, ok := r.m[t]
	r.mu.RUnlock()
	return cb, ok
}

// Release 删除令牌映射，可重复调用
func (r *Registry) Release(t Token) {
	if t == 0 {
		return
	}
	r.mu.Lock()
	delete(r.m, t)
	r.mu.Unlock()
}

// Len 当前登记的令牌数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}

// Dispatch 查找回调并执行 fn；令牌为零或已释放时为空操作。
// fn 中的 panic 被截获，保证不会穿越调用方（SDK 线程）。
func (r *Registry) Dispatch(t Token, fn func(DeviceCallback)) {
	cb, ok := r.Lookup(t)
	if !ok {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("device callback panic recovered",
				zap.Uint64("token", uint64(t)),
				zap.Any("panic", p))
		}
	}()
	fn(cb)
}

// IsZero 是否为零令牌
func (t Token) IsZero() bool { return t == 0 }

// Lookup 在全局注册表中查找
func (t Token) Lookup() (DeviceCallback, bool) {
	return defaultRegistry.Lookup(t)
}

// Dispatch 在全局注册表中分发
func (t Token) Dispatch(fn func(DeviceCallback)) {
	defaultRegistry.Dispatch(t, fn)
}

// Release 从全局注册表中删除令牌。
//
// 调用方必须保证 SDK 已完成断开（不再有进行中的回调）后再释放，
// 否则释放后到达的回调会被当作零令牌静默丢弃。
func (t Token) Release() {
	defaultRegistry.Release(t)
}
