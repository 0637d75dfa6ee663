package sdk

import "sync"

// Owned 持有一个需要释放的 SDK 对象，Close 保证 Release 恰好调用一次。
// 可被多个 goroutine 并发 Close。
type Owned[T Releaser] struct {
	mu       sync.Mutex
	v        T
	released bool
}

// NewOwned 接管 v 的所有权
func NewOwned[T Releaser](v T) *Owned[T] {
	return &Owned[T]{v: v}
}

// Get 返回被持有的对象；已释放时 ok 为 false
func (o *Owned[T]) Get() (v T, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return v, false
	}
	return o.v, true
}

// Close 释放对象，可重复调用
func (o *Owned[T]) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return nil
	}
	o.released = true
	if any(o.v) != nil {
		o.v.Release()
	}
	var zero T
	o.v = zero
	return nil
}
