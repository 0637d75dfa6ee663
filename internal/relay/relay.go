// Package relay 提供 SDK 回调线程与消费方之间的事件中继通道。
//
// 通道为多生产者/单消费者、无界、FIFO：
//   - Sender.Push 永不阻塞，通道关闭后静默丢弃
//   - Receiver.Pull 阻塞直到有事件、通道关闭或 ctx 结束
//   - Receiver.Close 之后已缓冲的事件仍可被取出，取空后返回 ErrClosed
//
// 同一个生产者 goroutine 推送的事件保证按序到达；多个生产者之间不保证全局顺序。
package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taoyao-code/crsdk-bridge/internal/event"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrClosed 通道已关闭且缓冲区已取空
var ErrClosed = errors.New("relay: channel closed")

const (
	// DefaultWarnInterval 积压告警日志的最小间隔
	DefaultWarnInterval = 10 * time.Second

	// 队头空洞超过该值时压缩底层切片
	compactThreshold = 1024
)

// Observer 通道观测回调，由指标模块实现。实现必须是非阻塞的。
type Observer interface {
	Pushed(kind event.Kind)
	Dropped(kind event.Kind)
	Pulled(kind event.Kind)
	Depth(n int)
}

type options struct {
	logger       *zap.Logger
	observer     Observer
	highWater    int
	warnInterval time.Duration
	name         string
}

// Option 通道配置项
type Option func(*options)

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测回调
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithHighWater 设置积压告警水位（0 表示不告警）与告警日志最小间隔。
// 通道本身不限容量，水位只用于观测。
func WithHighWater(n int, every time.Duration) Option {
	return func(o *options) {
		o.highWater = n
		if every > 0 {
			o.warnInterval = every
		}
	}
}

// WithName 设置通道名称（通常为会话ID），用于日志
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

type channel struct {
	mu      sync.Mutex
	queue   []event.Event
	head    int
	closed  bool // 消费端已关闭
	senders int  // 存活的生产者句柄数

	notify   chan struct{} // 容量1，有状态变化时唤醒消费者
	done     chan struct{} // 关闭或全部生产者释放后关闭
	doneOnce sync.Once

	opts    options
	limiter *rate.Limiter
}

// New 创建通道，返回一个生产者句柄和唯一的消费者句柄
func New(opts ...Option) (*Sender, *Receiver) {
	o := options{
		logger:       zap.NewNop(),
		warnInterval: DefaultWarnInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ch := &channel{
		senders: 1,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		opts:    o,
		limiter: rate.NewLimiter(rate.Every(o.warnInterval), 1),
	}
	return &Sender{ch: ch}, &Receiver{ch: ch}
}

func (c *channel) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *channel) finish() {
	c.doneOnce.Do(func() { close(c.done) })
	c.signal()
}

func (c *channel) depthLocked() int {
	return len(c.queue) - c.head
}

func (c *channel) popLocked() (event.Event, bool) {
	if c.head >= len(c.queue) {
		return nil, false
	}
	ev := c.queue[c.head]
	c.queue[c.head] = nil
	c.head++

	switch {
	case c.head == len(c.queue):
		c.queue = c.queue[:0]
		c.head = 0
	case c.head > compactThreshold && c.head*2 >= len(c.queue):
		n := copy(c.queue, c.queue[c.head:])
		clear(c.queue[n:])
		c.queue = c.queue[:n]
		c.head = 0
	}
	return ev, true
}

// pushFrontLocked 将事件放回队头（消费端取出后未能交付时使用）
func (c *channel) pushFrontLocked(ev event.Event) {
	if c.head > 0 {
		c.head--
		c.queue[c.head] = ev
		return
	}
	c.queue = append(c.queue, nil)
	copy(c.queue[1:], c.queue)
	c.queue[0] = ev
}

func (c *channel) drainedLocked() bool {
	return c.depthLocked() == 0 && (c.closed || c.senders == 0)
}

func (c *channel) observePush(kind event.Kind, depth int) {
	if obs := c.opts.observer; obs != nil {
		obs.Pushed(kind)
		obs.Depth(depth)
	}
	if c.opts.highWater > 0 && depth >= c.opts.highWater && c.limiter.Allow() {
		c.opts.logger.Warn("relay backlog above high water",
			zap.String("relay", c.opts.name),
			zap.Int("depth", depth),
			zap.Int("high_water", c.opts.highWater))
	}
}

func (c *channel) observeDrop(kind event.Kind) {
	if obs := c.opts.observer; obs != nil {
		obs.Dropped(kind)
	}
}

func (c *channel) observePull(kind event.Kind, depth int) {
	if obs := c.opts.observer; obs != nil {
		obs.Pulled(kind)
		obs.Depth(depth)
	}
}

// Sender 生产者句柄，可被多个 goroutine 并发使用
type Sender struct {
	ch       *channel
	released atomic.Bool
}

// Push 非阻塞入队。通道已关闭或句柄已释放时返回 false，事件被丢弃。
func (s *Sender) Push(ev event.Event) bool {
	if s == nil || ev == nil {
		return false
	}
	c := s.ch
	if s.released.Load() {
		c.observeDrop(ev.Kind())
		return false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.observeDrop(ev.Kind())
		return false
	}
	c.queue = append(c.queue, ev)
	depth := c.depthLocked()
	c.mu.Unlock()

	c.signal()
	c.observePush(ev.Kind(), depth)
	return true
}

// Clone 创建新的生产者句柄。已释放的句柄克隆出的仍是已释放句柄。
func (s *Sender) Clone() *Sender {
	if s == nil {
		return nil
	}
	c := s.ch
	clone := &Sender{ch: c}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s.released.Load() || c.senders == 0 {
		clone.released.Store(true)
		return clone
	}
	c.senders++
	return clone
}

// Release 释放生产者句柄，可重复调用。
// 全部生产者释放后，消费者取空缓冲区即得到 ErrClosed。
func (s *Sender) Release() {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	c := s.ch
	c.mu.Lock()
	c.senders--
	last := c.senders == 0
	c.mu.Unlock()
	if last {
		c.finish()
	}
}

// Closed 消费端是否已关闭
func (s *Sender) Closed() bool {
	if s == nil {
		return true
	}
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	return s.ch.closed
}

// Receiver 消费者句柄。同一时刻只允许一个 goroutine 取事件。
type Receiver struct {
	ch *channel
}

// Pull 取出下一个事件。
// 无事件时阻塞；通道关闭且已取空返回 ErrClosed；ctx 结束返回 ctx.Err()。
func (r *Receiver) Pull(ctx context.Context) (event.Event, error) {
	ev, depth, err := r.pull(ctx)
	if err != nil {
		return nil, err
	}
	r.ch.observePull(ev.Kind(), depth)
	return ev, nil
}

// pull 不通知 Observer，由调用方在事件真正交付后计数
func (r *Receiver) pull(ctx context.Context) (event.Event, int, error) {
	c := r.ch
	for {
		c.mu.Lock()
		if ev, ok := c.popLocked(); ok {
			depth := c.depthLocked()
			c.mu.Unlock()
			return ev, depth, nil
		}
		if c.drainedLocked() {
			c.mu.Unlock()
			return nil, 0, ErrClosed
		}
		c.mu.Unlock()

		select {
		case <-c.notify:
		case <-c.done:
			// 关闭后仍需再检查一次缓冲区
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
}

// TryPull 非阻塞取事件，无事件时 ok 为 false
func (r *Receiver) TryPull() (ev event.Event, ok bool) {
	c := r.ch
	c.mu.Lock()
	ev, ok = c.popLocked()
	depth := c.depthLocked()
	c.mu.Unlock()
	if ok {
		c.observePull(ev.Kind(), depth)
	}
	return ev, ok
}

// Events 以 Go channel 形式输出事件，通道关闭或 ctx 结束时关闭返回的 channel。
// ctx 结束时尚未交付的事件会放回队头，不会丢失。
func (r *Receiver) Events(ctx context.Context) <-chan event.Event {
	out := make(chan event.Event)
	go func() {
		defer close(out)
		for {
			ev, depth, err := r.pull(ctx)
			if err != nil {
				return
			}
			select {
			case out <- ev:
				r.ch.observePull(ev.Kind(), depth)
			case <-ctx.Done():
				r.unpull(ev)
				return
			}
		}
	}()
	return out
}

func (r *Receiver) unpull(ev event.Event) {
	c := r.ch
	c.mu.Lock()
	c.pushFrontLocked(ev)
	c.mu.Unlock()
	c.signal()
}

// Close 关闭消费端：之后的 Push 被静默丢弃，已缓冲事件仍可取出。可重复调用。
func (r *Receiver) Close() {
	c := r.ch
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.finish()
}

// Len 当前缓冲的事件数
func (r *Receiver) Len() int {
	c := r.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depthLocked()
}

// Done 通道关闭（消费端关闭或全部生产者释放）时关闭。缓冲区可能仍有事件。
func (r *Receiver) Done() <-chan struct{} {
	return r.ch.done
}
