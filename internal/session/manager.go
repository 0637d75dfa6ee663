// Package session 管理相机会话：为每个连接建立回调适配器与事件通道，
// 并按固定顺序拆除，保证拆除过程中不存在进行中的回调。
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taoyao-code/crsdk-bridge/internal/callback"
	"github.com/taoyao-code/crsdk-bridge/internal/relay"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk"
	"go.uber.org/zap"
)

// ErrNotFound 会话不存在或已关闭
var ErrNotFound = errors.New("session: not found")

// Metrics 会话相关指标，由 internal/metrics 实现
type Metrics interface {
	Observer(sessionID string) relay.Observer
	CallbackPanic(method string)
	SessionOpened()
	SessionClosed(sessionID string)
}

// Options 管理器配置
type Options struct {
	Logger       *zap.Logger
	Metrics      Metrics
	Directory    Directory // 可选，跨实例会话目录
	HighWater    int
	WarnInterval time.Duration
}

// Manager 会话管理器
type Manager struct {
	driver sdk.Driver
	opts   Options
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager 创建会话管理器
func NewManager(driver sdk.Driver, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		driver:   driver,
		opts:     opts,
		logger:   logger.With(zap.String("component", "session")),
		sessions: make(map[string]*Session),
	}
}

// Open 连接相机并创建会话。withEvents 为 false 时使用空回调，不建立事件通道。
func (m *Manager) Open(ctx context.Context, cam sdk.Camera, withEvents bool) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Session{
		ID:       uuid.New().String(),
		Camera:   cam,
		OpenedAt: time.Now(),
		adapter:  callback.Discard,
	}
	logger := m.logger.With(zap.String("session_id", s.ID), zap.String("camera", cam.String()))

	if withEvents {
		relayOpts := []relay.Option{
			relay.WithLogger(logger),
			relay.WithName(s.ID),
			relay.WithHighWater(m.opts.HighWater, m.opts.WarnInterval),
		}
		var fwdOpts []callback.ForwarderOption
		if m.opts.Metrics != nil {
			relayOpts = append(relayOpts, relay.WithObserver(m.opts.Metrics.Observer(s.ID)))
			fwdOpts = append(fwdOpts, callback.WithRecoveryHook(m.opts.Metrics.CallbackPanic))
		}
		s.sender, s.receiver = relay.New(relayOpts...)
		fwd := callback.NewForwarder(s.sender, logger, fwdOpts...)
		s.adapter = fwd
		s.token = callback.Register(fwd)
	}

	handle, err := m.driver.Connect(cam, s.token)
	if err != nil {
		s.token.Release()
		s.sender.Release()
		if s.receiver != nil {
			s.receiver.Close()
		}
		return nil, fmt.Errorf("open session for %s: %w", cam, err)
	}
	s.handle = handle

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if m.opts.Metrics != nil {
		m.opts.Metrics.SessionOpened()
	}
	m.publish(ctx, s)

	logger.Info("session opened",
		zap.Int64("handle", int64(handle)),
		zap.Bool("events", withEvents))
	return s, nil
}

// Close 关闭会话。拆除顺序：
//  1. Disconnect：SDK 返回后不再有进行中的回调
//  2. ReleaseDevice
//  3. 释放上下文令牌
//  4. 释放生产者句柄：消费者取完缓冲事件后得到 relay.ErrClosed
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return m.teardown(s)
}

func (m *Manager) teardown(s *Session) error {
	s.closeOnce.Do(func() {
		logger := m.logger.With(zap.String("session_id", s.ID))

		var errs []error
		if err := m.driver.Disconnect(s.handle); err != nil {
			logger.Warn("disconnect failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("disconnect: %w", err))
		}
		if err := m.driver.ReleaseDevice(s.handle); err != nil {
			logger.Warn("release device failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("release device: %w", err))
		}
		s.token.Release()
		s.sender.Release()

		if m.opts.Metrics != nil {
			m.opts.Metrics.SessionClosed(s.ID)
		}
		m.unpublish(s.ID)

		s.closeErr = errors.Join(errs...)
		logger.Info("session closed", zap.Int("backlog", s.Backlog()))
	})
	return s.closeErr
}

// CloseAll 关闭全部会话
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := m.teardown(s); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Get 查找会话
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	return s, ok
}

// List 返回本实例全部会话快照，按打开时间排序
func (m *Manager) List() []Info {
	m.mu.RLock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	m.mu.RUnlock()

	sortInfos(infos)
	return infos
}

// Count 当前会话数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// MaxBacklog 所有会话中最大的未消费事件数
func (m *Manager) MaxBacklog() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	maxBacklog := 0
	for _, s := range m.sessions {
		if n := s.Backlog(); n > maxBacklog {
			maxBacklog = n
		}
	}
	return maxBacklog
}

// Directory 跨实例会话目录
func (m *Manager) Directory() Directory {
	return m.opts.Directory
}

// RunDirectoryRefresh 周期性地将本实例会话写入目录（刷新积压与过期时间），ctx 结束时返回
func (m *Manager) RunDirectoryRefresh(ctx context.Context, every time.Duration) {
	if m.opts.Directory == nil || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			sessions := make([]*Session, 0, len(m.sessions))
			for _, s := range m.sessions {
				sessions = append(sessions, s)
			}
			m.mu.RUnlock()
			for _, s := range sessions {
				m.publish(ctx, s)
			}
		}
	}
}

func (m *Manager) publish(ctx context.Context, s *Session) {
	if m.opts.Directory == nil {
		return
	}
	if err := m.opts.Directory.Publish(ctx, s.Info()); err != nil {
		m.logger.Warn("publish session to directory failed",
			zap.String("session_id", s.ID),
			zap.Error(err))
	}
}

func (m *Manager) unpublish(id string) {
	if m.opts.Directory == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.opts.Directory.Remove(ctx, id); err != nil {
		m.logger.Warn("remove session from directory failed",
			zap.String("session_id", id),
			zap.Error(err))
	}
}
