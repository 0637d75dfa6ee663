package session

import (
	"sync"
	"time"

	"github.com/taoyao-code/crsdk-bridge/internal/callback"
	"github.com/taoyao-code/crsdk-bridge/internal/relay"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk"
)

// Session 一次相机连接。
//
// 会话在整个生命周期内只持有一个回调适配器：开启事件流时为 Forwarder，
// 否则为 callback.Discard。事件接收端的生命周期独立于会话，
// 会话关闭后消费者仍可取完缓冲事件。
type Session struct {
	ID       string
	Camera   sdk.Camera
	OpenedAt time.Time

	handle   sdk.DeviceHandle
	token    callback.Token
	adapter  callback.DeviceCallback
	sender   *relay.Sender
	receiver *relay.Receiver

	closeOnce sync.Once
	closeErr  error
}

// Info 会话快照，用于 HTTP 输出与跨实例目录
type Info struct {
	ID       string     `json:"id"`
	ServerID string     `json:"server_id,omitempty"`
	Camera   sdk.Camera `json:"camera"`
	OpenedAt time.Time  `json:"opened_at"`
	Events   bool       `json:"events"`
	Backlog  int        `json:"backlog"`
}

// Events 返回事件接收端；未开启事件流时为 nil
func (s *Session) Events() *relay.Receiver {
	return s.receiver
}

// Handle SDK 设备句柄
func (s *Session) Handle() sdk.DeviceHandle {
	return s.handle
}

// Adapter 会话持有的回调适配器
func (s *Session) Adapter() callback.DeviceCallback {
	return s.adapter
}

// Backlog 尚未被消费的事件数
func (s *Session) Backlog() int {
	if s.receiver == nil {
		return 0
	}
	return s.receiver.Len()
}

// Info 返回会话快照
func (s *Session) Info() Info {
	return Info{
		ID:       s.ID,
		Camera:   s.Camera,
		OpenedAt: s.OpenedAt,
		Events:   s.receiver != nil,
		Backlog:  s.Backlog(),
	}
}
