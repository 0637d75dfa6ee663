package callback

import (
	"strings"
	"unsafe"

	"github.com/taoyao-code/crsdk-bridge/internal/event"
	"github.com/taoyao-code/crsdk-bridge/internal/relay"
	"go.uber.org/zap"
)

// Forwarder 将 SDK 回调转发到 relay 通道。
//
// 每次回调：拷贝入参 -> 构造事件 -> 非阻塞推送。sender 为 nil 时所有方法为空操作。
// 推送失败（消费端已关闭）时事件被静默丢弃，不会向 SDK 报告。
type Forwarder struct {
	sender  *relay.Sender
	logger  *zap.Logger
	onPanic func(method string)
}

var _ DeviceCallback = (*Forwarder)(nil)

// ForwarderOption Forwarder 配置项
type ForwarderOption func(*Forwarder)

// WithRecoveryHook 回调内部 panic 被恢复后调用（用于指标计数）
func WithRecoveryHook(fn func(method string)) ForwarderOption {
	return func(f *Forwarder) { f.onPanic = fn }
}

// NewForwarder 创建转发器，sender 为 nil 时不转发任何事件
func NewForwarder(sender *relay.Sender, logger *zap.Logger, opts ...ForwarderOption) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Forwarder{sender: sender, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Attached 是否绑定了通道
func (f *Forwarder) Attached() bool {
	return f != nil && f.sender != nil
}

// forward 在 SDK 线程上执行：构造事件并推送，任何 panic 都在此截获
func (f *Forwarder) forward(method string, build func() event.Event) {
	if !f.Attached() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("callback panic recovered",
				zap.String("method", method),
				zap.Any("panic", r))
			if f.onPanic != nil {
				f.onPanic(method)
			}
		}
	}()

	ev := build()
	if !f.sender.Push(ev) {
		f.logger.Debug("event dropped, relay closed",
			zap.String("method", method),
			zap.String("event_type", string(ev.Kind())))
	}
}

func (f *Forwarder) OnConnected(version uint32) {
	f.forward("OnConnected", func() event.Event {
		return event.Connected{Version: version}
	})
}

func (f *Forwarder) OnDisconnected(errCode uint32) {
	f.forward("OnDisconnected", func() event.Event {
		return event.Disconnected{Error: errCode}
	})
}

// OnPropertyChanged 无明细版本不转发
func (f *Forwarder) OnPropertyChanged() {}

func (f *Forwarder) OnPropertyChangedCodes(codes []uint32) {
	f.forward("OnPropertyChangedCodes", func() event.Event {
		return event.NewPropertyChanged(codes)
	})
}

// OnLvPropertyChanged 无明细版本不转发
func (f *Forwarder) OnLvPropertyChanged() {}

func (f *Forwarder) OnLvPropertyChangedCodes(codes []uint32) {
	f.forward("OnLvPropertyChangedCodes", func() event.Event {
		return event.NewLvPropertyChanged(codes)
	})
}

func (f *Forwarder) OnCompleteDownload(filename string, _ uint32) {
	f.forward("OnCompleteDownload", func() event.Event {
		return event.DownloadComplete{Filename: strings.Clone(filename)}
	})
}

func (f *Forwarder) OnNotifyContentsTransfer(notify uint32, handle uint64, filename string) {
	f.forward("OnNotifyContentsTransfer", func() event.Event {
		return event.ContentsTransfer{Notify: notify, Handle: handle, Filename: strings.Clone(filename)}
	})
}

func (f *Forwarder) OnWarning(code uint32) {
	f.forward("OnWarning", func() event.Event {
		return event.Warning{Code: code}
	})
}

func (f *Forwarder) OnWarningExt(code uint32, param1, param2, param3 int32) {
	f.forward("OnWarningExt", func() event.Event {
		return event.WarningExt{Code: code, Param1: param1, Param2: param2, Param3: param3}
	})
}

func (f *Forwarder) OnError(code uint32) {
	f.forward("OnError", func() event.Event {
		return event.Error{Code: code}
	})
}

func (f *Forwarder) OnNotifyRemoteTransferResult(notify, percent uint32, filename string) {
	f.forward("OnNotifyRemoteTransferResult", func() event.Event {
		return event.RemoteTransferProgress{Notify: notify, Percent: percent, Filename: strings.Clone(filename)}
	})
}

func (f *Forwarder) OnNotifyRemoteTransferResultData(notify, percent uint32, data []byte, size uint64) {
	f.forward("OnNotifyRemoteTransferResultData", func() event.Event {
		return event.NewRemoteTransferData(notify, percent, data, size)
	})
}

func (f *Forwarder) OnNotifyRemoteTransferContentsListChanged(notify, slot, added uint32) {
	f.forward("OnNotifyRemoteTransferContentsListChanged", func() event.Event {
		return event.ContentsListChanged{Notify: notify, Slot: slot, Added: added}
	})
}

func (f *Forwarder) OnNotifyRemoteFirmwareUpdateResult(notify uint32, _ unsafe.Pointer) {
	f.forward("OnNotifyRemoteFirmwareUpdateResult", func() event.Event {
		return event.FirmwareUpdateResult{Notify: notify}
	})
}
