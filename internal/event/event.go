package event

import (
	"fmt"
	"slices"
	"strings"
)

// Kind 事件类型标签
type Kind string

const (
	// KindConnected 会话建立
	KindConnected Kind = "camera.connected"

	// KindDisconnected 会话断开（错误码0表示用户主动断开）
	KindDisconnected Kind = "camera.disconnected"

	// KindPropertyChanged 设备属性变更
	KindPropertyChanged Kind = "camera.property_changed"

	// KindLvPropertyChanged 实时取景属性变更
	KindLvPropertyChanged Kind = "camera.lv_property_changed"

	// KindDownloadComplete 文件下载完成
	KindDownloadComplete Kind = "camera.download_complete"

	// KindContentsTransfer 内容传输生命周期通知
	KindContentsTransfer Kind = "camera.contents_transfer"

	// KindWarning 设备告警
	KindWarning Kind = "camera.warning"

	// KindWarningExt 扩展告警（附带3个参数）
	KindWarningExt Kind = "camera.warning_ext"

	// KindError 设备错误
	KindError Kind = "camera.error"

	// KindRemoteTransferProgress 远程传输进度
	KindRemoteTransferProgress Kind = "camera.remote_transfer_progress"

	// KindRemoteTransferData 远程传输数据块（内存传输）
	KindRemoteTransferData Kind = "camera.remote_transfer_data"

	// KindContentsListChanged 存储卡内容列表变更
	KindContentsListChanged Kind = "camera.contents_list_changed"

	// KindFirmwareUpdateResult 固件升级结果
	KindFirmwareUpdateResult Kind = "camera.firmware_update_result"
)

// Kinds 返回全部事件类型（用于指标预注册与测试遍历）
func Kinds() []Kind {
	return []Kind{
		KindConnected,
		KindDisconnected,
		KindPropertyChanged,
		KindLvPropertyChanged,
		KindDownloadComplete,
		KindContentsTransfer,
		KindWarning,
		KindWarningExt,
		KindError,
		KindRemoteTransferProgress,
		KindRemoteTransferData,
		KindContentsListChanged,
		KindFirmwareUpdateResult,
	}
}

// Event SDK 回调投递的事件信封。
//
// 信封集合是封闭的：只有本包内的类型可以实现该接口。
// 所有信封按值持有数据，构造后不可变，不引用任何 SDK 内存。
type Event interface {
	Kind() Kind
	String() string
	isEvent()
}

// Connected 与相机的连接已建立
type Connected struct {
	Version uint32 // SDK 协议版本
}

// Disconnected 与相机的连接已断开
type Disconnected struct {
	Error uint32 // 0 表示正常断开
}

// PropertyChanged 一个或多个设备属性变更
type PropertyChanged struct {
	Codes []uint32
}

// LvPropertyChanged 实时取景属性变更
type LvPropertyChanged struct {
	Codes []uint32
}

// DownloadComplete 文件下载完成
type DownloadComplete struct {
	Filename string
}

// ContentsTransfer 内容传输通知
type ContentsTransfer struct {
	Notify   uint32
	Handle   uint64
	Filename string
}

// Warning 相机告警
type Warning struct {
	Code uint32
}

// WarningExt 扩展告警，参数含义由告警码决定
type WarningExt struct {
	Code   uint32
	Param1 int32
	Param2 int32
	Param3 int32
}

// Error 相机错误，除非调用方重连，否则会话不可继续
type Error struct {
	Code uint32
}

// RemoteTransferProgress 远程传输进度
type RemoteTransferProgress struct {
	Notify   uint32
	Percent  uint32
	Filename string
}

// RemoteTransferData 远程传输数据块。
// Data 为回调期间拷贝出的独立副本，Size 为 SDK 报告的原始长度。
type RemoteTransferData struct {
	Notify  uint32
	Percent uint32
	Data    []byte
	Size    uint64
}

// ContentsListChanged 存储卡内容列表变更
type ContentsListChanged struct {
	Notify uint32
	Slot   uint32
	Added  uint32
}

// FirmwareUpdateResult 固件升级结果。SDK 附带的详细参数格式不稳定，不做转发。
type FirmwareUpdateResult struct {
	Notify uint32
}

// NewPropertyChanged 拷贝属性码并构造事件
func NewPropertyChanged(codes []uint32) PropertyChanged {
	return PropertyChanged{Codes: cloneCodes(codes)}
}

// NewLvPropertyChanged 拷贝实时取景属性码并构造事件
func NewLvPropertyChanged(codes []uint32) LvPropertyChanged {
	return LvPropertyChanged{Codes: cloneCodes(codes)}
}

// NewRemoteTransferData 拷贝数据块并构造事件
func NewRemoteTransferData(notify, percent uint32, data []byte, size uint64) RemoteTransferData {
	var owned []byte
	if len(data) > 0 {
		owned = make([]byte, len(data))
		copy(owned, data)
	}
	return RemoteTransferData{Notify: notify, Percent: percent, Data: owned, Size: size}
}

func cloneCodes(codes []uint32) []uint32 {
	if len(codes) == 0 {
		return []uint32{}
	}
	return slices.Clone(codes)
}

func (Connected) Kind() Kind              { return KindConnected }
func (Disconnected) Kind() Kind           { return KindDisconnected }
func (PropertyChanged) Kind() Kind        { return KindPropertyChanged }
func (LvPropertyChanged) Kind() Kind      { return KindLvPropertyChanged }
func (DownloadComplete) Kind() Kind       { return KindDownloadComplete }
func (ContentsTransfer) Kind() Kind       { return KindContentsTransfer }
func (Warning) Kind() Kind                { return KindWarning }
func (WarningExt) Kind() Kind             { return KindWarningExt }
func (Error) Kind() Kind                  { return KindError }
func (RemoteTransferProgress) Kind() Kind { return KindRemoteTransferProgress }
func (RemoteTransferData) Kind() Kind     { return KindRemoteTransferData }
func (ContentsListChanged) Kind() Kind    { return KindContentsListChanged }
func (FirmwareUpdateResult) Kind() Kind   { return KindFirmwareUpdateResult }

func (Connected) isEvent()              {}
func (Disconnected) isEvent()           {}
func (PropertyChanged) isEvent()        {}
func (LvPropertyChanged) isEvent()      {}
func (DownloadComplete) isEvent()       {}
func (ContentsTransfer) isEvent()       {}
func (Warning) isEvent()                {}
func (WarningExt) isEvent()             {}
func (Error) isEvent()                  {}
func (RemoteTransferProgress) isEvent() {}
func (RemoteTransferData) isEvent()     {}
func (ContentsListChanged) isEvent()    {}
func (FirmwareUpdateResult) isEvent()   {}

func (e Connected) String() string {
	return fmt.Sprintf("Connected (protocol v%d)", e.Version)
}

func (e Disconnected) String() string {
	if e.Error == 0 {
		return "Disconnected"
	}
	return fmt.Sprintf("Disconnected (error: 0x%08X)", e.Error)
}

func (e PropertyChanged) String() string {
	return fmt.Sprintf("PropertyChanged (%d properties)", len(e.Codes))
}

func (e LvPropertyChanged) String() string {
	return fmt.Sprintf("LiveViewPropertyChanged (%d properties)", len(e.Codes))
}

func (e DownloadComplete) String() string {
	return "DownloadComplete: " + e.Filename
}

func (e ContentsTransfer) String() string {
	return fmt.Sprintf("ContentsTransfer (notify: %d)", e.Notify)
}

func (e Warning) String() string {
	return fmt.Sprintf("Warning: 0x%08X", e.Code)
}

func (e WarningExt) String() string {
	return fmt.Sprintf("Warning: 0x%08X (%d, %d, %d)", e.Code, e.Param1, e.Param2, e.Param3)
}

func (e Error) String() string {
	return fmt.Sprintf("Error: 0x%08X", e.Code)
}

func (e RemoteTransferProgress) String() string {
	return fmt.Sprintf("RemoteTransferProgress: %d%%", e.Percent)
}

func (e RemoteTransferData) String() string {
	return fmt.Sprintf("RemoteTransferData: %d%% (%d bytes)", e.Percent, len(e.Data))
}

func (e ContentsListChanged) String() string {
	return fmt.Sprintf("ContentsListChanged: %d items added", e.Added)
}

func (e FirmwareUpdateResult) String() string {
	return fmt.Sprintf("FirmwareUpdateResult (notify: %d)", e.Notify)
}

// FormatCodes 以十六进制输出属性码列表，便于日志阅读
func FormatCodes(codes []uint32) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		if c > 0xFFFF {
			parts[i] = fmt.Sprintf("0x%08X", c)
		} else {
			parts[i] = fmt.Sprintf("0x%04X", c)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
