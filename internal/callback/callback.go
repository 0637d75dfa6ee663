// Package callback 实现相机 SDK 的设备回调契约。
//
// SDK 在其内部线程上调用 DeviceCallback 的方法。所有实现都必须满足：
//   - 不阻塞、不 panic 穿越 SDK 边界
//   - 方法返回后不再引用任何入参（切片可能指向 SDK 内存）
//
// Forwarder 把每次回调转换为一个 event.Event 并推入 relay 通道；
// Null 丢弃所有回调，用于不需要事件的诊断连接。
package callback

import "unsafe"

// DeviceCallback SDK 设备回调接口
type DeviceCallback interface {
	// OnConnected 会话建立，version 为协议版本
	OnConnected(version uint32)

	// OnDisconnected 会话断开，errCode 为 0 表示正常断开
	OnDisconnected(errCode uint32)

	// OnPropertyChanged 属性变更（无明细），转发时忽略，以 OnPropertyChangedCodes 为准
	OnPropertyChanged()

	// OnPropertyChangedCodes 属性变更，codes 仅在调用期间有效
	OnPropertyChangedCodes(codes []uint32)

	// OnLvPropertyChanged 实时取景属性变更（无明细）
	OnLvPropertyChanged()

	// OnLvPropertyChangedCodes 实时取景属性变更，codes 仅在调用期间有效
	OnLvPropertyChangedCodes(codes []uint32)

	// OnCompleteDownload 文件下载完成
	OnCompleteDownload(filename string, fileType uint32)

	// OnNotifyContentsTransfer 内容传输通知
	OnNotifyContentsTransfer(notify uint32, handle uint64, filename string)

	// OnWarning 告警
	OnWarning(code uint32)

	// OnWarningExt 扩展告警
	OnWarningExt(code uint32, param1, param2, param3 int32)

	// OnError 错误
	OnError(code uint32)

	// OnNotifyRemoteTransferResult 远程传输进度（文件模式）
	OnNotifyRemoteTransferResult(notify, percent uint32, filename string)

	// OnNotifyRemoteTransferResultData 远程传输进度（内存模式），data 仅在调用期间有效
	OnNotifyRemoteTransferResultData(notify, percent uint32, data []byte, size uint64)

	// OnNotifyRemoteTransferContentsListChanged 存储卡内容列表变更
	OnNotifyRemoteTransferContentsListChanged(notify, slot, added uint32)

	// OnNotifyRemoteFirmwareUpdateResult 固件升级结果，param 格式不稳定，不解析
	OnNotifyRemoteFirmwareUpdateResult(notify uint32, param unsafe.Pointer)
}
