package callback

import "unsafe"

// Null 丢弃所有回调的空实现，无状态
type Null struct{}

// Discard 全局唯一的空回调实例
var Discard DeviceCallback = Null{}

var _ DeviceCallback = Null{}

func (Null) OnConnected(uint32)                                               {}
func (Null) OnDisconnected(uint32)                                            {}
func (Null) OnPropertyChanged()                                               {}
func (Null) OnPropertyChangedCodes([]uint32)                                  {}
func (Null) OnLvPropertyChanged()                                             {}
func (Null) OnLvPropertyChangedCodes([]uint32)                                {}
func (Null) OnCompleteDownload(string, uint32)                                {}
func (Null) OnNotifyContentsTransfer(uint32, uint64, string)                  {}
func (Null) OnWarning(uint32)                                                 {}
func (Null) OnWarningExt(uint32, int32, int32, int32)                         {}
func (Null) OnError(uint32)                                                   {}
func (Null) OnNotifyRemoteTransferResult(uint32, uint32, string)              {}
func (Null) OnNotifyRemoteTransferResultData(uint32, uint32, []byte, uint64)  {}
func (Null) OnNotifyRemoteTransferContentsListChanged(uint32, uint32, uint32) {}
func (Null) OnNotifyRemoteFirmwareUpdateResult(uint32, unsafe.Pointer)        {}
