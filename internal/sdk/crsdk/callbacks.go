//go:build crsdk

package crsdk

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/taoyao-code/crsdk-bridge/internal/callback"
)

// 以下函数由 shim.cpp 中的 TokenCallback 在 SDK 内部线程上调用。
// 指针参数只在调用期间有效，由 Forwarder 负责拷贝。

func dispatch(tok C.uintptr_t, fn func(callback.DeviceCallback)) {
	callback.Token(tok).Dispatch(fn)
}

func codesSlice(num C.uint32_t, codes *C.uint32_t) []uint32 {
	if codes == nil || num == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(codes)), int(num))
}

func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

//export crsdkBridgeOnConnected
func crsdkBridgeOnConnected(tok C.uintptr_t, version C.uint32_t) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnConnected(uint32(version)) })
}

//export crsdkBridgeOnDisconnected
func crsdkBridgeOnDisconnected(tok C.uintptr_t, errCode C.uint32_t) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnDisconnected(uint32(errCode)) })
}

//export crsdkBridgeOnPropertyChanged
func crsdkBridgeOnPropertyChanged(tok C.uintptr_t) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnPropertyChanged() })
}

//export crsdkBridgeOnPropertyChangedCodes
func crsdkBridgeOnPropertyChangedCodes(tok C.uintptr_t, num C.uint32_t, codes *C.uint32_t) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnPropertyChangedCodes(codesSlice(num, codes)) })
}

//export crsdkBridgeOnLvPropertyChanged
func crsdkBridgeOnLvPropertyChanged(tok C.uintptr_t) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnLvPropertyChanged() })
}

//export crsdkBridgeOnLvPropertyChangedCodes
func crsdkBridgeOnLvPropertyChangedCodes(tok C.uintptr_t, num C.uint32_t, codes *C.uint32_t) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnLvPropertyChangedCodes(codesSlice(num, codes)) })
}

//export crsdkBridgeOnCompleteDownload
func crsdkBridgeOnCompleteDownload(tok C.uintptr_t, filename *C.char, fileType C.uint32_t) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnCompleteDownload(goString(filename), uint32(fileType)) })
}

//export crsdkBridgeOnNotifyContentsTransfer
func crsdkBridgeOnNotifyContentsTransfer(tok C.uintptr_t, notify C.uint32_t, handle C.uint64_t, filename *C.char) {
	dispatch(tok, func(cb callback.DeviceCallback) {
		cb.OnNotifyContentsTransfer(uint32(notify), uint64(handle), goString(filename))
	})
}

//export crsdkBridgeOnWarning
func crsdkBridgeOnWarning(tok C.uintptr_t, code C.uint32_t) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnWarning(uint32(code)) })
}

//export crsdkBridgeOnWarningExt
func crsdkBridgeOnWarningExt(tok C.uintptr_t, code C.uint32_t, p1, p2, p3 C.int32_t) {
	dispatch(tok, func(cb callback.DeviceCallback) {
		cb.OnWarningExt(uint32(code), int32(p1), int32(p2), int32(p3))
	})
}

//export crsdkBridgeOnError
func crsdkBridgeOnError(tok C.uintptr_t, code C.uint32_t) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnError(uint32(code)) })
}

//export crsdkBridgeOnRemoteTransferResult
func crsdkBridgeOnRemoteTransferResult(tok C.uintptr_t, notify, percent C.uint32_t, filename *C.char) {
	dispatch(tok, func(cb callback.DeviceCallback) {
		cb.OnNotifyRemoteTransferResult(uint32(notify), uint32(percent), goString(filename))
	})
}

//export crsdkBridgeOnRemoteTransferResultData
func crsdkBridgeOnRemoteTransferResultData(tok C.uintptr_t, notify, percent C.uint32_t, data *C.uint8_t, size C.uint64_t) {
	var buf []byte
	if data != nil && size > 0 {
		buf = unsafe.Slice((*byte)(unsafe.Pointer(data)), int(size))
	}
	dispatch(tok, func(cb callback.DeviceCallback) {
		cb.OnNotifyRemoteTransferResultData(uint32(notify), uint32(percent), buf, uint64(size))
	})
}

//export crsdkBridgeOnContentsListChanged
func crsdkBridgeOnContentsListChanged(tok C.uintptr_t, notify, slot, added C.uint32_t) {
	dispatch(tok, func(cb callback.DeviceCallback) {
		cb.OnNotifyRemoteTransferContentsListChanged(uint32(notify), uint32(slot), uint32(added))
	})
}

//export crsdkBridgeOnFirmwareUpdateResult
func crsdkBridgeOnFirmwareUpdateResult(tok C.uintptr_t, notify C.uint32_t, param unsafe.Pointer) {
	dispatch(tok, func(cb callback.DeviceCallback) { cb.OnNotifyRemoteFirmwareUpdateResult(uint32(notify), param) })
}
