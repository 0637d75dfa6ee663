// Package sdk 定义与相机 SDK 交互的边界：驱动接口、枚举/相机信息访问器、
// 作用域所有权以及 SDK 返回码到 Go error 的转换。
//
// 具体实现：
//   - internal/sdk/crsdk     cgo 绑定厂商 SDK（需 -tags crsdk）
//   - internal/sdk/simulator 纯 Go 模拟器，用于测试和无硬件环境
package sdk

import (
	"context"
	"fmt"

	"github.com/taoyao-code/crsdk-bridge/internal/callback"
)

// DeviceHandle SDK 设备句柄，0 为无效句柄
type DeviceHandle int64

// Releaser 需要显式释放的 SDK 对象
type Releaser interface {
	Release()
}

// CameraObjectInfo 枚举得到的单台相机信息（只读访问器）。
// 字符串按 SDK 原样返回，可能带有尾部 NUL；解码见 Describe。
type CameraObjectInfo interface {
	Model() string
	Name() string
	ConnectionStatus() uint32
	ConnectionTypeName() string
	IPAddress() uint32 // 小端打包的 IPv4，0 表示无
	IPAddressString() string
	MACAddress() []byte
	SSHSupport() uint32
	USBProductID() int16
}

// EnumCameraObjectInfo 一次枚举的结果集，使用完毕必须 Release
type EnumCameraObjectInfo interface {
	Releaser
	Count() uint32
	CameraObjectInfo(index uint32) CameraObjectInfo
}

// Driver SDK 驱动
type Driver interface {
	// Init 初始化 SDK，重复调用为空操作
	Init() error
	// Release 释放 SDK 全局资源
	Release() error
	// Version 返回打包的 SDK 版本号
	Version() uint32
	// EnumCameraObjects 扫描相机，timeoutSec 为扫描时长
	EnumCameraObjects(ctx context.Context, timeoutSec uint8) (EnumCameraObjectInfo, error)
	// Connect 连接相机；token 为零时 SDK 使用空回调
	Connect(cam Camera, token callback.Token) (DeviceHandle, error)
	// Disconnect 断开连接，返回时保证该设备不再有进行中的回调
	Disconnect(handle DeviceHandle) error
	// ReleaseDevice 释放设备资源，必须在 Disconnect 之后调用
	ReleaseDevice(handle DeviceHandle) error
}

// VersionString 将打包版本号格式化为 major.minor.patch（patch 两位）
func VersionString(v uint32) string {
	major := (v >> 24) & 0xFF
	minor := (v >> 16) & 0xFF
	patch := (v >> 8) & 0xFF
	return fmt.Sprintf("%d.%d.%02d", major, minor, patch)
}
