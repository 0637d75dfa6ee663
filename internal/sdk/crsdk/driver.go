//go:build crsdk

// Package crsdk 通过 cgo 绑定厂商相机 SDK（需 -tags crsdk 构建）。
//
// 头文件与库路径通过 CGO_CXXFLAGS / CGO_LDFLAGS 提供，例如：
//
//	CGO_CXXFLAGS="-I/opt/crsdk/include" CGO_LDFLAGS="-L/opt/crsdk/lib" go build -tags crsdk ./cmd/bridged
package crsdk

/*
#cgo CXXFLAGS: -std=c++17
#cgo LDFLAGS: -lCr_Core -lmonitor_protocol -lmonitor_protocol_pf -lstdc++
#include <stdlib.h>
#include "shim.h"
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/taoyao-code/crsdk-bridge/internal/callback"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk"
	"go.uber.org/zap"
)

// Driver 厂商 SDK 驱动
type Driver struct {
	mu          sync.Mutex
	initialized bool
	callbacks   map[sdk.DeviceHandle]C.crsdk_callback
	logger      *zap.Logger
}

var _ sdk.Driver = (*Driver)(nil)

// New 创建驱动
func New(logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		callbacks: make(map[sdk.DeviceHandle]C.crsdk_callback),
		logger:    logger.With(zap.String("component", "crsdk")),
	}
}

func (d *Driver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}
	if C.crsdk_init() == 0 {
		return errors.New("sdk initialization failed")
	}
	d.initialized = true
	d.logger.Info("camera sdk initialized", zap.String("version", sdk.VersionString(uint32(C.crsdk_version()))))
	return nil
}

func (d *Driver) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil
	}
	C.crsdk_release()
	d.initialized = false
	return nil
}

// Initialized 是否已初始化
func (d *Driver) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

func (d *Driver) Version() uint32 {
	return uint32(C.crsdk_version())
}

func (d *Driver) EnumCameraObjects(ctx context.Context, timeoutSec uint8) (sdk.EnumCameraObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.Initialized() {
		return nil, sdk.ErrNotInitialized
	}
	var e C.crsdk_enum
	if code := C.crsdk_enum_cameras(&e, C.uint8_t(timeoutSec)); code != 0 {
		return nil, sdk.CheckResult("enum camera objects", uint32(code))
	}
	if e == nil {
		return nil, nil
	}
	return &enumInfo{ptr: e}, nil
}

func (d *Driver) Connect(cam sdk.Camera, token callback.Token) (sdk.DeviceHandle, error) {
	if !d.Initialized() {
		return 0, sdk.ErrNotInitialized
	}
	if !cam.IsNetwork() || !cam.IP.IsValid() || cam.MAC == nil {
		return 0, fmt.Errorf("connect %s: only network cameras with ip and mac are supported", cam)
	}
	ip, err := sdk.IPToSDK(cam.IP)
	if err != nil {
		return 0, fmt.Errorf("connect %s: %w", cam, err)
	}

	model := C.CString(cam.Model)
	defer C.free(unsafe.Pointer(model))
	mac := C.CBytes(cam.MAC[:])
	defer C.free(mac)

	var ssh C.uint8_t
	if cam.SSHSupported {
		ssh = 1
	}
	var info C.crsdk_info
	if code := C.crsdk_create_ethernet_info(&info, model, C.uint32_t(ip), (*C.uint8_t)(mac), ssh); code != 0 || info == nil {
		return 0, sdk.CheckResult("create camera info", uint32(code))
	}
	created := sdk.NewOwned(&createdInfo{ptr: info})
	defer created.Close()

	cb := C.crsdk_create_callback(C.uintptr_t(token))
	var handle C.int64_t
	if code := C.crsdk_connect(info, cb, &handle); code != 0 {
		C.crsdk_destroy_callback(cb)
		return 0, sdk.CheckResult("connect", uint32(code))
	}

	h := sdk.DeviceHandle(handle)
	d.mu.Lock()
	d.callbacks[h] = cb
	d.mu.Unlock()
	return h, nil
}

func (d *Driver) Disconnect(handle sdk.DeviceHandle) error {
	return sdk.CheckResult("disconnect", uint32(C.crsdk_disconnect(C.int64_t(handle))))
}

// ReleaseDevice 释放设备并销毁其回调对象；必须在 Disconnect 返回之后调用
func (d *Driver) ReleaseDevice(handle sdk.DeviceHandle) error {
	err := sdk.CheckResult("release device", uint32(C.crsdk_release_device(C.int64_t(handle))))

	d.mu.Lock()
	cb, ok := d.callbacks[handle]
	delete(d.callbacks, handle)
	d.mu.Unlock()
	if ok {
		C.crsdk_destroy_callback(cb)
	}
	return err
}

type enumInfo struct {
	ptr C.crsdk_enum
}

func (e *enumInfo) Count() uint32 {
	return uint32(C.crsdk_enum_count(e.ptr))
}

func (e *enumInfo) CameraObjectInfo(index uint32) sdk.CameraObjectInfo {
	p := C.crsdk_enum_info(e.ptr, C.uint32_t(index))
	if p == nil {
		return nil
	}
	return &cameraInfo{ptr: p}
}

func (e *enumInfo) Release() {
	C.crsdk_enum_release(e.ptr)
	e.ptr = nil
}

// createdInfo 为 Connect 单独创建的相机信息，由调用方负责释放
type createdInfo struct {
	ptr C.crsdk_info
}

func (c *createdInfo) Release() {
	C.crsdk_info_release(c.ptr)
	c.ptr = nil
}

// cameraInfo 读取枚举结果中的相机信息，仅在枚举释放前有效
type cameraInfo struct {
	ptr C.crsdk_info
}

func sizedString(p *C.char, size C.uint32_t) string {
	if p == nil || size == 0 {
		return ""
	}
	return strings.ToValidUTF8(string(C.GoBytes(unsafe.Pointer(p), C.int(size))), "\uFFFD")
}

func (c *cameraInfo) Model() string {
	return sizedString(C.crsdk_info_model(c.ptr), C.crsdk_info_model_size(c.ptr))
}

func (c *cameraInfo) Name() string {
	return sizedString(C.crsdk_info_name(c.ptr), C.crsdk_info_name_size(c.ptr))
}

func (c *cameraInfo) ConnectionStatus() uint32 {
	return uint32(C.crsdk_info_connection_status(c.ptr))
}

func (c *cameraInfo) ConnectionTypeName() string {
	p := C.crsdk_info_connection_type(c.ptr)
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

func (c *cameraInfo) IPAddress() uint32 {
	return uint32(C.crsdk_info_ip_address(c.ptr))
}

func (c *cameraInfo) IPAddressString() string {
	p := C.crsdk_info_ip_address_str(c.ptr)
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

func (c *cameraInfo) MACAddress() []byte {
	p := C.crsdk_info_mac_address(c.ptr)
	n := C.crsdk_info_mac_address_size(c.ptr)
	if p == nil || n == 0 {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(p), C.int(n))
}

func (c *cameraInfo) SSHSupport() uint32 {
	return uint32(C.crsdk_info_ssh_support(c.ptr))
}

func (c *cameraInfo) USBProductID() int16 {
	return int16(C.crsdk_info_usb_pid(c.ptr))
}
