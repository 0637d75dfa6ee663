// Package simulator 纯 Go 实现的相机 SDK 模拟器。
//
// 回调从模拟器自己的 goroutine 发出，通过上下文令牌分发，
// 与真实 SDK 在内部线程上回调的方式一致。
package simulator

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/taoyao-code/crsdk-bridge/internal/callback"
	"github.com/taoyao-code/crsdk-bridge/internal/sdk"
	"go.uber.org/zap"
)

// ProtocolVersion 模拟器上报的连接协议版本
const ProtocolVersion uint32 = 3

// Version 模拟的 SDK 版本号 (2.0.00)
const Version uint32 = 0x02000000

// Options 模拟器配置
type Options struct {
	Cameras       int           // 可被发现的相机数量
	EventInterval time.Duration // 周期事件间隔，0 表示只发送连接/断开事件
	Logger        *zap.Logger
}

// Driver 模拟 SDK 驱动
type Driver struct {
	mu          sync.Mutex
	initialized bool
	next        sdk.DeviceHandle
	devices     map[sdk.DeviceHandle]*device

	cameras  []*cameraInfo
	interval time.Duration
	logger   *zap.Logger
}

var _ sdk.Driver = (*Driver)(nil)

type device struct {
	token     callback.Token
	cancel    context.CancelFunc
	done      chan struct{}
	inflight  sync.WaitGroup // 进行中的 Emit
	connected bool
}

// New 创建模拟驱动
func New(opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Driver{
		devices:  make(map[sdk.DeviceHandle]*device),
		interval: opts.EventInterval,
		logger:   logger.With(zap.String("component", "sdk-simulator")),
	}
	for i := 0; i < opts.Cameras; i++ {
		d.cameras = append(d.cameras, newCameraInfo(i))
	}
	return d
}

func (d *Driver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		d.initialized = true
		d.logger.Info("simulated sdk initialized", zap.Int("cameras", len(d.cameras)))
	}
	return nil
}

func (d *Driver) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	return nil
}

// Initialized 是否已初始化
func (d *Driver) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

func (d *Driver) Version() uint32 { return Version }

func (d *Driver) EnumCameraObjects(ctx context.Context, _ uint8) (sdk.EnumCameraObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.Initialized() {
		return nil, sdk.ErrNotInitialized
	}
	if len(d.cameras) == 0 {
		return nil, nil
	}
	infos := make([]*cameraInfo, len(d.cameras))
	copy(infos, d.cameras)
	return &cameraEnum{infos: infos}, nil
}

func (d *Driver) Connect(cam sdk.Camera, token callback.Token) (sdk.DeviceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, sdk.ErrNotInitialized
	}
	if cam.Model == "" {
		return 0, sdk.CheckResult("connect", 0x8201)
	}

	d.next++
	handle := d.next
	ctx, cancel := context.WithCancel(context.Background())
	dev := &device{token: token, cancel: cancel, done: make(chan struct{}), connected: true}
	d.devices[handle] = dev

	go d.run(ctx, handle, dev)

	d.logger.Debug("simulated device connected",
		zap.Int64("handle", int64(handle)),
		zap.String("model", cam.Model))
	return handle, nil
}

// run 模拟 SDK 内部线程：先回调 OnConnected，随后按间隔循环发送事件
func (d *Driver) run(ctx context.Context, handle sdk.DeviceHandle, dev *device) {
	defer close(dev.done)

	dev.token.Dispatch(func(cb callback.DeviceCallback) { cb.OnConnected(ProtocolVersion) })
	if d.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	var seq uint32
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			dev.token.Dispatch(func(cb callback.DeviceCallback) { emit(cb, seq) })
		}
	}
}

// Disconnect 停止回调 goroutine 并等待其与进行中的 Emit 退出，然后同步回调 OnDisconnected。
// 返回后该设备不会再有任何回调。
func (d *Driver) Disconnect(handle sdk.DeviceHandle) error {
	d.mu.Lock()
	dev, ok := d.devices[handle]
	if !ok || !dev.connected {
		d.mu.Unlock()
		return fmt.Errorf("disconnect: unknown handle %d", handle)
	}
	dev.connected = false
	d.mu.Unlock()

	dev.cancel()
	<-dev.done
	dev.inflight.Wait()
	dev.token.Dispatch(func(cb callback.DeviceCallback) { cb.OnDisconnected(0) })
	return nil
}

func (d *Driver) ReleaseDevice(handle sdk.DeviceHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, ok := d.devices[handle]
	if !ok {
		return fmt.Errorf("release device: unknown handle %d", handle)
	}
	if dev.connected {
		return fmt.Errorf("release device: handle %d still connected", handle)
	}
	delete(d.devices, handle)
	return nil
}

// Emit 在新的 goroutine 上对设备执行一次回调并等待完成，供测试注入事件
func (d *Driver) Emit(handle sdk.DeviceHandle, fn func(callback.DeviceCallback)) error {
	d.mu.Lock()
	dev, ok := d.devices[handle]
	connected := ok && dev.connected
	if connected {
		dev.inflight.Add(1)
	}
	d.mu.Unlock()
	if !connected {
		return fmt.Errorf("emit: handle %d not connected", handle)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer dev.inflight.Done()
		dev.token.Dispatch(fn)
	}()
	<-done
	return nil
}

// Devices 当前持有的设备句柄数
func (d *Driver) Devices() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.devices)
}

// emit 按序号轮换发送各类事件
func emit(cb callback.DeviceCallback, seq uint32) {
	switch seq % 6 {
	case 0:
		cb.OnPropertyChanged()
		cb.OnPropertyChangedCodes([]uint32{0x0016, 0x0017, 0x0104})
	case 1:
		cb.OnLvPropertyChanged()
		cb.OnLvPropertyChangedCodes([]uint32{0x0500})
	case 2:
		cb.OnWarningExt(0x00060001, int32(seq%9)+1, 0, 0)
	case 3:
		name := fmt.Sprintf("DSC%05d.JPG", seq)
		cb.OnNotifyRemoteTransferResult(1, 50, name)
		buf := make([]byte, 256)
		for i := range buf {
			buf[i] = byte(seq + uint32(i))
		}
		cb.OnNotifyRemoteTransferResultData(1, 100, buf, uint64(len(buf)))
		// 模拟 SDK 在回调返回后复用缓冲区
		clear(buf)
	case 4:
		cb.OnCompleteDownload(fmt.Sprintf("DSC%05d.JPG", seq), 1)
	case 5:
		cb.OnWarning(0x00020003)
	}
}

// cameraInfo 模拟的 SDK 相机信息，字符串带尾部 NUL，IP 为小端打包
type cameraInfo struct {
	model    string
	name     string
	connType string
	ip       uint32
	ipStr    string
	mac      []byte
	ssh      uint32
	pid      int16
}

func newCameraInfo(i int) *cameraInfo {
	if i%2 == 1 {
		return &cameraInfo{
			model:    "ILCE-7M4\x00",
			name:     fmt.Sprintf("ILCE-7M4-%d\x00", i),
			connType: "USB",
			pid:      0x0c06,
		}
	}
	addr := netip.AddrFrom4([4]byte{192, 168, 1, byte(100 + i)})
	ip, _ := sdk.IPToSDK(addr)
	return &cameraInfo{
		model:    "ILME-FX3\x00",
		name:     fmt.Sprintf("ILME-FX3-%d\x00", i),
		connType: "Ethernet",
		ip:       ip,
		ipStr:    addr.String(),
		mac:      []byte{0x10, 0x32, 0x2C, 0x7D, 0xC7, byte(0xB0 + i), 0, 0},
		ssh:      1,
	}
}

func (c *cameraInfo) Model() string              { return c.model }
func (c *cameraInfo) Name() string               { return c.name }
func (c *cameraInfo) ConnectionStatus() uint32   { return 0 }
func (c *cameraInfo) ConnectionTypeName() string { return c.connType }
func (c *cameraInfo) IPAddress() uint32          { return c.ip }
func (c *cameraInfo) IPAddressString() string    { return c.ipStr }
func (c *cameraInfo) MACAddress() []byte         { return c.mac }
func (c *cameraInfo) SSHSupport() uint32         { return c.ssh }
func (c *cameraInfo) USBProductID() int16        { return c.pid }

type cameraEnum struct {
	mu       sync.Mutex
	infos    []*cameraInfo
	released bool
}

func (e *cameraEnum) Count() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return uint32(len(e.infos))
}

func (e *cameraEnum) CameraObjectInfo(i uint32) sdk.CameraObjectInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released || int(i) >= len(e.infos) {
		return nil
	}
	return e.infos[i]
}

func (e *cameraEnum) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = true
	e.infos = nil
}
