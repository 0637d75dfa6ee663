package sdk

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// ConnectionType 相机连接方式
type ConnectionType int

const (
	ConnectionUnknown ConnectionType = iota
	ConnectionNetwork
	ConnectionUSB
)

func (c ConnectionType) String() string {
	switch c {
	case ConnectionNetwork:
		return "Network"
	case ConnectionUSB:
		return "USB"
	default:
		return "Unknown"
	}
}

// MarshalText 以名称形式输出
func (c ConnectionType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 解析 MarshalText 的输出
func (c *ConnectionType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Network":
		*c = ConnectionNetwork
	case "USB":
		*c = ConnectionUSB
	default:
		*c = ConnectionUnknown
	}
	return nil
}

// ParseConnectionType 根据 SDK 给出的连接类型名称分类
func ParseConnectionType(name string) ConnectionType {
	s := strings.ToLower(name)
	switch {
	case strings.Contains(s, "ether"), strings.Contains(s, "network"), strings.Contains(s, "ip"):
		return ConnectionNetwork
	case strings.Contains(s, "usb"):
		return ConnectionUSB
	default:
		return ConnectionUnknown
	}
}

// MAC 6字节硬件地址
type MAC [6]byte

// ParseMAC 解析 "10:32:2c:7d:c7:b3" 形式的地址
func ParseMAC(s string) (MAC, error) {
	var m MAC
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return m, fmt.Errorf("parse mac %q: must have 6 octets separated by colons", s)
	}
	for i, p := range parts {
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return m, fmt.Errorf("parse mac %q: invalid hex byte %q", s, p)
		}
		m[i] = byte(b)
	}
	return m, nil
}

func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// MarshalText 以冒号分隔的大写十六进制输出
func (m MAC) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText 解析 MarshalText 的输出
func (m *MAC) UnmarshalText(b []byte) error {
	v, err := ParseMAC(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// IPToSDK 将 IPv4 地址打包为 SDK 使用的小端 uint32
func IPToSDK(ip netip.Addr) (uint32, error) {
	if !ip.Is4() {
		return 0, fmt.Errorf("ip %s is not IPv4", ip)
	}
	b := ip.As4()
	return binary.LittleEndian.Uint32(b[:]), nil
}

// IPFromSDK 解包 SDK 的小端 IPv4，0 表示无地址
func IPFromSDK(v uint32) (netip.Addr, bool) {
	if v == 0 {
		return netip.Addr{}, false
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b), true
}

// Camera 从 SDK 相机信息解码出的纯 Go 描述，不引用任何 SDK 内存
type Camera struct {
	Model          string         `json:"model"`
	Name           string         `json:"name"`
	ConnectionType ConnectionType `json:"connection_type"`
	Status         uint32         `json:"status"`
	IP             netip.Addr     `json:"ip,omitzero"`
	MAC            *MAC           `json:"mac,omitempty"`
	SSHSupported   bool           `json:"ssh_supported"`
	USBProductID   int16          `json:"usb_pid,omitempty"` // 0 表示无
}

// IsNetwork 是否为网络相机
func (c Camera) IsNetwork() bool { return c.ConnectionType == ConnectionNetwork }

// IsUSB 是否为 USB 相机
func (c Camera) IsUSB() bool { return c.ConnectionType == ConnectionUSB }

func (c Camera) String() string {
	switch c.ConnectionType {
	case ConnectionNetwork:
		if c.IP.IsValid() {
			return fmt.Sprintf("%s (%s) at %s", c.Model, c.ConnectionType, c.IP)
		}
		return fmt.Sprintf("%s (%s)", c.Model, c.ConnectionType)
	case ConnectionUSB:
		if c.USBProductID != 0 {
			return fmt.Sprintf("%s (%s, PID: %04x)", c.Model, c.ConnectionType, uint16(c.USBProductID))
		}
		return fmt.Sprintf("%s (%s)", c.Model, c.ConnectionType)
	default:
		return c.Model
	}
}

// Describe 解码相机信息；info 为 nil 时返回零值
func Describe(info CameraObjectInfo) Camera {
	if info == nil {
		return Camera{}
	}
	cam := Camera{
		Model:          cleanString(info.Model()),
		Name:           cleanString(info.Name()),
		ConnectionType: ParseConnectionType(info.ConnectionTypeName()),
		Status:         info.ConnectionStatus(),
		SSHSupported:   info.SSHSupport() != 0,
		USBProductID:   info.USBProductID(),
	}
	if ip, ok := IPFromSDK(info.IPAddress()); ok {
		cam.IP = ip
	}
	if raw := info.MACAddress(); len(raw) >= 6 {
		var m MAC
		copy(m[:], raw[:6])
		cam.MAC = &m
	}
	return cam
}

// Discover 枚举相机并解码，枚举结果在返回前总会被释放
func Discover(ctx context.Context, d Driver, timeoutSec uint8) ([]Camera, error) {
	if d == nil {
		return nil, errors.New("discover: nil driver")
	}
	enum, err := d.EnumCameraObjects(ctx, timeoutSec)
	if err != nil {
		return nil, fmt.Errorf("enum camera objects: %w", err)
	}
	if enum == nil {
		return []Camera{}, nil
	}
	owned := NewOwned(enum)
	defer owned.Close()

	n := enum.Count()
	cams := make([]Camera, 0, n)
	for i := uint32(0); i < n; i++ {
		info := enum.CameraObjectInfo(i)
		if info == nil {
			continue
		}
		cams = append(cams, Describe(info))
	}
	return cams, nil
}

// cleanString 去掉尾部 NUL，非法 UTF-8 替换为 U+FFFD
func cleanString(s string) string {
	return strings.ToValidUTF8(strings.TrimRight(s, "\x00"), "\uFFFD")
}
