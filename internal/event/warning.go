package event

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// 常用告警码
const (
	WarningUnknown            uint32 = 0x00020000
	WarningReconnected        uint32 = 0x00020001
	WarningReconnecting       uint32 = 0x00020002
	WarningStorageFull        uint32 = 0x00020003
	WarningNetworkError       uint32 = 0x00020007
	WarningNetworkRecovered   uint32 = 0x00020008
	WarningFrameNotUpdated    uint32 = 0x00020010
	WarningAlreadyConnected   uint32 = 0x00020012
	WarningExtAFStatus        uint32 = 0x00060001
	WarningExtOperationResult uint32 = 0x00060002
)

// CodeTable 告警码 -> 可读名称 的映射表，仅用于展示，不参与事件过滤
type CodeTable struct {
	mu     sync.RWMutex
	Names  map[uint32]string           `yaml:"names"`
	Params map[uint32]map[int32]string `yaml:"params"` // 告警码 -> 参数1 -> 描述
}

// DefaultCodeTable 返回内置的告警码表
func DefaultCodeTable() *CodeTable {
	return &CodeTable{
		Names: map[uint32]string{
			// 标准告警 (0x0002xxxx)
			WarningUnknown:          "Unknown",
			WarningReconnected:      "Reconnected",
			WarningReconnecting:     "Reconnecting",
			WarningStorageFull:      "Storage Full",
			0x00020004:              "SetFileName Failed",
			0x00020005:              "GetImage Failed",
			WarningNetworkError:     "Network Error",
			WarningNetworkRecovered: "Network Recovered",
			0x00020009:              "Format Failed",
			0x0002000A:              "Format Invalid",
			0x0002000B:              "Format Complete",
			WarningFrameNotUpdated:  "Frame Not Updated",
			WarningAlreadyConnected: "Already Connected",

			// 扩展告警 (0x0006xxxx)
			0x00060000:                "Ext Unknown",
			WarningExtAFStatus:        "AF Status",
			WarningExtOperationResult: "Operation Results",
			0x00060003:                "Operation Invalid",
			0x00060004:                "PTZF Result",
			0x00060005:                "Preset PTZF Clear",
			0x00060006:                "Preset PTZF Set",
			0x00060007:                "Preset PTZF Event",
		},
		Params: map[uint32]map[int32]string{
			WarningExtAFStatus: {
				0x01: "Unlocked",
				0x02: "Focused (AF-S)",
				0x03: "Not Focused (AF-S)",
				0x05: "Tracking Subject (AF-C)",
				0x06: "Focused (AF-C)",
				0x07: "Not Focused (AF-C)",
				0x08: "Unpaused",
				0x09: "Paused",
			},
			WarningExtOperationResult: {
				0: "Invalid",
				1: "OK",
				2: "NG",
				3: "Invalid Parameter",
				4: "Camera Status Error",
				5: "Canceled",
			},
		},
	}
}

// LoadCodeTable 从 YAML 文件加载告警码表
func LoadCodeTable(path string) (*CodeTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read code table: %w", err)
	}
	var t CodeTable
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("unmarshal code table: %w", err)
	}
	if t.Names == nil {
		t.Names = make(map[uint32]string)
	}
	if t.Params == nil {
		t.Params = make(map[uint32]map[int32]string)
	}
	return &t, nil
}

// Merge 合并另一张表，other 中的条目覆盖当前条目
func (t *CodeTable) Merge(other *CodeTable) {
	if t == nil || other == nil || t == other {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Names == nil {
		t.Names = make(map[uint32]string)
	}
	for k, v := range other.Names {
		t.Names[k] = v
	}
	if t.Params == nil {
		t.Params = make(map[uint32]map[int32]string)
	}
	for code, params := range other.Params {
		dst, ok := t.Params[code]
		if !ok {
			dst = make(map[int32]string, len(params))
			t.Params[code] = dst
		}
		for p, desc := range params {
			dst[p] = desc
		}
	}
}

// Name 返回告警码名称，未知时返回 "Unknown Warning"
func (t *CodeTable) Name(code uint32) string {
	if t == nil {
		return "Unknown Warning"
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if name, ok := t.Names[code]; ok {
		return name
	}
	return "Unknown Warning"
}

// ParamDescription 返回扩展告警参数1的描述
func (t *CodeTable) ParamDescription(code uint32, p1 int32) (string, bool) {
	if t == nil {
		return "", false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	desc, ok := t.Params[code][p1]
	return desc, ok
}

// Describe 返回告警类事件的可读描述；非告警事件返回 ev.String()
func (t *CodeTable) Describe(ev Event) string {
	switch e := ev.(type) {
	case Warning:
		return fmt.Sprintf("%s (%s)", e.String(), t.Name(e.Code))
	case WarningExt:
		if desc, ok := t.ParamDescription(e.Code, e.Param1); ok {
			return fmt.Sprintf("%s: %s", t.Name(e.Code), desc)
		}
		return fmt.Sprintf("%s (%s)", e.String(), t.Name(e.Code))
	case nil:
		return ""
	default:
		return ev.String()
	}
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
