package event

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestEvent_String(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"connected", Connected{Version: 3}, "Connected (protocol v3)"},
		{"disconnected_user", Disconnected{}, "Disconnected"},
		{"disconnected_error", Disconnected{Error: 0x8201}, "Disconnected (error: 0x00008201)"},
		{"property_changed", PropertyChanged{Codes: []uint32{1, 2, 3}}, "PropertyChanged (3 properties)"},
		{"lv_property_changed", LvPropertyChanged{Codes: []uint32{1}}, "LiveViewPropertyChanged (1 properties)"},
		{"download", DownloadComplete{Filename: "DSC00001.JPG"}, "DownloadComplete: DSC00001.JPG"},
		{"contents_transfer", ContentsTransfer{Notify: 2}, "ContentsTransfer (notify: 2)"},
		{"warning", Warning{Code: 0x00020003}, "Warning: 0x00020003"},
		{"warning_ext", WarningExt{Code: 0x00060001, Param1: 2, Param2: -1, Param3: 0}, "Warning: 0x00060001 (2, -1, 0)"},
		{"error", Error{Code: 0x8300}, "Error: 0x00008300"},
		{"remote_progress", RemoteTransferProgress{Percent: 42}, "RemoteTransferProgress: 42%"},
		{"remote_data", RemoteTransferData{Percent: 100, Data: make([]byte, 16), Size: 16}, "RemoteTransferData: 100% (16 bytes)"},
		{"contents_list", ContentsListChanged{Added: 5}, "ContentsListChanged: 5 items added"},
		{"firmware", FirmwareUpdateResult{Notify: 7}, "FirmwareUpdateResult (notify: 7)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ev.String())
		})
	}
}

func TestKinds_CoverEveryVariant(t *testing.T) {
	variants := []Event{
		Connected{}, Disconnected{}, PropertyChanged{}, LvPropertyChanged{},
		DownloadComplete{}, ContentsTransfer{}, Warning{}, WarningExt{}, Error{},
		RemoteTransferProgress{}, RemoteTransferData{}, ContentsListChanged{},
		FirmwareUpdateResult{},
	}
	kinds := Kinds()
	require.Len(t, kinds, len(variants))

	seen := make(map[Kind]bool)
	for _, v := range variants {
		assert.Contains(t, kinds, v.Kind())
		assert.False(t, seen[v.Kind()], "duplicate kind %s", v.Kind())
		seen[v.Kind()] = true
	}
}

func TestConstructors_CopyInput(t *testing.T) {
	codes := []uint32{0x0016, 0x0017}
	pc := NewPropertyChanged(codes)
	codes[0] = 0
	assert.Equal(t, []uint32{0x0016, 0x0017}, pc.Codes)

	empty := NewLvPropertyChanged(nil)
	assert.NotNil(t, empty.Codes)
	assert.Len(t, empty.Codes, 0)

	data := []byte{9, 8, 7}
	rd := NewRemoteTransferData(1, 50, data, 3)
	data[0] = 0
	assert.Equal(t, []byte{9, 8, 7}, rd.Data)
	assert.Equal(t, uint64(3), rd.Size)

	assert.Nil(t, NewRemoteTransferData(1, 0, nil, 0).Data)
}

func TestFormatCodes(t *testing.T) {
	assert.Equal(t, "[]", FormatCodes(nil))
	assert.Equal(t, "[0x0016 0x0017]", FormatCodes([]uint32{0x16, 0x17}))
	assert.Equal(t, "[0x00020003]", FormatCodes([]uint32{0x00020003}))
}

func TestFields(t *testing.T) {
	assert.Nil(t, Fields(nil))

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range Fields(WarningExt{Code: 0x00060001, Param1: 2, Param2: 3, Param3: 4}) {
		f.AddTo(enc)
	}
	assert.Equal(t, "camera.warning_ext", enc.Fields["event_type"])
	assert.Equal(t, "0x00060001", enc.Fields["code"])
	assert.Equal(t, int32(2), enc.Fields["param1"])
	assert.Equal(t, int32(4), enc.Fields["param3"])

	enc = zapcore.NewMapObjectEncoder()
	for _, f := range Fields(RemoteTransferData{Notify: 1, Percent: 10, Data: make([]byte, 8), Size: 8}) {
		f.AddTo(enc)
	}
	assert.Equal(t, int64(8), enc.Fields["bytes"])
	assert.Equal(t, uint64(8), enc.Fields["size"])
}

func TestCodeTable_Describe(t *testing.T) {
	table := DefaultCodeTable()

	assert.Equal(t, "Storage Full", table.Name(WarningStorageFull))
	assert.Equal(t, "Unknown Warning", table.Name(0xFFFFFFFF))
	for code, name := range map[uint32]string{
		WarningUnknown:          "Unknown",
		WarningReconnected:      "Reconnected",
		WarningReconnecting:     "Reconnecting",
		WarningNetworkError:     "Network Error",
		WarningNetworkRecovered: "Network Recovered",
		WarningFrameNotUpdated:  "Frame Not Updated",
		WarningAlreadyConnected: "Already Connected",
	} {
		assert.Equal(t, name, table.Name(code))
	}
	assert.Equal(t, "Warning: 0x00020003 (Storage Full)", table.Describe(Warning{Code: WarningStorageFull}))
	assert.Equal(t, "AF Status: Focused (AF-S)", table.Describe(WarningExt{Code: WarningExtAFStatus, Param1: 0x02}))
	assert.Equal(t, "Warning: 0x00060001 (99, 0, 0) (AF Status)", table.Describe(WarningExt{Code: WarningExtAFStatus, Param1: 99}))
	assert.Equal(t, "Connected (protocol v1)", table.Describe(Connected{Version: 1}))
	assert.Equal(t, "", table.Describe(nil))

	var nilTable *CodeTable
	assert.Equal(t, "Unknown Warning", nilTable.Name(WarningStorageFull))
}

func TestCodeTable_LoadAndMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warnings.yaml")
	content := `names:
  0x00020003: "存储卡已满"
  0x00029999: "Custom Warning"
params:
  0x00060002:
    6: "Busy"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := LoadCodeTable(path)
	require.NoError(t, err)
	assert.Equal(t, "Custom Warning", loaded.Name(0x00029999))

	table := DefaultCodeTable()
	table.Merge(loaded)
	table.Merge(table)
	assert.Equal(t, "存储卡已满", table.Name(WarningStorageFull))
	assert.Equal(t, "Reconnected", table.Name(WarningReconnected))

	desc, ok := table.ParamDescription(WarningExtOperationResult, 6)
	require.True(t, ok)
	assert.Equal(t, "Busy", desc)
	desc, ok = table.ParamDescription(WarningExtOperationResult, 1)
	require.True(t, ok)
	assert.Equal(t, "OK", desc)
}

func TestLoadCodeTable_Errors(t *testing.T) {
	_, err := LoadCodeTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("names: [not, a, map]"), 0o644))
	_, err = LoadCodeTable(path)
	assert.Error(t, err)
}
