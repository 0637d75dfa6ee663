package event

import (
	"go.uber.org/zap"
)

// Fields 将事件展开为结构化日志字段
func Fields(ev Event) []zap.Field {
	if ev == nil {
		return nil
	}
	fields := []zap.Field{zap.String("event_type", string(ev.Kind()))}

	switch e := ev.(type) {
	case Connected:
		fields = append(fields, zap.Uint32("version", e.Version))
	case Disconnected:
		fields = append(fields, zap.Uint32("error", e.Error))
	case PropertyChanged:
		fields = append(fields, zap.Int("count", len(e.Codes)), zap.String("codes", FormatCodes(e.Codes)))
	case LvPropertyChanged:
		fields = append(fields, zap.Int("count", len(e.Codes)), zap.String("codes", FormatCodes(e.Codes)))
	case DownloadComplete:
		fields = append(fields, zap.String("filename", e.Filename))
	case ContentsTransfer:
		fields = append(fields,
			zap.Uint32("notify", e.Notify),
			zap.Uint64("handle", e.Handle),
			zap.String("filename", e.Filename))
	case Warning:
		fields = append(fields, zap.String("code", hex32(e.Code)))
	case WarningExt:
		fields = append(fields,
			zap.String("code", hex32(e.Code)),
			zap.Int32("param1", e.Param1),
			zap.Int32("param2", e.Param2),
			zap.Int32("param3", e.Param3))
	case Error:
		fields = append(fields, zap.String("code", hex32(e.Code)))
	case RemoteTransferProgress:
		fields = append(fields,
			zap.Uint32("notify", e.Notify),
			zap.Uint32("percent", e.Percent),
			zap.String("filename", e.Filename))
	case RemoteTransferData:
		fields = append(fields,
			zap.Uint32("notify", e.Notify),
			zap.Uint32("percent", e.Percent),
			zap.Int("bytes", len(e.Data)),
			zap.Uint64("size", e.Size))
	case ContentsListChanged:
		fields = append(fields,
			zap.Uint32("notify", e.Notify),
			zap.Uint32("slot", e.Slot),
			zap.Uint32("added", e.Added))
	case FirmwareUpdateResult:
		fields = append(fields, zap.Uint32("notify", e.Notify))
	}
	return fields
}
