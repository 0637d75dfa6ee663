package app

import (
	"github.com/taoyao-code/crsdk-bridge/internal/event"
	"go.uber.org/zap"
)

// LoadCodeTable 加载告警码表：内置表为底，配置文件中的条目覆盖
func LoadCodeTable(path string, logger *zap.Logger) *event.CodeTable {
	table := event.DefaultCodeTable()
	if path == "" {
		return table
	}
	extra, err := event.LoadCodeTable(path)
	if err != nil {
		logger.Warn("load warning code table failed, using built-in table", zap.String("path", path), zap.Error(err))
		return table
	}
	table.Merge(extra)
	logger.Info("warning code table loaded", zap.String("path", path))
	return table
}
