package app

import (
	"github.com/taoyao-code/crsdk-bridge/internal/health"
)

// NewHealthAggregator 创建健康检查聚合器
func NewHealthAggregator(sdkState health.SDKState, backlog health.BacklogSource, highWater int) *health.Aggregator {
	return health.NewAggregator(
		health.NewSDKChecker(sdkState),
		health.NewRelayChecker(backlog, highWater),
	)
}
