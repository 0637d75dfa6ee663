package health

import (
	"context"
	"time"
)

// SDKState SDK 初始化状态来源
type SDKState interface {
	Initialized() bool
	Version() uint32
}

// SDKChecker SDK 健康检查器
type SDKChecker struct {
	sdk SDKState
}

// NewSDKChecker 创建 SDK 健康检查器
func NewSDKChecker(sdk SDKState) *SDKChecker {
	return &SDKChecker{sdk: sdk}
}

func (c *SDKChecker) Name() string {
	return "sdk"
}

func (c *SDKChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if !c.sdk.Initialized() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "sdk not initialized",
			Latency: time.Since(start),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: map[string]interface{}{
			"version": c.sdk.Version(),
		},
		Latency: time.Since(start),
	}
}
