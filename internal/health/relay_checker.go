package health

import (
	"context"
	"time"
)

// BacklogSource 会话事件积压来源
type BacklogSource interface {
	Count() int
	MaxBacklog() int
}

// RelayChecker 事件通道积压检查器。
// 通道不限容量，积压超过水位只标记为降级，不影响就绪。
type RelayChecker struct {
	source    BacklogSource
	highWater int
}

// NewRelayChecker 创建积压检查器，highWater<=0 时不判断水位
func NewRelayChecker(source BacklogSource, highWater int) *RelayChecker {
	return &RelayChecker{source: source, highWater: highWater}
}

func (c *RelayChecker) Name() string {
	return "relay"
}

func (c *RelayChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	backlog := c.source.MaxBacklog()
	status := StatusHealthy
	message := "ok"
	if c.highWater > 0 && backlog >= c.highWater {
		status = StatusDegraded
		message = "consumer falling behind"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"sessions":    c.source.Count(),
			"max_backlog": backlog,
			"high_water":  c.highWater,
		},
		Latency: time.Since(start),
	}
}
