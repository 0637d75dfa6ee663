package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DirectoryCounter 会话目录中本实例的条目数
type DirectoryCounter interface {
	LocalCount(ctx context.Context) (int64, error)
}

// RedisChecker 会话目录（Redis）健康检查器。
// 目录只用于跨实例查询，不可用时事件转发不受影响，因此最多标记为降级。
type RedisChecker struct {
	client   *redis.Client
	dir      DirectoryCounter
	slowPing time.Duration
}

// NewRedisChecker 创建检查器；dir 可为 nil
func NewRedisChecker(client *redis.Client, dir DirectoryCounter) *RedisChecker {
	return &RedisChecker{client: client, dir: dir, slowPing: 200 * time.Millisecond}
}

func (c *RedisChecker) Name() string {
	return "redis"
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}
	ping := time.Since(start)

	stats := c.client.PoolStats()
	details := map[string]interface{}{
		"ping_ms":     ping.Milliseconds(),
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"timeouts":    stats.Timeouts,
	}

	status, message := StatusHealthy, "ok"
	if ping > c.slowPing {
		status, message = StatusDegraded, "slow ping"
	}
	if stats.Timeouts > 0 && stats.Timeouts >= stats.Hits {
		status, message = StatusDegraded, "connection pool timeouts"
	}

	if c.dir != nil {
		n, err := c.dir.LocalCount(ctx)
		if err != nil {
			status, message = StatusDegraded, fmt.Sprintf("read directory: %v", err)
		} else {
			details["local_sessions"] = n
		}
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
