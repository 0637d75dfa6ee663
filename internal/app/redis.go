package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	cfgpkg "github.com/taoyao-code/crsdk-bridge/internal/config"
	"github.com/taoyao-code/crsdk-bridge/internal/health"
	"github.com/taoyao-code/crsdk-bridge/internal/session"
	"go.uber.org/zap"
)

// NewRedisClient 创建Redis客户端；未启用时返回 nil
func NewRedisClient(ctx context.Context, cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enable {
		logger.Info("redis is disabled, skipping initialization")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize))

	return client, nil
}

// NewSessionDirectory 创建会话目录：启用 Redis 时跨实例共享，否则仅本地可见
func NewSessionDirectory(ctx context.Context, client *redis.Client, serverID string, cfg cfgpkg.RedisConfig, logger *zap.Logger) session.Directory {
	if client == nil {
		return session.NewMemoryDirectory(serverID)
	}
	dir := session.NewRedisDirectory(client, serverID, cfg.SessionTTL)
	// 清理本实例上次运行残留的条目
	if err := dir.Cleanup(ctx); err != nil {
		logger.Warn("cleanup stale session directory entries failed", zap.Error(err))
	}
	return dir
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redis.Client, dir session.Directory) {
	if redisClient == nil {
		return
	}
	counter, _ := dir.(health.DirectoryCounter)
	aggregator.AddChecker(health.NewRedisChecker(redisClient, counter))
}
