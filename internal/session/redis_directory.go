package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis Key设计
const (
	// bridge:session:{id} -> Info JSON
	keySessionPrefix = "bridge:session:"

	// bridge:server:{serverID}:sessions -> Set[id]
	keyServerPrefix = "bridge:server:"
)

// RedisDirectory Redis版本的会话目录，支持多实例部署
type RedisDirectory struct {
	client   *redis.Client
	serverID string
	ttl      time.Duration // 会话条目过期时间，由 RunDirectoryRefresh 续期
}

// NewRedisDirectory 创建 Redis 会话目录；serverID 为空时自动生成
func NewRedisDirectory(client *redis.Client, serverID string, ttl time.Duration) *RedisDirectory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if serverID == "" {
		serverID = uuid.New().String()
	}
	return &RedisDirectory{client: client, serverID: serverID, ttl: ttl}
}

// ServerID 当前实例ID
func (d *RedisDirectory) ServerID() string {
	return d.serverID
}

func (d *RedisDirectory) Publish(ctx context.Context, info Info) error {
	info.ServerID = d.serverID
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal session info: %w", err)
	}

	pipe := d.client.TxPipeline()
	pipe.Set(ctx, keySessionPrefix+info.ID, data, d.ttl)
	pipe.SAdd(ctx, d.serverKey(), info.ID)
	// 实例异常退出后集合随会话条目一起过期
	pipe.Expire(ctx, d.serverKey(), d.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish session %s: %w", info.ID, err)
	}
	return nil
}

func (d *RedisDirectory) Remove(ctx context.Context, id string) error {
	pipe := d.client.TxPipeline()
	pipe.Del(ctx, keySessionPrefix+id)
	pipe.SRem(ctx, d.serverKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove session %s: %w", id, err)
	}
	return nil
}

// List 扫描所有实例的会话
func (d *RedisDirectory) List(ctx context.Context) ([]Info, error) {
	var (
		cursor uint64
		infos  []Info
	)
	for {
		keys, next, err := d.client.Scan(ctx, cursor, keySessionPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan sessions: %w", err)
		}
		if len(keys) > 0 {
			vals, err := d.client.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, fmt.Errorf("mget sessions: %w", err)
			}
			for _, v := range vals {
				s, ok := v.(string)
				if !ok {
					// 扫描与读取之间条目已过期
					continue
				}
				var info Info
				if err := json.Unmarshal([]byte(s), &info); err != nil {
					continue
				}
				infos = append(infos, info)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if infos == nil {
		infos = []Info{}
	}
	sortInfos(infos)
	return infos, nil
}

// Cleanup 清理本实例的所有会话条目（用于优雅关闭）
func (d *RedisDirectory) Cleanup(ctx context.Context) error {
	ids, err := d.client.SMembers(ctx, d.serverKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("list server sessions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, keySessionPrefix+id)
	}
	keys = append(keys, d.serverKey())
	return d.client.Del(ctx, keys...).Err()
}

// LocalCount 本实例登记的会话条目数
func (d *RedisDirectory) LocalCount(ctx context.Context) (int64, error) {
	return d.client.SCard(ctx, d.serverKey()).Result()
}

func (d *RedisDirectory) serverKey() string {
	return fmt.Sprintf("%s%s:sessions", keyServerPrefix, d.serverID)
}
