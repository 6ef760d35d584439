package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"iam-core-go/pkg/log"
)

// RedisCache 是 Redis 版的 PathCache 实现，供多实例部署共享权限缓存。
// TTL 由 Redis 键过期承担，契约与 MemoryCache 完全一致。
// Redis 故障被当作缓存未命中处理：缓存不是正确性的来源。
type RedisCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewRedisCache 创建一个 Redis 缓存。ttl 为零值时使用 DefaultTTL。
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl, keyPrefix: "authz:role_paths:"}
}

func (c *RedisCache) key(roleID uint64) string {
	return fmt.Sprintf("%s%d", c.keyPrefix, roleID)
}

// Get 实现 PathCache 接口。
func (c *RedisCache) Get(roleID uint64) (map[string]struct{}, bool) {
	members, err := c.rdb.SMembers(context.Background(), c.key(roleID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warnf("读取权限路径缓存失败, roleID: %d, error: %v", roleID, err)
		}
		return nil, false
	}
	if len(members) == 0 {
		return nil, false
	}
	paths := make(map[string]struct{}, len(members))
	for _, m := range members {
		paths[m] = struct{}{}
	}
	return paths, true
}

// Set 实现 PathCache 接口。集合整体替换，过期时间重置。
func (c *RedisCache) Set(roleID uint64, paths map[string]struct{}) {
	if len(paths) == 0 {
		return
	}
	key := c.key(roleID)
	members := make([]interface{}, 0, len(paths))
	for p := range paths {
		members = append(members, p)
	}
	ctx := context.Background()
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warnf("写入权限路径缓存失败, roleID: %d, error: %v", roleID, err)
	}
}

// Invalidate 实现 PathCache 接口。
func (c *RedisCache) Invalidate(roleID uint64) {
	if err := c.rdb.Del(context.Background(), c.key(roleID)).Err(); err != nil {
		log.Warnf("失效权限路径缓存失败, roleID: %d, error: %v", roleID, err)
	}
}

// Clear 实现 PathCache 接口。按前缀扫描删除，只用于测试与运维兜底。
func (c *RedisCache) Clear() {
	ctx := context.Background()
	iter := c.rdb.Scan(ctx, 0, c.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warnf("清空权限路径缓存失败, key: %s, error: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Warnf("扫描权限路径缓存失败: %v", err)
	}
}
