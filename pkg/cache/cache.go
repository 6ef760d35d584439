// Package cache 提供了按角色缓存权限路径集合的能力。
//
// 缓存只是性能优化：任何使用方都必须在缓存永远为空的情况下保持正确，
// 只是会多走一次数据库。条目自插入起按固定 TTL 过期，过期在读取时
// 惰性判断，没有后台清理协程。
package cache

import (
	"sync"
	"time"
)

// DefaultTTL 是权限路径缓存的默认有效期。
const DefaultTTL = 300 * time.Second

// PathCache 定义了权限路径缓存的契约。实现必须可被多个请求并发调用。
type PathCache interface {
	// Get 返回指定角色缓存的权限路径集合。未命中或已过期时 ok 为 false。
	Get(roleID uint64) (paths map[string]struct{}, ok bool)
	// Set 写入指定角色的权限路径集合，并重置其过期时间。
	Set(roleID uint64, paths map[string]struct{})
	// Invalidate 使指定角色的缓存条目失效。
	Invalidate(roleID uint64)
	// Clear 清空所有缓存条目。
	Clear()
}

type memoryEntry struct {
	paths    map[string]struct{}
	cachedAt time.Time
}

// MemoryCache 是进程内的 PathCache 实现。
// 读取方观察到刚刚过期的条目与并发写入方刷新之间的竞争是允许的：
// 最坏情况只是一次多余的重算，不会产生错误数据。
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[uint64]memoryEntry
	ttl     time.Duration

	// now 可在测试中替换。
	now func() time.Time
}

// NewMemoryCache 创建一个进程内缓存。ttl 为零值时使用 DefaultTTL。
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{
		entries: make(map[uint64]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get 实现 PathCache 接口。
func (c *MemoryCache) Get(roleID uint64) (map[string]struct{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[roleID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.cachedAt) >= c.ttl {
		// 惰性过期：读取时发现过期才删除。
		c.mu.Lock()
		if e, still := c.entries[roleID]; still && c.now().Sub(e.cachedAt) >= c.ttl {
			delete(c.entries, roleID)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.paths, true
}

// Set 实现 PathCache 接口。
func (c *MemoryCache) Set(roleID uint64, paths map[string]struct{}) {
	c.mu.Lock()
	c.entries[roleID] = memoryEntry{paths: paths, cachedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate 实现 PathCache 接口。
func (c *MemoryCache) Invalidate(roleID uint64) {
	c.mu.Lock()
	delete(c.entries, roleID)
	c.mu.Unlock()
}

// Clear 实现 PathCache 接口。
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[uint64]memoryEntry)
	c.mu.Unlock()
}
