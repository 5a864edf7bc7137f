package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SharedCache 多个仓实例镜像的外部共享存储
// Get第二个返回值表示缓存中是否存在条目
type SharedCache[T Item] interface {
	Get(ctx context.Context) ([]T, bool, error)
	Put(ctx context.Context, items []T) error
}

// MemoryCache 进程内共享缓存
// 同一网关进程里观察同一父记录的多个仓实例通过它保持一致
type MemoryCache[T Item] struct {
	mu    sync.RWMutex
	items []T
	set   bool
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache[T Item]() *MemoryCache[T] {
	return &MemoryCache[T]{}
}

func (c *MemoryCache[T]) Get(_ context.Context) ([]T, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return nil, false, nil
	}
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out, true, nil
}

func (c *MemoryCache[T]) Put(_ context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]T, len(items))
	copy(c.items, items)
	c.set = true
	return nil
}

// RedisCache redis共享缓存
// 多个网关实例（或多个操作员会话）观察同一父记录时通过redis保持一致
type RedisCache[T Item] struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisCache 创建redis缓存，key形如 "production:42:inputs"
func NewRedisCache[T Item](rdb *redis.Client, key string, ttl time.Duration) *RedisCache[T] {
	return &RedisCache[T]{rdb: rdb, key: key, ttl: ttl}
}

func (c *RedisCache[T]) Get(ctx context.Context) ([]T, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", c.key, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", c.key, err)
	}
	return items, true, nil
}

func (c *RedisCache[T]) Put(ctx context.Context, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", c.key, err)
	}
	if err := c.rdb.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", c.key, err)
	}
	return nil
}
