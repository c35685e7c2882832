package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Get 获取字符串值（从从库读取），键不存在时返回 ErrNil
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.getSlave().Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNil
		}
		return "", fmt.Errorf("get failed: %w", err)
	}
	return val, nil
}

// Set 设置字符串值（写入主库），expiration 为 0 表示不过期
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := c.getMaster().Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Del 删除键，返回实际删除的数量
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.getMaster().Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("del failed: %w", err)
	}
	return n, nil
}

// Exists 检查键是否存在（从主库读取，避免复制延迟）
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.getMaster().Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("exists failed: %w", err)
	}
	return n, nil
}

// TTL 获取键的剩余过期时间
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.getMaster().TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ttl failed: %w", err)
	}
	return ttl, nil
}
