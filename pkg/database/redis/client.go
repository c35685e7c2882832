// Package redis 封装 go-redis，支持单机、主从读写分离与集群模式
package redis

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient 内部 Redis 客户端接口（隐藏 go-redis 类型）
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	PoolStats() *redis.PoolStats
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Client Redis 客户端
type Client struct {
	master     redisClient   // 主节点（或单机/集群客户端）
	slaves     []redisClient // 从节点列表（主从模式）
	cfg        *Config
	slaveIndex atomic.Uint64 // round_robin 计数器
}

// NewClient 创建 Redis 客户端
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{cfg: cfg}

	switch {
	case cfg.IsStandalone():
		client.master = redis.NewClient(nodeOptions(cfg.Standalone, &cfg.Pool))
	case cfg.IsMasterSlave():
		client.master = redis.NewClient(nodeOptions(cfg.Master, &cfg.Pool))
		for i := range cfg.Slaves {
			client.slaves = append(client.slaves, redis.NewClient(nodeOptions(&cfg.Slaves[i], &cfg.Pool)))
		}
	default:
		client.master = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           cfg.Cluster.Addrs,
			Password:        cfg.Cluster.Password,
			MaxIdleConns:    cfg.Pool.MaxIdleConns,
			MaxActiveConns:  cfg.Pool.MaxOpenConns,
			ConnMaxLifetime: cfg.Pool.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Pool.ConnMaxIdleTime,
			DialTimeout:     cfg.Pool.DialTimeout,
			ReadTimeout:     cfg.Pool.ReadTimeout,
			WriteTimeout:    cfg.Pool.WriteTimeout,
			PoolTimeout:     cfg.Pool.PoolTimeout,
		})
	}

	return client, nil
}

func nodeOptions(node *NodeConfig, pool *PoolConfig) *redis.Options {
	return &redis.Options{
		Addr:            node.Addr(),
		Password:        node.Password,
		DB:              node.DB,
		MaxIdleConns:    pool.MaxIdleConns,
		MaxActiveConns:  pool.MaxOpenConns,
		ConnMaxLifetime: pool.ConnMaxLifetime,
		ConnMaxIdleTime: pool.ConnMaxIdleTime,
		DialTimeout:     pool.DialTimeout,
		ReadTimeout:     pool.ReadTimeout,
		WriteTimeout:    pool.WriteTimeout,
		PoolTimeout:     pool.PoolTimeout,
	}
}

// getMaster 获取主节点（用于写操作）
func (c *Client) getMaster() redisClient {
	return c.master
}

// getSlave 获取从节点（用于读操作），无从节点时返回主节点
func (c *Client) getSlave() redisClient {
	if len(c.slaves) == 0 {
		return c.master
	}

	switch c.cfg.GetSlaveLoadBalance() {
	case "round_robin":
		index := c.slaveIndex.Add(1) % uint64(len(c.slaves))
		return c.slaves[index]
	default:
		return c.slaves[rand.Intn(len(c.slaves))]
	}
}

// Ping 测试连接
func (c *Client) Ping(ctx context.Context) error {
	if err := c.master.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("master ping failed: %w", err)
	}

	for i, slave := range c.slaves {
		if err := slave.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("slave[%d] ping failed: %w", i, err)
		}
	}

	return nil
}

// PoolStats 获取主节点连接池统计信息
func (c *Client) PoolStats() PoolStats {
	stats := c.master.PoolStats()
	return PoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

// Close 关闭客户端
func (c *Client) Close() error {
	if err := c.master.Close(); err != nil {
		return fmt.Errorf("failed to close master: %w", err)
	}

	for i, slave := range c.slaves {
		if err := slave.Close(); err != nil {
			return fmt.Errorf("failed to close slave[%d]: %w", i, err)
		}
	}

	return nil
}
