// Package postgres 基于 pgxpool 的 PostgreSQL 客户端，支持单机与主从模式
package postgres

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

// Client PostgreSQL 客户端
type Client struct {
	master *pgxpool.Pool   // 主库连接池（单机模式或主从模式的写库）
	slaves []*pgxpool.Pool // 从库连接池（仅主从模式）
	cfg    *Config
	logger logger.Logger

	slaveIndex atomic.Uint64 // round_robin 计数器
}

// Option 客户端选项
type Option func(*Client)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.Named("postgres")
		}
	}
}

// New 创建 PostgreSQL 客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	newCfg, err := mergeWithDefaults(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{
		cfg:    newCfg,
		logger: logger.NewNoop(),
	}
	for _, opt := range opts {
		opt(client)
	}

	primary := newCfg.Standalone
	if newCfg.IsMasterSlaveMode() {
		primary = newCfg.Master
	}

	client.master, err = createPool(newCfg, primary)
	if err != nil {
		return nil, fmt.Errorf("failed to create master pool: %w", err)
	}

	// 从库连接失败不阻止启动，读流量回落到主库
	for i := range newCfg.Slaves {
		if newCfg.IsStandaloneMode() {
			break
		}
		slave, err := createPool(newCfg, &newCfg.Slaves[i])
		if err != nil {
			client.logger.Warn("failed to create slave pool", "index", i, "error", err)
			continue
		}
		client.slaves = append(client.slaves, slave)
	}

	client.logger.Info("postgres connected",
		"host", primary.Host,
		"db", primary.DBName,
		"slaves", len(client.slaves),
	)

	return client, nil
}

// getMaster 获取主库连接池
func (c *Client) getMaster() *pgxpool.Pool {
	return c.master
}

// getSlave 获取从库连接池，无从库时返回主库
func (c *Client) getSlave() *pgxpool.Pool {
	if len(c.slaves) == 0 {
		return c.master
	}

	switch c.cfg.SlaveLoadBalance {
	case "round_robin":
		idx := c.slaveIndex.Add(1)
		return c.slaves[idx%uint64(len(c.slaves))]
	default:
		return c.slaves[rand.Intn(len(c.slaves))]
	}
}

// Close 关闭客户端
func (c *Client) Close() {
	if c.master != nil {
		c.master.Close()
	}
	for _, slave := range c.slaves {
		slave.Close()
	}
}

// Ping 检查数据库连接，从库失败只记录日志
func (c *Client) Ping(ctx context.Context) error {
	if err := c.master.Ping(ctx); err != nil {
		return fmt.Errorf("master ping failed: %w", err)
	}

	for i, slave := range c.slaves {
		if err := slave.Ping(ctx); err != nil {
			c.logger.Warn("slave ping failed", "index", i, "error", err)
		}
	}

	return nil
}

// Stats 获取主库连接池状态
func (c *Client) Stats() *PoolStats {
	return newPoolStats(c.master.Stat())
}

// Config 返回合并后的配置
func (c *Client) Config() *Config {
	return c.cfg
}

// createPool 创建连接池
func createPool(cfg *Config, dbCfg *DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbCfg.connString(cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = cfg.Pool.MaxConns
	poolConfig.MinConns = cfg.Pool.MinConns
	poolConfig.MaxConnLifetime = cfg.Pool.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Pool.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.Pool.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
