package postgres

import (
	"fmt"
	"time"

	"github.com/lk2023060901/xdooria-pet/pkg/config"
)

// DBConfig 单个数据库实例配置
type DBConfig struct {
	Host     string `mapstructure:"host" json:"host" yaml:"host"`
	Port     int    `mapstructure:"port" json:"port" yaml:"port"`
	User     string `mapstructure:"user" json:"user" yaml:"user"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`
	DBName   string `mapstructure:"db_name" json:"db_name" yaml:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode" json:"ssl_mode" yaml:"ssl_mode"` // disable, require, verify-ca, verify-full
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxConns          int32         `mapstructure:"max_conns" json:"max_conns" yaml:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns" json:"min_conns" yaml:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime" json:"max_conn_lifetime" yaml:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time" json:"max_conn_idle_time" yaml:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period" json:"health_check_period" yaml:"health_check_period"`
}

// Config PostgreSQL 配置
type Config struct {
	// 单机模式配置（与主从模式互斥）
	Standalone *DBConfig `mapstructure:"standalone" json:"standalone,omitempty" yaml:"standalone,omitempty"`

	// 主从模式配置（与单机模式互斥）
	Master *DBConfig  `mapstructure:"master" json:"master,omitempty" yaml:"master,omitempty"`
	Slaves []DBConfig `mapstructure:"slaves" json:"slaves,omitempty" yaml:"slaves,omitempty"`

	Pool PoolConfig `mapstructure:"pool" json:"pool" yaml:"pool"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout" json:"query_timeout" yaml:"query_timeout"`

	// 从库负载均衡策略（仅主从模式有效）: random, round_robin
	SlaveLoadBalance string `mapstructure:"slave_load_balance" json:"slave_load_balance,omitempty" yaml:"slave_load_balance,omitempty"`
}

// DefaultConfig 返回默认配置（单机模式）
func DefaultConfig() *Config {
	return &Config{
		Standalone: &DBConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "xdooria_pet",
			SSLMode: "disable",
		},
		Pool: PoolConfig{
			MaxConns:          25,
			MinConns:          2,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
		},
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
	}
}

// mergeWithDefaults 合并默认配置
// 配置了主库时丢弃默认的单机配置，避免两种模式同时生效
func mergeWithDefaults(cfg *Config) (*Config, error) {
	defaults := DefaultConfig()
	if cfg != nil && cfg.Master != nil {
		defaults.Standalone = nil
	}
	return config.MergeConfig(defaults, cfg)
}

// IsStandaloneMode 判断是否为单机模式
func (c *Config) IsStandaloneMode() bool {
	return c.Standalone != nil
}

// IsMasterSlaveMode 判断是否为主从模式
func (c *Config) IsMasterSlaveMode() bool {
	return c.Master != nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.IsStandaloneMode() && c.IsMasterSlaveMode() {
		return fmt.Errorf("%w: standalone and master-slave mode cannot be both configured", ErrInvalidConfig)
	}
	if !c.IsStandaloneMode() && !c.IsMasterSlaveMode() {
		return fmt.Errorf("%w: must configure either standalone or master-slave mode", ErrInvalidConfig)
	}

	if c.IsStandaloneMode() {
		if err := c.Standalone.validate(); err != nil {
			return fmt.Errorf("invalid standalone config: %w", err)
		}
	} else {
		if err := c.Master.validate(); err != nil {
			return fmt.Errorf("invalid master config: %w", err)
		}
		for i := range c.Slaves {
			if err := c.Slaves[i].validate(); err != nil {
				return fmt.Errorf("invalid slave %d config: %w", i, err)
			}
		}
	}

	switch {
	case c.Pool.MaxConns <= 0:
		return fmt.Errorf("%w: max_conns must be positive", ErrInvalidConfig)
	case c.Pool.MinConns < 0:
		return fmt.Errorf("%w: min_conns must be non-negative", ErrInvalidConfig)
	case c.Pool.MinConns > c.Pool.MaxConns:
		return fmt.Errorf("%w: min_conns cannot be greater than max_conns", ErrInvalidConfig)
	}

	switch c.SlaveLoadBalance {
	case "", "random", "round_robin":
	default:
		return fmt.Errorf("%w: unknown slave_load_balance %q", ErrInvalidConfig, c.SlaveLoadBalance)
	}

	return nil
}

func (d *DBConfig) validate() error {
	switch {
	case d.Host == "":
		return fmt.Errorf("%w: host is empty", ErrInvalidConfig)
	case d.Port <= 0 || d.Port > 65535:
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, d.Port)
	case d.User == "":
		return fmt.Errorf("%w: user is empty", ErrInvalidConfig)
	case d.DBName == "":
		return fmt.Errorf("%w: db_name is empty", ErrInvalidConfig)
	}
	return nil
}

// connString 构建连接字符串
func (d *DBConfig) connString(connectTimeout time.Duration) string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.DBName,
		sslMode,
		int(connectTimeout.Seconds()),
	)
}
