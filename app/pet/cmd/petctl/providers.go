package main

import (
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/catalog"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/dao"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/event"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/policy"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/repository"
	"github.com/lk2023060901/xdooria-pet/pkg/app"
	"github.com/lk2023060901/xdooria-pet/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-pet/pkg/database/redis"
	"github.com/lk2023060901/xdooria-pet/pkg/idgen"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
	"github.com/lk2023060901/xdooria-pet/pkg/mq/kafka"
)

// defaultEventTopic 未配置 events.topic 时使用
const defaultEventTopic = "pet-events"

// providePostgresConfig 提供 PostgreSQL 配置
func providePostgresConfig(cfg *Config) *postgres.Config {
	return &cfg.Database
}

// providePostgresClient 创建 PostgreSQL 客户端
func providePostgresClient(pgCfg *postgres.Config, l logger.Logger) (*postgres.Client, func(), error) {
	client, err := postgres.New(pgCfg, postgres.WithLogger(l))
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// provideMetricsConfig 提供指标配置
func provideMetricsConfig(cfg *Config) *metrics.Config {
	return &cfg.Metrics
}

// provideCatalogConfig 提供配置表位置
func provideCatalogConfig(cfg *Config) *catalog.Config {
	return &cfg.Catalog
}

// providePolicy 校验数值配置，缺省键已在加载时由 policy.Defaults 填入
func providePolicy(cfg *Config) (*policy.Config, error) {
	return policy.Resolve(cfg.Policy)
}

// provideIDGenConfig 提供 ID 生成配置
func provideIDGenConfig(cfg *Config) *idgen.Config {
	return &cfg.IDGen
}

// provideOwnershipCache 配置了 Redis 时返回缓存，否则返回 nil，仓储直接读库
func provideOwnershipCache(cfg *Config, l logger.Logger, m *metrics.PetMetrics) (repository.OwnershipCache, func(), error) {
	if cfg.Redis == nil {
		return nil, func() {}, nil
	}

	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := rdb.Close(); err != nil {
			l.Warn("failed to close redis client", "error", err)
		}
	}
	return dao.NewCacheDAO(rdb, cfg.Cache.TTL, l, m), cleanup, nil
}

// providePublisher 配置了 Kafka 时发布事件，否则丢弃
func providePublisher(cfg *Config, l logger.Logger, m *metrics.PetMetrics) (event.Publisher, func(), error) {
	if cfg.Kafka == nil {
		return event.NoopPublisher{}, func() {}, nil
	}

	client, err := kafka.New(cfg.Kafka,
		kafka.WithLogger(l),
		kafka.WithProducerMiddleware(
			kafka.ProducerRecoveryMiddleware(l),
			kafka.ProducerHeaderMiddleware(map[string]string{"source": app.AppName}),
			kafka.ProducerLoggingMiddleware(l),
		),
	)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("failed to close kafka client", "error", err)
		}
	}

	topic := cfg.Events.Topic
	if topic == "" {
		topic = defaultEventTopic
	}
	producer, err := client.Producer(topic)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return event.NewKafkaPublisher(producer, l, m), cleanup, nil
}
