//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/catalog"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/dao"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/progression"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/repository"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/service"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store"
	"github.com/lk2023060901/xdooria-pet/pkg/idgen"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

func InitCLI(cfg *Config, l logger.Logger) (*CLI, func(), error) {
	panic(wire.Build(
		// 1. PostgreSQL 配置和客户端
		providePostgresConfig,
		providePostgresClient,

		// 2. 指标收集
		provideMetricsConfig,
		metrics.New,

		// 3. 数据层 (DAO)
		dao.NewStore,
		wire.Bind(new(store.Store), new(*dao.Store)),
		provideOwnershipCache,
		repository.NewOwnershipRepository,

		// 4. 配置表与数值
		provideCatalogConfig,
		catalog.Load,
		providePolicy,
		progression.NewEngine,

		// 5. ID 生成与事件发布
		provideIDGenConfig,
		idgen.NewSonyflake,
		providePublisher,

		// 6. 服务层 (Service)
		wire.Struct(new(service.Deps), "*"),
		service.NewPetService,
		service.NewMountService,

		// 7. 组装
		wire.Struct(new(CLI), "*"),
	))
}
