// Package service 宠物系统业务编排：孵化、喂养、出战与坐骑驯服
// 所有多步修改都在 store.Store.WithTx 中完成，事务提交后再失效缓存、发布事件
package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/catalog"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/errcode"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/event"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/policy"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/progression"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/repository"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

// Deps 两个服务共用的依赖
type Deps struct {
	Store     store.Store
	Registry  catalog.Registry
	Policy    *policy.Config
	Engine    *progression.Engine
	Repo      repository.OwnershipRepository
	Publisher event.Publisher
	Metrics   *metrics.PetMetrics
}

// base 服务公共逻辑
type base struct {
	Deps
	logger logger.Logger
	now    func() time.Time
}

func newBase(l logger.Logger, deps Deps, name string) base {
	if deps.Publisher == nil {
		deps.Publisher = event.NoopPublisher{}
	}
	return base{
		Deps:   deps,
		logger: l.Named(name),
		now:    time.Now,
	}
}

// observe 记录操作结果：成功为 success，业务错误为错误码，其他为 error
func (b *base) observe(ctx context.Context, op string, start time.Time, err error) {
	result := "success"
	switch {
	case err == nil:
	case errcode.IsBusiness(err):
		result = string(errcode.CodeOf(err))
		b.logger.WarnContext(ctx, "operation rejected", "op", op, "code", result, "error", err)
	default:
		result = "error"
		b.logger.ErrorContext(ctx, "operation failed", "op", op, "error", err)
	}
	b.Metrics.RecordOperation(op, result, time.Since(start).Seconds())
}

// publish 事务提交后发布事件，失败只记录日志
func (b *base) publish(ctx context.Context, events ...event.Event) {
	for _, evt := range events {
		if evt.OccurredAt.IsZero() {
			evt.OccurredAt = b.now()
		}
		if err := b.Publisher.Publish(ctx, evt); err != nil {
			b.logger.WarnContext(ctx, "failed to publish event",
				"event_type", evt.Type,
				"ownership_id", evt.OwnershipID,
				"error", err,
			)
		}
	}
}

// definition 查询生物定义
func (b *base) definition(creatureID int32) (*model.CreatureDefinition, error) {
	def, ok := b.Registry.Get(creatureID)
	if !ok {
		return nil, errcode.NewNotFound("creature %d not found", creatureID)
	}
	return def, nil
}

// loadOwned 事务内加载已拥有的记录，不存在或未拥有时返回 NOT_FOUND
func loadOwned(ctx context.Context, tx store.Tx, userID, ownershipID int64) (*model.Ownership, error) {
	rec, err := tx.Ownerships().GetByID(ctx, userID, ownershipID)
	if err != nil {
		if errors.Is(err, store.ErrNoRecord) {
			return nil, errcode.NewNotFound("ownership %d not found", ownershipID)
		}
		return nil, errors.Wrapf(err, "load ownership %d", ownershipID)
	}
	return ownedOrNotFound(rec, ownershipID)
}

func ownedOrNotFound(rec *model.Ownership, ownershipID int64) (*model.Ownership, error) {
	if rec == nil || !rec.IsOwned {
		return nil, errcode.NewNotFound("ownership %d not found", ownershipID)
	}
	return rec, nil
}

// tamedOf 返回坐骑数据，未驯服时返回 NOT_TAMED
func tamedOf(rec *model.Ownership) (*model.Tamed, error) {
	mount, ok := rec.TamedMount()
	if !ok {
		return nil, errcode.NewNotTamed(rec.ID)
	}
	return mount, nil
}

// consumeAll 先逐项检查余额，全部足够后再扣除
func consumeAll(ctx context.Context, ledger store.MaterialLedger, userID int64, costs []model.MaterialCost) error {
	for _, c := range costs {
		ok, err := ledger.HasMaterial(ctx, userID, c.Material, c.Quantity)
		if err != nil {
			return wrapLedger(err, c.Material)
		}
		if !ok {
			return errcode.NewInsufficientResource(c.Material, c.Quantity)
		}
	}
	for _, c := range costs {
		if err := ledger.ConsumeMaterial(ctx, userID, c.Material, c.Quantity); err != nil {
			return wrapLedger(err, c.Material)
		}
	}
	return nil
}

// wrapLedger 业务错误原样返回，基础设施错误附加上下文
func wrapLedger(err error, material string) error {
	if err == nil || errcode.IsBusiness(err) {
		return err
	}
	return errors.Wrapf(err, "ledger %s", material)
}
