package repository

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

// OwnershipCache 持有记录缓存
type OwnershipCache interface {
	// GetOwnership 未命中时返回 (nil, nil)
	GetOwnership(ctx context.Context, userID, ownershipID int64) (*model.Ownership, error)
	SetOwnership(ctx context.Context, rec *model.Ownership) error
	DeleteOwnerships(ctx context.Context, userID int64, ownershipIDs ...int64) error
}

// OwnershipRepository 持有记录只读视图（缓存 + 存储）
// 写路径始终走 store.Store 事务，提交后调用 Invalidate
type OwnershipRepository interface {
	// Get 读取记录，不存在时返回 store.ErrNoRecord
	Get(ctx context.Context, userID, ownershipID int64) (*model.Ownership, error)
	// Invalidate 删除缓存，失败只记录日志
	Invalidate(ctx context.Context, userID int64, ownershipIDs ...int64)
}

type ownershipRepositoryImpl struct {
	store  store.Store
	cache  OwnershipCache
	logger logger.Logger
}

// NewOwnershipRepository 创建持有记录仓储，cache 为 nil 时直接读存储
func NewOwnershipRepository(st store.Store, cache OwnershipCache, l logger.Logger) OwnershipRepository {
	return &ownershipRepositoryImpl{
		store:  st,
		cache:  cache,
		logger: l.Named("repository.ownership"),
	}
}

// Get 获取持有记录（优先从缓存）
func (r *ownershipRepositoryImpl) Get(ctx context.Context, userID, ownershipID int64) (*model.Ownership, error) {
	// 1. 先尝试从缓存获取
	if r.cache != nil {
		rec, err := r.cache.GetOwnership(ctx, userID, ownershipID)
		if err != nil {
			r.logger.WarnContext(ctx, "failed to get ownership from cache, fallback to store",
				"ownership_id", ownershipID,
				"error", err,
			)
		} else if rec != nil {
			return rec, nil
		}
	}

	// 2. 缓存未命中，从存储加载
	var rec *model.Ownership
	err := r.store.View(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		var err error
		rec, err = tx.Ownerships().GetByID(ctx, userID, ownershipID)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNoRecord) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "load ownership %d", ownershipID)
	}

	// 3. 回写缓存
	if r.cache != nil {
		r.fill(ctx, rec)
	}

	return rec, nil
}

// fill 回写缓存后重读存储，记录在两次读取之间被修改时删除刚写入的缓存
// 并发提交的 Invalidate 可能早于本次回写，重读保证旧快照不会留在缓存中
func (r *ownershipRepositoryImpl) fill(ctx context.Context, rec *model.Ownership) {
	if err := r.cache.SetOwnership(ctx, rec); err != nil {
		r.logger.WarnContext(ctx, "failed to set ownership cache",
			"ownership_id", rec.ID,
			"error", err,
		)
		return
	}

	var current *model.Ownership
	err := r.store.View(ctx, rec.UserID, func(ctx context.Context, tx store.Tx) error {
		var err error
		current, err = tx.Ownerships().GetByID(ctx, rec.UserID, rec.ID)
		return err
	})
	if err == nil && sameOwnership(rec, current) {
		return
	}
	r.Invalidate(ctx, rec.UserID, rec.ID)
}

func sameOwnership(a, b *model.Ownership) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}

// Invalidate 删除缓存，下次查询时重新加载
func (r *ownershipRepositoryImpl) Invalidate(ctx context.Context, userID int64, ownershipIDs ...int64) {
	if r.cache == nil || len(ownershipIDs) == 0 {
		return
	}
	if err := r.cache.DeleteOwnerships(ctx, userID, ownershipIDs...); err != nil {
		r.logger.WarnContext(ctx, "failed to delete ownership cache",
			"ownership_ids", ownershipIDs,
			"error", err,
		)
	}
}
