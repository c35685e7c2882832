package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/repository"
	"github.com/lk2023060901/xdooria-pet/pkg/database/redis"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

const (
	// Redis key 前缀，用户 ID 作为 hash tag，集群模式下同一用户的 key 落在同一槽
	ownershipKeyPrefix = "pet:ownership:"

	// DefaultOwnershipTTL 默认缓存时间
	DefaultOwnershipTTL = 10 * time.Minute
)

var _ repository.OwnershipCache = (*CacheDAO)(nil)

// CacheDAO 缓存数据访问对象
type CacheDAO struct {
	redis   *redis.Client
	ttl     time.Duration
	logger  logger.Logger
	metrics *metrics.PetMetrics
}

// NewCacheDAO 创建缓存 DAO，ttl 为 0 时使用 DefaultOwnershipTTL
func NewCacheDAO(rdb *redis.Client, ttl time.Duration, l logger.Logger, m *metrics.PetMetrics) *CacheDAO {
	if ttl <= 0 {
		ttl = DefaultOwnershipTTL
	}
	return &CacheDAO{
		redis:   rdb,
		ttl:     ttl,
		logger:  l.Named("dao.cache"),
		metrics: m,
	}
}

func ownershipKey(userID, ownershipID int64) string {
	return fmt.Sprintf("%s{%d}:%d", ownershipKeyPrefix, userID, ownershipID)
}

// GetOwnership 从缓存获取持有记录
func (d *CacheDAO) GetOwnership(ctx context.Context, userID, ownershipID int64) (*model.Ownership, error) {
	data, err := d.redis.Get(ctx, ownershipKey(userID, ownershipID))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			d.metrics.RecordCacheMiss("redis")
			return nil, nil
		}
		d.logger.ErrorContext(ctx, "failed to get ownership from cache",
			"ownership_id", ownershipID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get ownership from cache: %w", err)
	}

	d.metrics.RecordCacheHit("redis")

	var rec model.Ownership
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		d.logger.ErrorContext(ctx, "failed to unmarshal ownership",
			"ownership_id", ownershipID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to unmarshal ownership: %w", err)
	}

	return &rec, nil
}

// SetOwnership 设置持有记录缓存
func (d *CacheDAO) SetOwnership(ctx context.Context, rec *model.Ownership) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ownership: %w", err)
	}

	if err := d.redis.Set(ctx, ownershipKey(rec.UserID, rec.ID), string(data), d.ttl); err != nil {
		d.logger.ErrorContext(ctx, "failed to set ownership cache",
			"ownership_id", rec.ID,
			"error", err,
		)
		return fmt.Errorf("failed to set ownership cache: %w", err)
	}

	return nil
}

// DeleteOwnerships 删除持有记录缓存
func (d *CacheDAO) DeleteOwnerships(ctx context.Context, userID int64, ownershipIDs ...int64) error {
	if len(ownershipIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ownershipIDs))
	for _, id := range ownershipIDs {
		keys = append(keys, ownershipKey(userID, id))
	}

	if _, err := d.redis.Del(ctx, keys...); err != nil {
		d.logger.ErrorContext(ctx, "failed to delete ownership cache",
			"ownership_ids", ownershipIDs,
			"error", err,
		)
		return fmt.Errorf("failed to delete ownership cache: %w", err)
	}

	return nil
}
