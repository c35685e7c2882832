// Package store 宠物引擎依赖的事务存储抽象
// 所有写操作都在 Store.WithTx 内完成，同一用户的事务串行执行
package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/errcode"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
)

var (
	// ErrNoRecord 记录不存在
	ErrNoRecord = errors.New("store: record not found")

	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("store: duplicate record")
)

// TxFunc 事务体，返回错误时整个事务回滚
type TxFunc func(ctx context.Context, tx Tx) error

// Store 事务存储
type Store interface {
	// WithTx 以 userID 为粒度串行执行读写事务
	WithTx(ctx context.Context, userID int64, fn TxFunc) error
	// View 只读事务，fn 中的写操作不会生效
	View(ctx context.Context, userID int64, fn TxFunc) error
}

// Tx 事务内可访问的数据
type Tx interface {
	Ownerships() OwnershipStore
	Materials() MaterialLedger
}

// OwnershipStore 持有记录读写
type OwnershipStore interface {
	// GetByCreature 按 (userID, creatureID) 查询，不存在时返回 ErrNoRecord
	GetByCreature(ctx context.Context, userID int64, creatureID int32) (*model.Ownership, error)
	// GetByID 按记录 ID 查询并校验归属，不存在时返回 ErrNoRecord
	GetByID(ctx context.Context, userID, ownershipID int64) (*model.Ownership, error)
	// Create 插入新记录，(userID, creatureID) 已存在时返回 ErrDuplicate
	Create(ctx context.Context, rec *model.Ownership) error
	// Save 覆盖已有记录，不存在时返回 ErrNoRecord
	Save(ctx context.Context, rec *model.Ownership) error
	// ClearActive 清除该用户除 exceptID 以外记录的出战标记，返回被修改的记录 ID
	ClearActive(ctx context.Context, userID, exceptID int64) ([]int64, error)
	// ClearMountEquipped 清除该用户除 exceptID 以外坐骑的装备标记，返回被修改的记录 ID
	ClearMountEquipped(ctx context.Context, userID, exceptID int64) ([]int64, error)
}

// MaterialLedger 材料账本
// 同一 (userID, material) 上的操作线性一致，余额永不为负
type MaterialLedger interface {
	HasMaterial(ctx context.Context, userID int64, material string, quantity int64) (bool, error)
	// ConsumeMaterial 余额不足时返回 INSUFFICIENT_RESOURCE，且不做任何修改
	ConsumeMaterial(ctx context.Context, userID int64, material string, quantity int64) error
	// CreditMaterial 增加余额，行不存在时创建
	CreditMaterial(ctx context.Context, userID int64, material string, quantity int64) error
	Balance(ctx context.Context, userID int64, material string) (int64, error)
}

// ValidateQuantity 材料数量必须为正
func ValidateQuantity(material string, quantity int64) error {
	if material == "" {
		return errcode.NewInvalidArgument("material is required")
	}
	if quantity <= 0 {
		return errcode.NewInvalidArgument("quantity of %s must be positive, got %d", material, quantity)
	}
	return nil
}
