package dao

import (
	"context"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store"
	"github.com/lk2023060901/xdooria-pet/pkg/database/postgres"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

var _ store.Store = (*Store)(nil)

// Store 基于 PostgreSQL 的事务存储
// 读写事务先获取以 userID 为键的 advisory lock，同一用户的事务因此串行
type Store struct {
	db        *postgres.Client
	pets      *PetDAO
	materials *MaterialDAO
}

// NewStore 创建 PostgreSQL 事务存储
func NewStore(db *postgres.Client, l logger.Logger, m *metrics.PetMetrics) *Store {
	return &Store{
		db:        db,
		pets:      NewPetDAO(l, m),
		materials: NewMaterialDAO(l, m),
	}
}

// WithTx 读已提交事务 + 用户级 advisory lock
func (s *Store) WithTx(ctx context.Context, userID int64, fn store.TxFunc) error {
	opts := postgres.TxOptions{
		IsoLevel:   postgres.TxIsolationLevelReadCommitted,
		AccessMode: postgres.TxAccessModeReadWrite,
	}
	return s.db.WithTxOptions(ctx, opts, func(tx postgres.Tx) error {
		if err := tx.AdvisoryXactLock(ctx, userID); err != nil {
			return err
		}
		return fn(ctx, s.bind(tx, true))
	})
}

// View 只读事务，不加锁
func (s *Store) View(ctx context.Context, userID int64, fn store.TxFunc) error {
	opts := postgres.TxOptions{
		IsoLevel:   postgres.TxIsolationLevelReadCommitted,
		AccessMode: postgres.TxAccessModeReadOnly,
	}
	return s.db.WithTxOptions(ctx, opts, func(tx postgres.Tx) error {
		return fn(ctx, s.bind(tx, false))
	})
}

func (s *Store) bind(tx postgres.Tx, writable bool) *pgTx {
	return &pgTx{store: s, tx: tx, writable: writable}
}

type pgTx struct {
	store    *Store
	tx       postgres.Tx
	writable bool
}

func (t *pgTx) Ownerships() store.OwnershipStore { return (*pgOwnerships)(t) }
func (t *pgTx) Materials() store.MaterialLedger  { return (*pgLedger)(t) }

type pgOwnerships pgTx

func (o *pgOwnerships) GetByCreature(ctx context.Context, userID int64, creatureID int32) (*model.Ownership, error) {
	return o.store.pets.GetByCreature(ctx, o.tx, userID, creatureID, o.writable)
}

func (o *pgOwnerships) GetByID(ctx context.Context, userID, ownershipID int64) (*model.Ownership, error) {
	return o.store.pets.GetByID(ctx, o.tx, userID, ownershipID, o.writable)
}

func (o *pgOwnerships) Create(ctx context.Context, rec *model.Ownership) error {
	return o.store.pets.Create(ctx, o.tx, rec)
}

func (o *pgOwnerships) Save(ctx context.Context, rec *model.Ownership) error {
	return o.store.pets.Save(ctx, o.tx, rec)
}

func (o *pgOwnerships) ClearActive(ctx context.Context, userID, exceptID int64) ([]int64, error) {
	return o.store.pets.ClearActive(ctx, o.tx, userID, exceptID)
}

func (o *pgOwnerships) ClearMountEquipped(ctx context.Context, userID, exceptID int64) ([]int64, error) {
	return o.store.pets.ClearMountEquipped(ctx, o.tx, userID, exceptID)
}

type pgLedger pgTx

func (l *pgLedger) HasMaterial(ctx context.Context, userID int64, material string, quantity int64) (bool, error) {
	if err := store.ValidateQuantity(material, quantity); err != nil {
		return false, err
	}
	balance, err := l.store.materials.Balance(ctx, l.tx, userID, material)
	if err != nil {
		return false, err
	}
	return balance >= quantity, nil
}

func (l *pgLedger) ConsumeMaterial(ctx context.Context, userID int64, material string, quantity int64) error {
	if err := store.ValidateQuantity(material, quantity); err != nil {
		return err
	}
	return l.store.materials.Consume(ctx, l.tx, userID, material, quantity)
}

func (l *pgLedger) CreditMaterial(ctx context.Context, userID int64, material string, quantity int64) error {
	if err := store.ValidateQuantity(material, quantity); err != nil {
		return err
	}
	return l.store.materials.Credit(ctx, l.tx, userID, material, quantity)
}

func (l *pgLedger) Balance(ctx context.Context, userID int64, material string) (int64, error) {
	return l.store.materials.Balance(ctx, l.tx, userID, material)
}
