// Package memstore 内存版事务存储，用于测试和单机工具
// 每个用户一把锁；事务开始时复制用户数据，提交时整体替换
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/errcode"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store"
)

var _ store.Store = (*Store)(nil)

type userState struct {
	ownerships map[int64]*model.Ownership
	materials  map[string]int64
}

func newUserState() *userState {
	return &userState{
		ownerships: make(map[int64]*model.Ownership),
		materials:  make(map[string]int64),
	}
}

func (s *userState) clone() *userState {
	c := &userState{
		ownerships: make(map[int64]*model.Ownership, len(s.ownerships)),
		materials:  make(map[string]int64, len(s.materials)),
	}
	for id, rec := range s.ownerships {
		c.ownerships[id] = rec.Clone()
	}
	for k, v := range s.materials {
		c.materials[k] = v
	}
	return c
}

type shard struct {
	mu    sync.Mutex
	state *userState
}

// Store 内存事务存储
type Store struct {
	mu     sync.Mutex
	shards map[int64]*shard
}

// New 创建内存存储
func New() *Store {
	return &Store{shards: make(map[int64]*shard)}
}

func (s *Store) shard(userID int64) *shard {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shards[userID]
	if !ok {
		sh = &shard{state: newUserState()}
		s.shards[userID] = sh
	}
	return sh
}

// WithTx 串行执行同一用户的事务，fn 返回错误或 panic 时丢弃全部修改
func (s *Store) WithTx(ctx context.Context, userID int64, fn store.TxFunc) error {
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := sh.state.clone()
	if err := fn(ctx, &tx{userID: userID, state: working}); err != nil {
		return err
	}
	sh.state = working
	return nil
}

// View 只读访问
func (s *Store) View(ctx context.Context, userID int64, fn store.TxFunc) error {
	sh := s.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &tx{userID: userID, state: sh.state.clone()})
}

type tx struct {
	userID int64
	state  *userState
}

func (t *tx) Ownerships() store.OwnershipStore { return (*ownerships)(t) }
func (t *tx) Materials() store.MaterialLedger  { return (*ledger)(t) }

type ownerships tx

func (o *ownerships) GetByCreature(_ context.Context, userID int64, creatureID int32) (*model.Ownership, error) {
	if userID != o.userID {
		return nil, store.ErrNoRecord
	}
	for _, rec := range o.state.ownerships {
		if rec.CreatureID == creatureID {
			return rec.Clone(), nil
		}
	}
	return nil, store.ErrNoRecord
}

func (o *ownerships) GetByID(_ context.Context, userID, ownershipID int64) (*model.Ownership, error) {
	if userID != o.userID {
		return nil, store.ErrNoRecord
	}
	rec, ok := o.state.ownerships[ownershipID]
	if !ok {
		return nil, store.ErrNoRecord
	}
	return rec.Clone(), nil
}

func (o *ownerships) Create(ctx context.Context, rec *model.Ownership) error {
	if rec.UserID != o.userID {
		return store.ErrNoRecord
	}
	if _, err := o.GetByCreature(ctx, rec.UserID, rec.CreatureID); err == nil {
		return store.ErrDuplicate
	}
	if _, exists := o.state.ownerships[rec.ID]; exists {
		return store.ErrDuplicate
	}
	o.state.ownerships[rec.ID] = rec.Clone()
	return nil
}

func (o *ownerships) Save(_ context.Context, rec *model.Ownership) error {
	if rec.UserID != o.userID {
		return store.ErrNoRecord
	}
	if _, ok := o.state.ownerships[rec.ID]; !ok {
		return store.ErrNoRecord
	}
	o.state.ownerships[rec.ID] = rec.Clone()
	return nil
}

func (o *ownerships) ClearActive(_ context.Context, userID, exceptID int64) ([]int64, error) {
	if userID != o.userID {
		return nil, nil
	}
	var cleared []int64
	for id, rec := range o.state.ownerships {
		if id != exceptID && rec.IsActive {
			rec.IsActive = false
			cleared = append(cleared, id)
		}
	}
	sort.Slice(cleared, func(i, j int) bool { return cleared[i] < cleared[j] })
	return cleared, nil
}

func (o *ownerships) ClearMountEquipped(_ context.Context, userID, exceptID int64) ([]int64, error) {
	if userID != o.userID {
		return nil, nil
	}
	var cleared []int64
	for id, rec := range o.state.ownerships {
		if t, ok := rec.TamedMount(); ok && id != exceptID && t.Equipped {
			t.Equipped = false
			cleared = append(cleared, id)
		}
	}
	sort.Slice(cleared, func(i, j int) bool { return cleared[i] < cleared[j] })
	return cleared, nil
}

type ledger tx

func (l *ledger) HasMaterial(ctx context.Context, userID int64, material string, quantity int64) (bool, error) {
	if err := store.ValidateQuantity(material, quantity); err != nil {
		return false, err
	}
	balance, err := l.Balance(ctx, userID, material)
	if err != nil {
		return false, err
	}
	return balance >= quantity, nil
}

func (l *ledger) ConsumeMaterial(_ context.Context, userID int64, material string, quantity int64) error {
	if err := store.ValidateQuantity(material, quantity); err != nil {
		return err
	}
	if userID != l.userID || l.state.materials[material] < quantity {
		return errcode.NewInsufficientResource(material, quantity)
	}
	l.state.materials[material] -= quantity
	return nil
}

func (l *ledger) CreditMaterial(_ context.Context, userID int64, material string, quantity int64) error {
	if err := store.ValidateQuantity(material, quantity); err != nil {
		return err
	}
	if userID != l.userID {
		return errcode.NewInvalidArgument("user %d is outside the transaction scope", userID)
	}
	l.state.materials[material] += quantity
	return nil
}

func (l *ledger) Balance(_ context.Context, userID int64, material string) (int64, error) {
	if userID != l.userID {
		return 0, nil
	}
	return l.state.materials[material], nil
}
