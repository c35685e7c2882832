package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/errcode"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/event"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store"
	"github.com/lk2023060901/xdooria-pet/pkg/idgen"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

// HatchResult 孵化结果
type HatchResult struct {
	Ownership  *model.Ownership          `json:"ownership"`
	Definition *model.CreatureDefinition `json:"definition"`
}

// FeedResult 喂养结果
type FeedResult struct {
	LeveledUp             bool  `json:"leveled_up"`
	OldLevel              int32 `json:"old_level"`
	NewLevel              int32 `json:"new_level"`
	CurrentExperience     int64 `json:"current_experience"`
	ExperienceToNextLevel int64 `json:"experience_to_next_level"`
}

// PetService 孵化与喂养服务
type PetService struct {
	base
	ids idgen.Generator
}

// NewPetService 创建孵化与喂养服务
func NewPetService(l logger.Logger, deps Deps, ids idgen.Generator) *PetService {
	return &PetService{
		base: newBase(l, deps, "service.pet"),
		ids:  ids,
	}
}

// Hatch 消耗孵化材料获得生物
func (s *PetService) Hatch(ctx context.Context, userID int64, creatureID int32) (res *HatchResult, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "hatch", start, err) }(time.Now())

	def, err := s.definition(creatureID)
	if err != nil {
		return nil, err
	}
	material := def.AcquireMaterialKey()
	cost := s.Policy.HatchCost

	var rec *model.Ownership
	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		existing, err := tx.Ownerships().GetByCreature(ctx, userID, creatureID)
		if err != nil && !errors.Is(err, store.ErrNoRecord) {
			return errors.Wrapf(err, "load ownership of creature %d", creatureID)
		}
		if existing != nil && existing.IsOwned {
			return errcode.NewAlreadyOwned(userID, creatureID)
		}

		if err := consumeAll(ctx, tx.Materials(), userID, []model.MaterialCost{{Material: material, Quantity: cost}}); err != nil {
			return err
		}

		now := s.now()
		rec = existing
		if rec == nil {
			id, err := s.ids.NextID()
			if err != nil {
				return errors.Wrap(err, "generate ownership id")
			}
			rec = &model.Ownership{
				ID:         id,
				UserID:     userID,
				CreatureID: creatureID,
				Mount:      model.Untamed{},
				CreatedAt:  now,
			}
		}
		rec.IsOwned = true
		rec.Level = 1
		rec.Experience = 0
		rec.Stats = s.Engine.TotalStats(def.BaseStats, 1)
		rec.UpdatedAt = now

		if existing == nil {
			if err := tx.Ownerships().Create(ctx, rec); err != nil {
				return errors.Wrap(err, "create ownership")
			}
			return nil
		}
		if err := tx.Ownerships().Save(ctx, rec); err != nil {
			return errors.Wrap(err, "save ownership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Repo.Invalidate(ctx, userID, rec.ID)
	s.Metrics.RecordMaterialConsumed(material, cost)
	s.publish(ctx, event.Event{
		Type:        event.TypePetHatched,
		UserID:      userID,
		OwnershipID: rec.ID,
		Payload: map[string]any{
			"creature_id": creatureID,
			"material":    material,
		},
	})

	s.logger.InfoContext(ctx, "pet hatched",
		"creature_id", creatureID,
		"ownership_id", rec.ID,
		"material", material,
	)

	return &HatchResult{Ownership: rec, Definition: def}, nil
}

// Feed 消耗食物为宠物增加经验，foodAmount 为 0 时使用默认值
func (s *PetService) Feed(ctx context.Context, userID, ownershipID, foodAmount int64) (res *FeedResult, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "feed", start, err) }(time.Now())

	if foodAmount == 0 {
		foodAmount = s.Policy.DefaultFeedAmount
	}
	if foodAmount < s.Policy.MinFeedAmount || foodAmount > s.Policy.MaxFeedAmount {
		return nil, errcode.NewInvalidArgument("food amount must be in [%d, %d], got %d",
			s.Policy.MinFeedAmount, s.Policy.MaxFeedAmount, foodAmount)
	}

	var (
		material string
		creature int32
	)
	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		rec, err := loadOwned(ctx, tx, userID, ownershipID)
		if err != nil {
			return err
		}
		def, err := s.definition(rec.CreatureID)
		if err != nil {
			return err
		}
		creature = rec.CreatureID

		material = def.FeedMaterialKey(s.Policy.DefaultFeedMaterial)
		if err := consumeAll(ctx, tx.Materials(), userID, []model.MaterialCost{{Material: material, Quantity: s.Policy.FeedCost}}); err != nil {
			return err
		}

		r := s.Engine.ApplyExperience(rec.Level, rec.Experience, foodAmount, def.MaxLevel)
		res = &FeedResult{
			LeveledUp:             r.LeveledUp,
			OldLevel:              rec.Level,
			NewLevel:              r.NewLevel,
			CurrentExperience:     r.NewExperience,
			ExperienceToNextLevel: s.Engine.ExperienceToNext(r.NewLevel, r.NewExperience, def.MaxLevel),
		}

		now := s.now()
		rec.Level = r.NewLevel
		rec.Experience = r.NewExperience
		rec.Stats = s.Engine.TotalStats(def.BaseStats, r.NewLevel)
		rec.LastFedAt = &now
		rec.UpdatedAt = now

		if err := tx.Ownerships().Save(ctx, rec); err != nil {
			return errors.Wrap(err, "save ownership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Repo.Invalidate(ctx, userID, ownershipID)
	s.Metrics.RecordMaterialConsumed(material, s.Policy.FeedCost)
	s.Metrics.RecordLevelUp("pet", res.NewLevel-res.OldLevel)

	events := []event.Event{{
		Type:        event.TypePetFed,
		UserID:      userID,
		OwnershipID: ownershipID,
		Payload: map[string]any{
			"creature_id": creature,
			"amount":      foodAmount,
			"experience":  res.CurrentExperience,
		},
	}}
	if res.LeveledUp {
		events = append(events, event.Event{
			Type:        event.TypePetLeveledUp,
			UserID:      userID,
			OwnershipID: ownershipID,
			Payload: map[string]any{
				"old_level": res.OldLevel,
				"new_level": res.NewLevel,
			},
		})
	}
	s.publish(ctx, events...)

	s.logger.InfoContext(ctx, "pet fed",
		"ownership_id", ownershipID,
		"amount", foodAmount,
		"old_level", res.OldLevel,
		"new_level", res.NewLevel,
	)

	return res, nil
}

// Equip 设置出战宠物，同一用户的其他宠物同时取消出战
func (s *PetService) Equip(ctx context.Context, userID, ownershipID int64) (rec *model.Ownership, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "equip", start, err) }(time.Now())

	var cleared []int64
	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		target, err := loadOwned(ctx, tx, userID, ownershipID)
		if err != nil {
			return err
		}

		if cleared, err = tx.Ownerships().ClearActive(ctx, userID, ownershipID); err != nil {
			return errors.Wrap(err, "clear active pets")
		}

		rec = target
		if rec.IsActive {
			return nil
		}
		rec.IsActive = true
		rec.UpdatedAt = s.now()
		if err := tx.Ownerships().Save(ctx, rec); err != nil {
			return errors.Wrap(err, "save ownership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Repo.Invalidate(ctx, userID, append(cleared, ownershipID)...)
	s.logger.InfoContext(ctx, "pet equipped",
		"ownership_id", ownershipID,
		"replaced", cleared,
	)

	return rec, nil
}

// Unequip 取消出战，没有出战宠物时返回 false 且不报错
func (s *PetService) Unequip(ctx context.Context, userID int64) (changed bool, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "unequip", start, err) }(time.Now())

	var cleared []int64
	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		ids, err := tx.Ownerships().ClearActive(ctx, userID, 0)
		if err != nil {
			return errors.Wrap(err, "clear active pets")
		}
		cleared = ids
		return nil
	})
	if err != nil {
		return false, err
	}

	s.Repo.Invalidate(ctx, userID, cleared...)
	if len(cleared) > 0 {
		s.logger.InfoContext(ctx, "pet unequipped", "ownership_ids", cleared)
	}

	return len(cleared) > 0, nil
}

// GrantMaterial 发放材料，返回发放后的余额
func (s *PetService) GrantMaterial(ctx context.Context, userID int64, material string, quantity int64) (balance int64, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "grant_material", start, err) }(time.Now())

	if err := store.ValidateQuantity(material, quantity); err != nil {
		return 0, err
	}

	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Materials().CreditMaterial(ctx, userID, material, quantity); err != nil {
			return wrapLedger(err, material)
		}
		balance, err = tx.Materials().Balance(ctx, userID, material)
		return wrapLedger(err, material)
	})
	if err != nil {
		return 0, err
	}

	s.Metrics.RecordMaterialCredited(material, quantity)
	s.logger.InfoContext(ctx, "material granted",
		"material", material,
		"quantity", quantity,
		"balance", balance,
	)

	return balance, nil
}

// Balance 查询材料余额
func (s *PetService) Balance(ctx context.Context, userID int64, material string) (int64, error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	if material == "" {
		return 0, errcode.NewInvalidArgument("material is required")
	}

	var balance int64
	err := s.Store.View(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		var err error
		balance, err = tx.Materials().Balance(ctx, userID, material)
		return wrapLedger(err, material)
	})
	return balance, err
}
