package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/errcode"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/event"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

// 坐骑动作
const (
	ActionRide    = "ride"
	ActionUpgrade = "upgrade"
	ActionEquip   = "equip"
)

// MountUpgradeResult 坐骑升级结果
type MountUpgradeResult struct {
	LeveledUp             bool     `json:"leveled_up"`
	OldLevel              int32    `json:"old_level"`
	NewLevel              int32    `json:"new_level"`
	CurrentExperience     int64    `json:"current_experience"`
	ExperienceToNextLevel int64    `json:"experience_to_next_level"`
	SpeedBonus            float64  `json:"speed_bonus"`
	UnlockedSkills        []string `json:"unlocked_skills,omitempty"`
}

// StaminaResult 体力恢复结果
type StaminaResult struct {
	OldStamina int32 `json:"old_stamina"`
	NewStamina int32 `json:"new_stamina"`
	Restored   int32 `json:"restored"`
}

// MountActionResult 坐骑动作检查结果
type MountActionResult struct {
	Action          string `json:"action"`
	Allowed         bool   `json:"allowed"`
	CanRide         bool   `json:"can_ride"`
	CanUpgrade      bool   `json:"can_upgrade"`
	CanEquip        bool   `json:"can_equip"`
	CurrentStamina  int32  `json:"current_stamina"`
	RequiredStamina int32  `json:"required_stamina"`
}

// MountService 坐骑驯服服务
type MountService struct {
	base
}

// NewMountService 创建坐骑服务
func NewMountService(l logger.Logger, deps Deps) *MountService {
	return &MountService{base: newBase(l, deps, "service.mount")}
}

// checkEligibility 按 NOT_FOUND、ALREADY_TAMED、NOT_MOUNT_ELIGIBLE、LEVEL_TOO_LOW 的顺序校验
func (s *MountService) checkEligibility(rec *model.Ownership, ownershipID int64) (*model.CreatureDefinition, error) {
	if _, err := ownedOrNotFound(rec, ownershipID); err != nil {
		return nil, err
	}
	if rec.IsTamed() {
		return nil, errcode.NewAlreadyTamed(rec.ID)
	}
	def, err := s.definition(rec.CreatureID)
	if err != nil {
		return nil, err
	}
	if !def.MountEligible {
		return nil, errcode.NewNotMountEligible(def.ID)
	}
	if rec.Level < s.Policy.TameMinLevel {
		return nil, errcode.NewLevelTooLow(rec.Level, s.Policy.TameMinLevel)
	}
	return def, nil
}

// view 通过缓存仓储读取记录
func (s *MountService) view(ctx context.Context, userID, ownershipID int64) (*model.Ownership, error) {
	rec, err := s.Repo.Get(ctx, userID, ownershipID)
	if err != nil {
		if errors.Is(err, store.ErrNoRecord) {
			return nil, errcode.NewNotFound("ownership %d not found", ownershipID)
		}
		return nil, err
	}
	return rec, nil
}

// CheckTameEligibility 只读校验是否可驯服，通过时返回所需材料
func (s *MountService) CheckTameEligibility(ctx context.Context, userID, ownershipID int64) (costs []model.MaterialCost, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "tame_check", start, err) }(time.Now())

	rec, err := s.view(ctx, userID, ownershipID)
	if err != nil {
		return nil, err
	}
	if _, err := s.checkEligibility(rec, ownershipID); err != nil {
		return nil, err
	}
	return s.Policy.TameCostList(), nil
}

// TameMount 驯服为坐骑，事务内重新校验资格，材料全部足够才扣除
func (s *MountService) TameMount(ctx context.Context, userID, ownershipID int64) (rec *model.Ownership, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "tame", start, err) }(time.Now())

	costs := s.Policy.TameCostList()
	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		target, err := tx.Ownerships().GetByID(ctx, userID, ownershipID)
		if err != nil && !errors.Is(err, store.ErrNoRecord) {
			return errors.Wrapf(err, "load ownership %d", ownershipID)
		}
		def, err := s.checkEligibility(target, ownershipID)
		if err != nil {
			return err
		}

		if err := consumeAll(ctx, tx.Materials(), userID, costs); err != nil {
			return err
		}

		mount := &model.Tamed{
			Level:      1,
			SpeedBonus: s.Engine.TotalMountSpeed(def.MountSpeedBase, 1),
			Stamina:    s.Policy.MaxStamina,
		}
		for _, skill := range s.Policy.SkillsUnlockedAt(1) {
			mount.UnlockSkill(skill)
		}
		target.Mount = mount
		target.UpdatedAt = s.now()

		if err := tx.Ownerships().Save(ctx, target); err != nil {
			return errors.Wrap(err, "save ownership")
		}
		rec = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Repo.Invalidate(ctx, userID, ownershipID)
	for _, c := range costs {
		s.Metrics.RecordMaterialConsumed(c.Material, c.Quantity)
	}
	s.publish(ctx, event.Event{
		Type:        event.TypeMountTamed,
		UserID:      userID,
		OwnershipID: ownershipID,
		Payload:     map[string]any{"creature_id": rec.CreatureID},
	})

	s.logger.InfoContext(ctx, "mount tamed",
		"ownership_id", ownershipID,
		"creature_id", rec.CreatureID,
	)

	return rec, nil
}

// loadTamed 事务内加载已驯服的记录
func loadTamed(ctx context.Context, tx store.Tx, userID, ownershipID int64) (*model.Ownership, *model.Tamed, error) {
	rec, err := loadOwned(ctx, tx, userID, ownershipID)
	if err != nil {
		return nil, nil, err
	}
	mount, err := tamedOf(rec)
	if err != nil {
		return nil, nil, err
	}
	return rec, mount, nil
}

// EquipMount 装备坐骑，同一用户的其他坐骑同时卸下
func (s *MountService) EquipMount(ctx context.Context, userID, ownershipID int64) (rec *model.Ownership, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "mount_equip", start, err) }(time.Now())

	var cleared []int64
	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		target, mount, err := loadTamed(ctx, tx, userID, ownershipID)
		if err != nil {
			return err
		}

		if cleared, err = tx.Ownerships().ClearMountEquipped(ctx, userID, ownershipID); err != nil {
			return errors.Wrap(err, "clear equipped mounts")
		}

		rec = target
		if mount.Equipped {
			return nil
		}
		mount.Equipped = true
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
	s.logger.InfoContext(ctx, "mount equipped",
		"ownership_id", ownershipID,
		"replaced", cleared,
	)

	return rec, nil
}

// UnequipMount 卸下坐骑，没有装备中的坐骑时返回 false 且不报错
func (s *MountService) UnequipMount(ctx context.Context, userID int64) (changed bool, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "mount_unequip", start, err) }(time.Now())

	var cleared []int64
	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		ids, err := tx.Ownerships().ClearMountEquipped(ctx, userID, 0)
		if err != nil {
			return errors.Wrap(err, "clear equipped mounts")
		}
		cleared = ids
		return nil
	})
	if err != nil {
		return false, err
	}

	s.Repo.Invalidate(ctx, userID, cleared...)
	if len(cleared) > 0 {
		s.logger.InfoContext(ctx, "mount unequipped", "ownership_ids", cleared)
	}

	return len(cleared) > 0, nil
}

// UpgradeMount 为坐骑增加经验，升级后重新计算速度加成并解锁技能
func (s *MountService) UpgradeMount(ctx context.Context, userID, ownershipID, expAmount int64) (res *MountUpgradeResult, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "mount_upgrade", start, err) }(time.Now())

	if expAmount < 1 {
		return nil, errcode.NewInvalidArgument("experience amount must be positive, got %d", expAmount)
	}

	maxLevel := s.Policy.MountMaxLevel
	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		rec, mount, err := loadTamed(ctx, tx, userID, ownershipID)
		if err != nil {
			return err
		}
		def, err := s.definition(rec.CreatureID)
		if err != nil {
			return err
		}

		r := s.Engine.ApplyExperience(mount.Level, mount.Experience, expAmount, maxLevel)
		res = &MountUpgradeResult{
			LeveledUp:             r.LeveledUp,
			OldLevel:              mount.Level,
			NewLevel:              r.NewLevel,
			CurrentExperience:     r.NewExperience,
			ExperienceToNextLevel: s.Engine.ExperienceToNext(r.NewLevel, r.NewExperience, maxLevel),
		}

		mount.Level = r.NewLevel
		mount.Experience = r.NewExperience
		mount.SpeedBonus = s.Engine.TotalMountSpeed(def.MountSpeedBase, r.NewLevel)
		for _, skill := range s.Policy.SkillsUnlockedAt(r.NewLevel) {
			if mount.UnlockSkill(skill) {
				res.UnlockedSkills = append(res.UnlockedSkills, skill)
			}
		}
		res.SpeedBonus = mount.SpeedBonus
		rec.UpdatedAt = s.now()

		if err := tx.Ownerships().Save(ctx, rec); err != nil {
			return errors.Wrap(err, "save ownership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Repo.Invalidate(ctx, userID, ownershipID)
	s.Metrics.RecordLevelUp("mount", res.NewLevel-res.OldLevel)
	if res.LeveledUp {
		s.publish(ctx, event.Event{
			Type:        event.TypeMountUpgraded,
			UserID:      userID,
			OwnershipID: ownershipID,
			Payload: map[string]any{
				"old_level":       res.OldLevel,
				"new_level":       res.NewLevel,
				"speed_bonus":     res.SpeedBonus,
				"unlocked_skills": res.UnlockedSkills,
			},
		})
	}

	s.logger.InfoContext(ctx, "mount upgraded",
		"ownership_id", ownershipID,
		"exp", expAmount,
		"old_level", res.OldLevel,
		"new_level", res.NewLevel,
	)

	return res, nil
}

// RestoreMountStamina 恢复坐骑体力，上限为 MaxStamina，amount 为 0 时使用默认值
func (s *MountService) RestoreMountStamina(ctx context.Context, userID, ownershipID int64, amount int32) (res *StaminaResult, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "mount_stamina", start, err) }(time.Now())

	if amount == 0 {
		amount = s.Policy.DefaultStaminaRestore
	}
	if amount < 0 {
		return nil, errcode.NewInvalidArgument("stamina amount must not be negative, got %d", amount)
	}

	err = s.Store.WithTx(ctx, userID, func(ctx context.Context, tx store.Tx) error {
		rec, mount, err := loadTamed(ctx, tx, userID, ownershipID)
		if err != nil {
			return err
		}

		old := mount.Stamina
		restored := min(int64(old)+int64(amount), int64(s.Policy.MaxStamina))
		if restored < int64(old) {
			restored = int64(old)
		}
		mount.Stamina = int32(restored)
		res = &StaminaResult{
			OldStamina: old,
			NewStamina: mount.Stamina,
			Restored:   mount.Stamina - old,
		}
		if res.Restored == 0 {
			return nil
		}

		rec.UpdatedAt = s.now()
		if err := tx.Ownerships().Save(ctx, rec); err != nil {
			return errors.Wrap(err, "save ownership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Restored > 0 {
		s.Repo.Invalidate(ctx, userID, ownershipID)
	}
	s.logger.InfoContext(ctx, "mount stamina restored",
		"ownership_id", ownershipID,
		"old", res.OldStamina,
		"new", res.NewStamina,
	)

	return res, nil
}

// CheckMountAction 只读检查坐骑能否执行动作
// 升级与装备目前不设门槛
func (s *MountService) CheckMountAction(ctx context.Context, userID, ownershipID int64, action string) (res *MountActionResult, err error) {
	ctx = logger.ContextWithUserID(ctx, userID)
	defer func(start time.Time) { s.observe(ctx, "mount_check", start, err) }(time.Now())

	switch action {
	case ActionRide, ActionUpgrade, ActionEquip:
	default:
		return nil, errcode.NewInvalidArgument("unknown mount action %q", action)
	}

	rec, err := s.view(ctx, userID, ownershipID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedOrNotFound(rec, ownershipID); err != nil {
		return nil, err
	}
	mount, err := tamedOf(rec)
	if err != nil {
		return nil, err
	}

	res = &MountActionResult{
		Action:          action,
		CanRide:         mount.Stamina >= s.Policy.RideStaminaCost,
		CanUpgrade:      true,
		CanEquip:        true,
		CurrentStamina:  mount.Stamina,
		RequiredStamina: s.Policy.RideStaminaCost,
	}
	switch action {
	case ActionRide:
		res.Allowed = res.CanRide
	case ActionUpgrade:
		res.Allowed = res.CanUpgrade
	case ActionEquip:
		res.Allowed = res.CanEquip
	}

	return res, nil
}
