package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/errcode"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/event"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
)

func TestCheckTameEligibility(t *testing.T) {
	tests := []struct {
		name     string
		creature int32
		level    int32
		wantCode errcode.Code
	}{
		{name: "below min level", creature: drakeID, level: 4, wantCode: errcode.LevelTooLow},
		{name: "at min level", creature: drakeID, level: 5},
		{name: "above min level", creature: drakeID, level: 12},
		{name: "not mount eligible", creature: hareID, level: 10, wantCode: errcode.NotMountEligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.hatch(t, tt.creature)
			f.mutate(t, rec.ID, func(r *model.Ownership) { r.Level = tt.level })

			costs, err := f.mounts.CheckTameEligibility(context.Background(), testUser, rec.ID)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errcode.CodeOf(err))
				assert.Nil(t, costs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.policy.TameCosts, costs)
		})
	}
}

func TestCheckTameEligibility_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.mounts.CheckTameEligibility(context.Background(), testUser, 9999)
	assert.True(t, errcode.Is(err, errcode.NotFound))
}

func TestTameMount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.tamed(t, drakeID)
	mount, ok := rec.TamedMount()
	require.True(t, ok)
	assert.EqualValues(t, 1, mount.Level)
	assert.EqualValues(t, 0, mount.Experience)
	assert.False(t, mount.Equipped)
	assert.InDelta(t, 1.5, mount.SpeedBonus, 1e-9)
	assert.Equal(t, f.policy.MaxStamina, mount.Stamina)
	assert.Empty(t, mount.SkillList())

	for _, c := range f.policy.TameCosts {
		assert.EqualValues(t, 0, f.balance(t, c.Material), c.Material)
		assert.InDelta(t, float64(c.Quantity), testutil.ToFloat64(f.metrics.MaterialConsumed.WithLabelValues(c.Material)), 1e-9)
	}
	assert.Equal(t, []event.Type{event.TypePetHatched, event.TypeMountTamed}, f.recorder.Types())

	// 已驯服时再次检查与驯服都被拒绝
	_, err := f.mounts.CheckTameEligibility(ctx, testUser, rec.ID)
	assert.True(t, errcode.Is(err, errcode.AlreadyTamed))

	for _, c := range f.policy.TameCosts {
		f.grant(t, c.Material, c.Quantity)
	}
	_, err = f.mounts.TameMount(ctx, testUser, rec.ID)
	assert.True(t, errcode.Is(err, errcode.AlreadyTamed))
	for _, c := range f.policy.TameCosts {
		assert.Equal(t, c.Quantity, f.balance(t, c.Material))
	}
}

func TestTameMount_InsufficientIsAtomic(t *testing.T) {
	f := newFixture(t)
	rec := f.hatch(t, drakeID)
	f.mutate(t, rec.ID, func(r *model.Ownership) { r.Level = 5 })

	first := f.policy.TameCosts[0]
	last := f.policy.TameCosts[len(f.policy.TameCosts)-1]
	f.grant(t, first.Material, first.Quantity)

	_, err := f.mounts.TameMount(context.Background(), testUser, rec.ID)
	e, ok := errcode.As(err)
	require.True(t, ok)
	assert.Equal(t, errcode.InsufficientResource, e.Code)
	assert.Equal(t, last.Material, e.Material)

	assert.Equal(t, first.Quantity, f.balance(t, first.Material), "no partial consumption")
	assert.False(t, f.get(t, rec.ID).IsTamed())
}

func TestTameMount_LevelTooLow(t *testing.T) {
	f := newFixture(t)
	rec := f.hatch(t, drakeID)
	for _, c := range f.policy.TameCosts {
		f.grant(t, c.Material, c.Quantity)
	}

	_, err := f.mounts.TameMount(context.Background(), testUser, rec.ID)
	assert.True(t, errcode.Is(err, errcode.LevelTooLow))
	for _, c := range f.policy.TameCosts {
		assert.Equal(t, c.Quantity, f.balance(t, c.Material))
	}
}

func TestEquipMount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	drake := f.tamed(t, drakeID)
	roc := f.tamed(t, rocID)
	hare := f.hatch(t, hareID)

	rec, err := f.mounts.EquipMount(ctx, testUser, drake.ID)
	require.NoError(t, err)
	mount, _ := rec.TamedMount()
	assert.True(t, mount.Equipped)

	_, err = f.mounts.EquipMount(ctx, testUser, roc.ID)
	require.NoError(t, err)

	drakeMount, _ := f.get(t, drake.ID).TamedMount()
	rocMount, _ := f.get(t, roc.ID).TamedMount()
	assert.False(t, drakeMount.Equipped)
	assert.True(t, rocMount.Equipped)

	_, err = f.mounts.EquipMount(ctx, testUser, hare.ID)
	assert.True(t, errcode.Is(err, errcode.NotTamed))
	rocMount, _ = f.get(t, roc.ID).TamedMount()
	assert.True(t, rocMount.Equipped, "failed equip keeps the current mount")

	changed, err := f.mounts.UnequipMount(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, changed)
	rocMount, _ = f.get(t, roc.ID).TamedMount()
	assert.False(t, rocMount.Equipped)

	changed, err = f.mounts.UnequipMount(ctx, testUser)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpgradeMount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.tamed(t, drakeID)

	// 100 + 150 经验：1 级升到 3 级，解锁 dash
	res, err := f.mounts.UpgradeMount(ctx, testUser, rec.ID, 250)
	require.NoError(t, err)
	assert.True(t, res.LeveledUp)
	assert.EqualValues(t, 1, res.OldLevel)
	assert.EqualValues(t, 3, res.NewLevel)
	assert.EqualValues(t, 0, res.CurrentExperience)
	assert.EqualValues(t, 200, res.ExperienceToNextLevel)
	assert.InDelta(t, 1.6, res.SpeedBonus, 1e-9)
	assert.Equal(t, []string{"dash"}, res.UnlockedSkills)

	res, err = f.mounts.UpgradeMount(ctx, testUser, rec.ID, 50)
	require.NoError(t, err)
	assert.False(t, res.LeveledUp)
	assert.Empty(t, res.UnlockedSkills)
	assert.EqualValues(t, 50, res.CurrentExperience)

	mount, _ := f.get(t, rec.ID).TamedMount()
	assert.EqualValues(t, 3, mount.Level)
	assert.EqualValues(t, 50, mount.Experience)
	assert.Equal(t, []string{"dash"}, mount.SkillList())
	assert.Equal(t, f.policy.TameMinLevel, f.get(t, rec.ID).Level, "pet level is independent of mount level")

	assert.Equal(t, []event.Type{event.TypePetHatched, event.TypeMountTamed, event.TypeMountUpgraded}, f.recorder.Types())
	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.LevelUps.WithLabelValues("mount")), 1e-9)
}

func TestUpgradeMount_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mount := f.tamed(t, drakeID)
	pet := f.hatch(t, hareID)

	_, err := f.mounts.UpgradeMount(ctx, testUser, mount.ID, 0)
	assert.True(t, errcode.Is(err, errcode.InvalidArgument))

	_, err = f.mounts.UpgradeMount(ctx, testUser, pet.ID, 10)
	assert.True(t, errcode.Is(err, errcode.NotTamed))

	_, err = f.mounts.UpgradeMount(ctx, testUser, 9999, 10)
	assert.True(t, errcode.Is(err, errcode.NotFound))
}

func TestRestoreMountStamina(t *testing.T) {
	tests := []struct {
		name         string
		stamina      int32
		amount       int32
		wantNew      int32
		wantRestored int32
		wantCode     errcode.Code
	}{
		{name: "clamped at max", stamina: 95, amount: 20, wantNew: 100, wantRestored: 5},
		{name: "default amount", stamina: 50, amount: 0, wantNew: 70, wantRestored: 20},
		{name: "already full", stamina: 100, amount: 10, wantNew: 100, wantRestored: 0},
		{name: "large amount", stamina: 0, amount: 1 << 30, wantNew: 100, wantRestored: 100},
		{name: "negative amount", stamina: 50, amount: -1, wantCode: errcode.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.tamed(t, drakeID)
			f.mutate(t, rec.ID, func(r *model.Ownership) {
				m, _ := r.TamedMount()
				m.Stamina = tt.stamina
			})

			res, err := f.mounts.RestoreMountStamina(context.Background(), testUser, rec.ID, tt.amount)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errcode.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &StaminaResult{
				OldStamina: tt.stamina,
				NewStamina: tt.wantNew,
				Restored:   tt.wantRestored,
			}, res)

			m, _ := f.get(t, rec.ID).TamedMount()
			assert.Equal(t, tt.wantNew, m.Stamina)
		})
	}
}

func TestRestoreMountStamina_NotTamed(t *testing.T) {
	f := newFixture(t)
	rec := f.hatch(t, drakeID)

	_, err := f.mounts.RestoreMountStamina(context.Background(), testUser, rec.ID, 10)
	assert.True(t, errcode.Is(err, errcode.NotTamed))
}

func TestCheckMountAction(t *testing.T) {
	tests := []struct {
		name        string
		stamina     int32
		action      string
		wantAllowed bool
		wantCode    errcode.Code
	}{
		{name: "ride with stamina", stamina: 10, action: ActionRide, wantAllowed: true},
		{name: "ride exhausted", stamina: 9, action: ActionRide, wantAllowed: false},
		{name: "upgrade exhausted", stamina: 0, action: ActionUpgrade, wantAllowed: true},
		{name: "equip exhausted", stamina: 0, action: ActionEquip, wantAllowed: true},
		{name: "unknown action", stamina: 50, action: "fly", wantCode: errcode.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.tamed(t, drakeID)
			f.mutate(t, rec.ID, func(r *model.Ownership) {
				m, _ := r.TamedMount()
				m.Stamina = tt.stamina
			})

			res, err := f.mounts.CheckMountAction(context.Background(), testUser, rec.ID, tt.action)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errcode.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, res.Action)
			assert.Equal(t, tt.wantAllowed, res.Allowed)
			assert.Equal(t, tt.stamina >= f.policy.RideStaminaCost, res.CanRide)
			assert.True(t, res.CanUpgrade)
			assert.True(t, res.CanEquip)
			assert.Equal(t, tt.stamina, res.CurrentStamina)
			assert.Equal(t, f.policy.RideStaminaCost, res.RequiredStamina)
		})
	}
}

func TestCheckMountAction_NotTamed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.hatch(t, drakeID)

	_, err := f.mounts.CheckMountAction(ctx, testUser, rec.ID, ActionRide)
	assert.True(t, errcode.Is(err, errcode.NotTamed))

	_, err = f.mounts.CheckMountAction(ctx, testUser, 9999, ActionRide)
	assert.True(t, errcode.Is(err, errcode.NotFound))
}
