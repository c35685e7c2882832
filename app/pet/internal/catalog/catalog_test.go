package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

const creatureJSON = `[
  {"id": 2, "key": "ember_drake", "name": "Ember Drake", "type": "dragon", "rarity": "epic",
   "base_stats": {"hp": 300, "attack": 40}, "max_level": 60, "mount_eligible": true, "mount_speed_base": 1.5},
  {"id": 1, "key": "moss_hare", "name": "Moss Hare", "type": "beast", "rarity": "common",
   "base_stats": {"hp": 80, "speed": 12}, "feed_material": "carrot", "max_level": 30}
]`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "creature.json"), []byte(creatureJSON), 0o644))

	r, err := Load(&Config{DataDir: dir}, logger.NewNoop())
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 2)
	assert.EqualValues(t, 1, all[0].ID)

	drake, ok := r.Get(2)
	require.True(t, ok)
	assert.Equal(t, "egg_epic", drake.AcquireMaterialKey())
	assert.True(t, drake.MountEligible)
	assert.InDelta(t, 1.5, drake.MountSpeedBase, 1e-9)

	hare, ok := r.GetByKey("moss_hare")
	require.True(t, ok)
	assert.Equal(t, "carrot", hare.FeedMaterialKey("food_common"))

	_, ok = r.Get(99)
	assert.False(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(&Config{DataDir: t.TempDir()}, logger.NewNoop())
	assert.Error(t, err)

	_, err = Load(&Config{}, logger.NewNoop())
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	valid := func() *model.CreatureDefinition {
		return &model.CreatureDefinition{
			ID: 1, Key: "a", Type: model.CreatureTypeBird, Rarity: model.RarityRare,
			BaseStats: map[string]int64{"hp": 1}, MaxLevel: 10,
		}
	}

	tests := []struct {
		name string
		defs func() []*model.CreatureDefinition
	}{
		{name: "unknown stat key", defs: func() []*model.CreatureDefinition {
			d := valid()
			d.BaseStats["mana"] = 5
			return []*model.CreatureDefinition{d}
		}},
		{name: "unknown rarity", defs: func() []*model.CreatureDefinition {
			d := valid()
			d.Rarity = "mythic"
			return []*model.CreatureDefinition{d}
		}},
		{name: "unknown type", defs: func() []*model.CreatureDefinition {
			d := valid()
			d.Type = "insect"
			return []*model.CreatureDefinition{d}
		}},
		{name: "non-positive max level", defs: func() []*model.CreatureDefinition {
			d := valid()
			d.MaxLevel = 0
			return []*model.CreatureDefinition{d}
		}},
		{name: "duplicate id", defs: func() []*model.CreatureDefinition {
			d := valid()
			d2 := valid()
			d2.Key = "b"
			return []*model.CreatureDefinition{d, d2}
		}},
		{name: "duplicate key", defs: func() []*model.CreatureDefinition {
			d := valid()
			d2 := valid()
			d2.ID = 2
			return []*model.CreatureDefinition{d, d2}
		}},
		{name: "null entry", defs: func() []*model.CreatureDefinition {
			return []*model.CreatureDefinition{nil}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.defs())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDefinition))
		})
	}
}

func TestNew_CopiesDefinitions(t *testing.T) {
	d := &model.CreatureDefinition{
		ID: 1, Key: "a", Type: model.CreatureTypeSpirit, Rarity: model.RarityCommon,
		BaseStats: map[string]int64{"luck": 3}, MaxLevel: 5,
	}
	r, err := New([]*model.CreatureDefinition{d})
	require.NoError(t, err)

	d.BaseStats["luck"] = 100
	got, _ := r.Get(1)
	assert.EqualValues(t, 3, got.BaseStats["luck"])
}
