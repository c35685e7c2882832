package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnership_CloneIsDeep(t *testing.T) {
	fed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	orig := &Ownership{
		ID:        1,
		Stats:     map[string]int64{StatHP: 100},
		LastFedAt: &fed,
		Mount:     &Tamed{Level: 2, Stamina: 80, Skills: map[string]struct{}{"dash": {}}},
	}

	c := orig.Clone()
	c.Stats[StatHP] = 1
	*c.LastFedAt = time.Time{}
	ct, ok := c.TamedMount()
	require.True(t, ok)
	ct.Stamina = 0
	ct.UnlockSkill("glide")

	assert.EqualValues(t, 100, orig.Stats[StatHP])
	assert.True(t, orig.LastFedAt.Equal(fed))
	ot, _ := orig.TamedMount()
	assert.EqualValues(t, 80, ot.Stamina)
	assert.Equal(t, []string{"dash"}, ot.SkillList())
}

func TestOwnership_CloneUntamed(t *testing.T) {
	c := (&Ownership{ID: 3}).Clone()
	assert.Equal(t, Untamed{}, c.Mount)
	assert.False(t, c.IsTamed())
}

func TestOwnership_JSON(t *testing.T) {
	untamed := &Ownership{ID: 7, UserID: 1, CreatureID: 2, IsOwned: true, Level: 1, Mount: Untamed{}}
	data, err := json.Marshal(untamed)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"mount"`)

	var back Ownership
	require.NoError(t, json.Unmarshal(data, &back))
	assert.False(t, back.IsTamed())
	assert.EqualValues(t, 7, back.ID)

	tamed := &Ownership{ID: 8, Mount: &Tamed{Level: 3, Stamina: 55, Skills: map[string]struct{}{"sprint": {}, "dash": {}}}}
	data, err = json.Marshal(tamed)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"skills":["dash","sprint"]`)

	require.NoError(t, json.Unmarshal(data, &back))
	mt, ok := back.TamedMount()
	require.True(t, ok)
	assert.EqualValues(t, 3, mt.Level)
	assert.True(t, mt.HasSkill("sprint"))
}

func TestRarityOrdering(t *testing.T) {
	order := []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}
	for i := 1; i < len(order); i++ {
		assert.True(t, order[i-1].Less(order[i]), "%s < %s", order[i-1], order[i])
	}
	assert.False(t, Rarity("mythic").Valid())
}

func TestCreatureDefinition_MaterialKeys(t *testing.T) {
	def := &CreatureDefinition{Rarity: RarityEpic}
	assert.Equal(t, "egg_epic", def.AcquireMaterialKey())
	assert.Equal(t, "food_common", def.FeedMaterialKey("food_common"))

	def.AcquireMaterial = "dragon_egg"
	def.FeedMaterial = "meat"
	assert.Equal(t, "dragon_egg", def.AcquireMaterialKey())
	assert.Equal(t, "meat", def.FeedMaterialKey("food_common"))
}
