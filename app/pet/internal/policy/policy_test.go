package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/pkg/config"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New(nil)
	require.NoError(t, err)

	assert.EqualValues(t, 100, cfg.Curve.Base)
	assert.EqualValues(t, 50, cfg.Curve.Step)
	assert.EqualValues(t, 5, cfg.TameMinLevel)
	assert.EqualValues(t, 100, cfg.MaxStamina)
	assert.Equal(t, []model.MaterialCost{
		{Material: "taming_scroll", Quantity: 3},
		{Material: "mount_essence", Quantity: 1},
	}, cfg.TameCostList())
}

func TestNew_PartialOverride(t *testing.T) {
	cfg, err := New(&Config{TameMinLevel: 8, DefaultFeedMaterial: "berry"})
	require.NoError(t, err)

	assert.EqualValues(t, 8, cfg.TameMinLevel)
	assert.Equal(t, "berry", cfg.DefaultFeedMaterial)
	assert.EqualValues(t, 10, cfg.DefaultFeedAmount)
}

func loadPolicy(t *testing.T, content string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "petctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l := config.NewLoader(config.WithDefaults(map[string]any{"policy": Defaults()}))
	require.NoError(t, l.LoadFile(path))

	var target struct {
		Policy *Config `mapstructure:"policy"`
	}
	require.NoError(t, l.Unmarshal(&target))
	cfg, err := Resolve(target.Policy)
	require.NoError(t, err)
	return cfg
}

func TestResolve_ExplicitZeroKept(t *testing.T) {
	cfg := loadPolicy(t, `
policy:
  stat_growth: 0
  ride_stamina_cost: 0
  mount_speed_per_level: 0
  tame_min_level: 7
  tame_costs:
    - material: bridle
      quantity: 2
`)

	assert.Zero(t, cfg.StatGrowth)
	assert.Zero(t, cfg.RideStaminaCost)
	assert.Zero(t, cfg.MountSpeedPerLevel)
	assert.EqualValues(t, 7, cfg.TameMinLevel)
	assert.Equal(t, []model.MaterialCost{{Material: "bridle", Quantity: 2}}, cfg.TameCostList())

	// 未写出的键回落到默认值
	assert.EqualValues(t, 100, cfg.Curve.Base)
	assert.EqualValues(t, 10, cfg.DefaultFeedAmount)
	assert.Len(t, cfg.MountSkillUnlocks, 3)
}

func TestResolve_NoPolicySection(t *testing.T) {
	cfg := loadPolicy(t, `log:
  level: info
`)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err := Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	bad := DefaultConfig()
	bad.MaxStamina = 0
	_, err = Resolve(bad)
	assert.Error(t, err)
}

func TestNew_ZeroMeansUnset(t *testing.T) {
	cfg, err := New(&Config{StatGrowth: 0, RideStaminaCost: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.StatGrowth)
	assert.EqualValues(t, 10, cfg.RideStaminaCost)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "zero curve step", mutate: func(c *Config) { c.Curve.Step = 0 }},
		{name: "max feed below min", mutate: func(c *Config) { c.MaxFeedAmount = 0 }},
		{name: "tame cost without material", mutate: func(c *Config) { c.TameCosts = []model.MaterialCost{{Quantity: 1}} }},
		{name: "tame cost non-positive", mutate: func(c *Config) { c.TameCosts = []model.MaterialCost{{Material: "x"}} }},
		{name: "skill unlock without name", mutate: func(c *Config) { c.MountSkillUnlocks = []MountSkillUnlock{{Level: 2}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestSkillsUnlockedAt(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.SkillsUnlockedAt(1))
	assert.Equal(t, []string{"dash"}, cfg.SkillsUnlockedAt(4))
	assert.Equal(t, []string{"dash", "glide", "stampede"}, cfg.SkillsUnlockedAt(12))
}
