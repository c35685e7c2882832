// Package policy 宠物系统的数值配置
// 所有可调数值（经验曲线、成长系数、材料消耗、坐骑阈值）集中在此，代码中不出现魔法数字
package policy

import (
	"encoding/json"
	"fmt"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/pkg/config"
)

// CurveConfig 经验曲线：升到下一级所需经验 = Base + Step × (level − 1)
type CurveConfig struct {
	Base int64 `mapstructure:"base" json:"base" validate:"gt=0"`
	Step int64 `mapstructure:"step" json:"step" validate:"gt=0"`
}

// MountSkillUnlock 坐骑等级达到 Level 时解锁 Skill
type MountSkillUnlock struct {
	Level int32  `mapstructure:"level" json:"level" validate:"gte=1"`
	Skill string `mapstructure:"skill" json:"skill" validate:"required"`
}

// Config 宠物系统数值配置
type Config struct {
	Curve CurveConfig `mapstructure:"curve" json:"curve"`

	// 每级属性成长比例，总属性 = floor(base × (1 + StatGrowth × (level − 1)))
	StatGrowth float64 `mapstructure:"stat_growth" json:"stat_growth" validate:"gte=0"`

	// 孵化 / 喂养
	HatchCost           int64  `mapstructure:"hatch_cost" json:"hatch_cost" validate:"gt=0"`
	FeedCost            int64  `mapstructure:"feed_cost" json:"feed_cost" validate:"gt=0"`
	DefaultFeedMaterial string `mapstructure:"default_feed_material" json:"default_feed_material" validate:"required"`
	DefaultFeedAmount   int64  `mapstructure:"default_feed_amount" json:"default_feed_amount" validate:"gt=0"`
	MinFeedAmount       int64  `mapstructure:"min_feed_amount" json:"min_feed_amount" validate:"gt=0"`
	MaxFeedAmount       int64  `mapstructure:"max_feed_amount" json:"max_feed_amount" validate:"gtefield=MinFeedAmount"`

	// 驯服
	TameMinLevel int32                `mapstructure:"tame_min_level" json:"tame_min_level" validate:"gte=1"`
	TameCosts    []model.MaterialCost `mapstructure:"tame_costs" json:"tame_costs" validate:"required,min=1,dive"`

	// 坐骑
	MountSpeedPerLevel    float64            `mapstructure:"mount_speed_per_level" json:"mount_speed_per_level" validate:"gte=0"`
	MountMaxLevel         int32              `mapstructure:"mount_max_level" json:"mount_max_level" validate:"gte=0"`
	MaxStamina            int32              `mapstructure:"max_stamina" json:"max_stamina" validate:"gt=0"`
	RideStaminaCost       int32              `mapstructure:"ride_stamina_cost" json:"ride_stamina_cost" validate:"gte=0"`
	DefaultStaminaRestore int32              `mapstructure:"default_stamina_restore" json:"default_stamina_restore" validate:"gt=0"`
	MountSkillUnlocks     []MountSkillUnlock `mapstructure:"mount_skill_unlocks" json:"mount_skill_unlocks" validate:"dive"`
}

// DefaultConfig 默认数值
func DefaultConfig() *Config {
	return &Config{
		Curve: CurveConfig{
			Base: 100,
			Step: 50,
		},
		StatGrowth:          0.1,
		HatchCost:           1,
		FeedCost:            1,
		DefaultFeedMaterial: "food_common",
		DefaultFeedAmount:   10,
		MinFeedAmount:       1,
		MaxFeedAmount:       100,
		TameMinLevel:        5,
		TameCosts: []model.MaterialCost{
			{Material: "taming_scroll", Quantity: 3},
			{Material: "mount_essence", Quantity: 1},
		},
		MountSpeedPerLevel:    0.05,
		MountMaxLevel:         0,
		MaxStamina:            100,
		RideStaminaCost:       10,
		DefaultStaminaRestore: 20,
		MountSkillUnlocks: []MountSkillUnlock{
			{Level: 3, Skill: "dash"},
			{Level: 5, Skill: "glide"},
			{Level: 10, Skill: "stampede"},
		},
	}
}

// Defaults 以配置键表示的默认数值，交给配置加载器作为缺省值
// 这样文件中显式写出的 0 会保留，缺省的键才回落到默认值
func Defaults() map[string]any {
	data, err := json.Marshal(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("policy: marshal defaults: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		panic(fmt.Sprintf("policy: unmarshal defaults: %v", err))
	}
	return m
}

// Resolve 校验已经由加载器填好缺省值的配置，字段原样保留，cfg 为 nil 时使用默认值
func Resolve(cfg *Config) (*Config, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New 合并默认值并校验
// 零值字段视为未设置，需要把 StatGrowth 等设为 0 时从 DefaultConfig 修改后调用 Resolve
func New(cfg *Config) (*Config, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge policy config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Validate 校验数值配置
func (c *Config) Validate() error {
	if err := config.NewValidator().Validate(c); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	for _, cost := range c.TameCosts {
		if cost.Material == "" || cost.Quantity <= 0 {
			return fmt.Errorf("invalid policy: tame cost %q must have a material and a positive quantity", cost.Material)
		}
	}
	return nil
}

// SkillsUnlockedAt 返回等级 level 及以下可解锁的全部技能
func (c *Config) SkillsUnlockedAt(level int32) []string {
	var skills []string
	for _, u := range c.MountSkillUnlocks {
		if u.Level <= level {
			skills = append(skills, u.Skill)
		}
	}
	return skills
}

// TameCostList 返回驯服消耗的副本
func (c *Config) TameCostList() []model.MaterialCost {
	costs := make([]model.MaterialCost, len(c.TameCosts))
	copy(costs, c.TameCosts)
	return costs
}
