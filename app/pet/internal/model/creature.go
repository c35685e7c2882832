package model

import "fmt"

// CreatureType 生物类型
type CreatureType string

const (
	CreatureTypeBeast   CreatureType = "beast"
	CreatureTypeBird    CreatureType = "bird"
	CreatureTypeDragon  CreatureType = "dragon"
	CreatureTypeSpirit  CreatureType = "spirit"
	CreatureTypeAquatic CreatureType = "aquatic"
)

// Valid 是否为已知类型
func (t CreatureType) Valid() bool {
	switch t {
	case CreatureTypeBeast, CreatureTypeBird, CreatureTypeDragon, CreatureTypeSpirit, CreatureTypeAquatic:
		return true
	}
	return false
}

// Rarity 稀有度，按 common < uncommon < rare < epic < legendary 排序
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

var rarityRank = map[Rarity]int{
	RarityCommon:    1,
	RarityUncommon:  2,
	RarityRare:      3,
	RarityEpic:      4,
	RarityLegendary: 5,
}

// Rank 稀有度序号，未知稀有度返回 0
func (r Rarity) Rank() int {
	return rarityRank[r]
}

// Valid 是否为已知稀有度
func (r Rarity) Valid() bool {
	return r.Rank() > 0
}

// Less 稀有度比较
func (r Rarity) Less(other Rarity) bool {
	return r.Rank() < other.Rank()
}

// 属性键，BaseStats 只允许以下键
const (
	StatHP      = "hp"
	StatAttack  = "attack"
	StatDefense = "defense"
	StatSpeed   = "speed"
	StatLuck    = "luck"
)

// AllowedStatKeys 允许的属性键集合
var AllowedStatKeys = map[string]struct{}{
	StatHP:      {},
	StatAttack:  {},
	StatDefense: {},
	StatSpeed:   {},
	StatLuck:    {},
}

// CreatureDefinition 生物配置（只读）
// 对应配置表：creature.json
type CreatureDefinition struct {
	ID              int32            `json:"id"`
	Key             string           `json:"key"`
	Name            string           `json:"name"`
	Type            CreatureType     `json:"type"`
	Rarity          Rarity           `json:"rarity"`
	BaseStats       map[string]int64 `json:"base_stats"`
	AcquireMaterial string           `json:"acquire_material,omitempty"`
	FeedMaterial    string           `json:"feed_material,omitempty"`
	MaxLevel        int32            `json:"max_level"`
	MountEligible   bool             `json:"mount_eligible"`
	MountSpeedBase  float64          `json:"mount_speed_base,omitempty"`
}

// AcquireMaterialKey 孵化消耗的材料，未配置时为 egg_<rarity>
func (d *CreatureDefinition) AcquireMaterialKey() string {
	if d.AcquireMaterial != "" {
		return d.AcquireMaterial
	}
	return fmt.Sprintf("egg_%s", d.Rarity)
}

// FeedMaterialKey 喂养消耗的材料，未配置时使用 fallback
func (d *CreatureDefinition) FeedMaterialKey(fallback string) string {
	if d.FeedMaterial != "" {
		return d.FeedMaterial
	}
	return fallback
}

// CopyBaseStats 返回基础属性的副本
func (d *CreatureDefinition) CopyBaseStats() map[string]int64 {
	stats := make(map[string]int64, len(d.BaseStats))
	for k, v := range d.BaseStats {
		stats[k] = v
	}
	return stats
}
