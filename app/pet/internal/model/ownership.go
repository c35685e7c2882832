package model

import (
	"encoding/json"
	"sort"
	"time"
)

// MountState 坐骑子状态，只有 Untamed 与 *Tamed 两种取值
type MountState interface {
	isMountState()
}

// Untamed 未驯服
type Untamed struct{}

func (Untamed) isMountState() {}

// Tamed 已驯服的坐骑数据
type Tamed struct {
	Level      int32               `json:"level"`
	Experience int64               `json:"experience"`
	Equipped   bool                `json:"equipped"`
	SpeedBonus float64             `json:"speed_bonus"`
	Stamina    int32               `json:"stamina"`
	Skills     map[string]struct{} `json:"-"`
}

func (*Tamed) isMountState() {}

// HasSkill 是否已解锁技能
func (t *Tamed) HasSkill(skill string) bool {
	_, ok := t.Skills[skill]
	return ok
}

// UnlockSkill 解锁技能，已存在时返回 false
func (t *Tamed) UnlockSkill(skill string) bool {
	if t.HasSkill(skill) {
		return false
	}
	if t.Skills == nil {
		t.Skills = make(map[string]struct{})
	}
	t.Skills[skill] = struct{}{}
	return true
}

// SkillList 已解锁技能（排序后）
func (t *Tamed) SkillList() []string {
	skills := make([]string, 0, len(t.Skills))
	for s := range t.Skills {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills
}

type tamedJSON struct {
	Level      int32    `json:"level"`
	Experience int64    `json:"experience"`
	Equipped   bool     `json:"equipped"`
	SpeedBonus float64  `json:"speed_bonus"`
	Stamina    int32    `json:"stamina"`
	Skills     []string `json:"skills"`
}

func (t *Tamed) MarshalJSON() ([]byte, error) {
	return json.Marshal(tamedJSON{
		Level:      t.Level,
		Experience: t.Experience,
		Equipped:   t.Equipped,
		SpeedBonus: t.SpeedBonus,
		Stamina:    t.Stamina,
		Skills:     t.SkillList(),
	})
}

func (t *Tamed) UnmarshalJSON(data []byte) error {
	var v tamedJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = Tamed{
		Level:      v.Level,
		Experience: v.Experience,
		Equipped:   v.Equipped,
		SpeedBonus: v.SpeedBonus,
		Stamina:    v.Stamina,
	}
	for _, s := range v.Skills {
		t.UnlockSkill(s)
	}
	return nil
}

// Ownership 玩家对某个生物的持有记录
// 对应表：player_pet，(UserID, CreatureID) 唯一
type Ownership struct {
	ID         int64
	UserID     int64
	CreatureID int32
	IsOwned    bool
	Level      int32
	Experience int64
	IsActive   bool
	Stats      map[string]int64
	LastFedAt  *time.Time
	Mount      MountState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TamedMount 返回坐骑数据，未驯服时 ok 为 false
func (o *Ownership) TamedMount() (*Tamed, bool) {
	t, ok := o.Mount.(*Tamed)
	return t, ok && t != nil
}

// IsTamed 是否已驯服
func (o *Ownership) IsTamed() bool {
	_, ok := o.TamedMount()
	return ok
}

// Clone 深拷贝
func (o *Ownership) Clone() *Ownership {
	if o == nil {
		return nil
	}
	c := *o
	if o.Stats != nil {
		c.Stats = make(map[string]int64, len(o.Stats))
		for k, v := range o.Stats {
			c.Stats[k] = v
		}
	}
	if o.LastFedAt != nil {
		fed := *o.LastFedAt
		c.LastFedAt = &fed
	}
	if t, ok := o.TamedMount(); ok {
		tc := *t
		tc.Skills = make(map[string]struct{}, len(t.Skills))
		for s := range t.Skills {
			tc.Skills[s] = struct{}{}
		}
		c.Mount = &tc
	} else {
		c.Mount = Untamed{}
	}
	return &c
}

type ownershipJSON struct {
	ID         int64            `json:"id"`
	UserID     int64            `json:"user_id"`
	CreatureID int32            `json:"creature_id"`
	IsOwned    bool             `json:"is_owned"`
	Level      int32            `json:"level"`
	Experience int64            `json:"experience"`
	IsActive   bool             `json:"is_active"`
	Stats      map[string]int64 `json:"stats"`
	LastFedAt  *time.Time       `json:"last_fed_at,omitempty"`
	Mount      *Tamed           `json:"mount,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// MarshalJSON 未驯服时省略 mount 字段
func (o *Ownership) MarshalJSON() ([]byte, error) {
	v := ownershipJSON{
		ID:         o.ID,
		UserID:     o.UserID,
		CreatureID: o.CreatureID,
		IsOwned:    o.IsOwned,
		Level:      o.Level,
		Experience: o.Experience,
		IsActive:   o.IsActive,
		Stats:      o.Stats,
		LastFedAt:  o.LastFedAt,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	if t, ok := o.TamedMount(); ok {
		v.Mount = t
	}
	return json.Marshal(v)
}

func (o *Ownership) UnmarshalJSON(data []byte) error {
	var v ownershipJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Ownership{
		ID:         v.ID,
		UserID:     v.UserID,
		CreatureID: v.CreatureID,
		IsOwned:    v.IsOwned,
		Level:      v.Level,
		Experience: v.Experience,
		IsActive:   v.IsActive,
		Stats:      v.Stats,
		LastFedAt:  v.LastFedAt,
		Mount:      Untamed{},
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
	if v.Mount != nil {
		o.Mount = v.Mount
	}
	return nil
}
