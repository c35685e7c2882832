// Package progression 经验曲线与属性计算
// 纯计算，无 I/O，可并发调用
package progression

import (
	"math"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/policy"
)

// Result ApplyExperience 的结果
type Result struct {
	NewLevel      int32
	NewExperience int64
	LeveledUp     bool
}

// Engine 按数值配置计算成长
type Engine struct {
	curve              policy.CurveConfig
	statGrowth         float64
	mountSpeedPerLevel float64
}

// NewEngine 创建计算引擎
func NewEngine(p *policy.Config) *Engine {
	return &Engine{
		curve:              p.Curve,
		statGrowth:         p.StatGrowth,
		mountSpeedPerLevel: p.MountSpeedPerLevel,
	}
}

// ExperienceRequired 从 level 升到 level+1 所需经验
func (e *Engine) ExperienceRequired(level int32) int64 {
	if level < 1 {
		level = 1
	}
	return e.curve.Base + e.curve.Step*int64(level-1)
}

// ApplyExperience 累加经验并按曲线升级
// gained 为负视为 0；maxLevel <= 0 表示不封顶；到达上限后剩余经验清零
func (e *Engine) ApplyExperience(level int32, exp, gained int64, maxLevel int32) Result {
	if level < 1 {
		level = 1
	}
	if exp < 0 {
		exp = 0
	}
	if gained < 0 {
		gained = 0
	}

	newExp := exp + gained
	if newExp < exp {
		newExp = math.MaxInt64
	}

	limit := int64(math.MaxInt32) - int64(level)
	if maxLevel > 0 {
		limit = max(int64(maxLevel)-int64(level), 0)
	}

	// 二分求可提升的最大级数 k，使 cost(k) <= newExp
	lo, hi := int64(0), limit
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if c, ok := e.levelCost(level, mid); ok && c <= newExp {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	cost, _ := e.levelCost(level, lo)
	newExp -= cost
	newLevel := level + int32(lo)

	if maxLevel > 0 && newLevel >= maxLevel {
		newExp = 0
	}

	return Result{
		NewLevel:      newLevel,
		NewExperience: newExp,
		LeveledUp:     newLevel > level,
	}
}

// levelCost 从 level 连续提升 k 级所需的总经验
// 等差数列求和：k*(Base + Step*(level-1)) + Step*k*(k-1)/2，结果超出 int64 时 ok 为 false
func (e *Engine) levelCost(level int32, k int64) (int64, bool) {
	if k <= 0 {
		return 0, true
	}
	first := float64(e.curve.Base) + float64(e.curve.Step)*float64(level-1)
	approx := float64(k)*first + float64(e.curve.Step)*float64(k)*float64(k-1)/2
	if approx > 9e18 {
		return 0, false
	}
	return k*(e.curve.Base+e.curve.Step*int64(level-1)) + e.curve.Step*(k*(k-1)/2), true
}

// ExperienceToNext 距离下一级还差多少经验，已满级时为 0
func (e *Engine) ExperienceToNext(level int32, exp int64, maxLevel int32) int64 {
	if maxLevel > 0 && level >= maxLevel {
		return 0
	}
	remaining := e.ExperienceRequired(level) - exp
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TotalStats 计算等级加成后的属性，返回新 map，不修改 base
func (e *Engine) TotalStats(base map[string]int64, level int32) map[string]int64 {
	if level < 1 {
		level = 1
	}
	multiplier := 1 + e.statGrowth*float64(level-1)

	stats := make(map[string]int64, len(base))
	for k, v := range base {
		stats[k] = int64(math.Floor(float64(v) * multiplier))
	}
	return stats
}

// TotalMountSpeed 坐骑速度加成 = base + MountSpeedPerLevel × (mountLevel − 1)
func (e *Engine) TotalMountSpeed(base float64, mountLevel int32) float64 {
	if mountLevel < 1 {
		mountLevel = 1
	}
	return base + e.mountSpeedPerLevel*float64(mountLevel-1)
}
