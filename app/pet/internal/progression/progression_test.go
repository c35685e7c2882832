package progression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/policy"
)

func newEngine() *Engine {
	return NewEngine(policy.DefaultConfig())
}

func TestExperienceRequired_StrictlyIncreasing(t *testing.T) {
	e := newEngine()

	assert.EqualValues(t, 100, e.ExperienceRequired(1))
	assert.EqualValues(t, 150, e.ExperienceRequired(2))
	for level := int32(1); level < 500; level++ {
		assert.Greater(t, e.ExperienceRequired(level+1), e.ExperienceRequired(level))
	}
}

func TestApplyExperience(t *testing.T) {
	e := newEngine()

	tests := []struct {
		name     string
		level    int32
		exp      int64
		gained   int64
		maxLevel int32
		want     Result
	}{
		{
			name: "two level ups consume exactly", level: 1, exp: 0, gained: 250, maxLevel: 20,
			want: Result{NewLevel: 3, NewExperience: 0, LeveledUp: true},
		},
		{
			name: "below requirement", level: 1, exp: 10, gained: 50, maxLevel: 20,
			want: Result{NewLevel: 1, NewExperience: 60, LeveledUp: false},
		},
		{
			name: "exact requirement", level: 2, exp: 140, gained: 10, maxLevel: 20,
			want: Result{NewLevel: 3, NewExperience: 0, LeveledUp: true},
		},
		{
			name: "negative gain ignored", level: 4, exp: 30, gained: -100, maxLevel: 20,
			want: Result{NewLevel: 4, NewExperience: 30, LeveledUp: false},
		},
		{
			name: "overflow at cap discarded", level: 2, exp: 0, gained: 10000, maxLevel: 3,
			want: Result{NewLevel: 3, NewExperience: 0, LeveledUp: true},
		},
		{
			name: "already at cap", level: 5, exp: 0, gained: 500, maxLevel: 5,
			want: Result{NewLevel: 5, NewExperience: 0, LeveledUp: false},
		},
		{
			name: "unbounded", level: 1, exp: 0, gained: 100 + 150 + 200 + 20, maxLevel: 0,
			want: Result{NewLevel: 4, NewExperience: 20, LeveledUp: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ApplyExperience(tt.level, tt.exp, tt.gained, tt.maxLevel)
			assert.Equal(t, tt.want, got)
		})
	}
}

// 逐级累减的参照实现
func stepwise(e *Engine, level int32, exp int64, maxLevel int32) (int32, int64) {
	for maxLevel <= 0 || level < maxLevel {
		need := e.ExperienceRequired(level)
		if exp < need {
			break
		}
		exp -= need
		level++
	}
	if maxLevel > 0 && level >= maxLevel {
		exp = 0
	}
	return level, exp
}

func TestApplyExperience_MatchesStepwise(t *testing.T) {
	e := newEngine()

	for level := int32(1); level <= 30; level++ {
		for _, gained := range []int64{0, 1, 99, 100, 149, 150, 251, 5000, 123456} {
			for _, maxLevel := range []int32{0, 10, 60} {
				wantLevel, wantExp := stepwise(e, level, 7+gained, maxLevel)
				got := e.ApplyExperience(level, 7, gained, maxLevel)
				assert.Equal(t, wantLevel, got.NewLevel, "level=%d gained=%d max=%d", level, gained, maxLevel)
				assert.Equal(t, wantExp, got.NewExperience, "level=%d gained=%d max=%d", level, gained, maxLevel)
			}
		}
	}
}

func TestApplyExperience_HugeGain(t *testing.T) {
	e := newEngine()

	got := e.ApplyExperience(1, 0, 1<<62, 0)
	assert.True(t, got.LeveledUp)
	assert.Greater(t, got.NewLevel, int32(1))
	assert.Less(t, got.NewExperience, e.ExperienceRequired(got.NewLevel))

	got = e.ApplyExperience(math.MaxInt32-1, 0, math.MaxInt64, 0)
	assert.Equal(t, int32(math.MaxInt32), got.NewLevel)

	got = e.ApplyExperience(3, math.MaxInt64, math.MaxInt64, 50)
	assert.Equal(t, Result{NewLevel: 50, NewExperience: 0, LeveledUp: true}, got)
}

func TestApplyExperience_NeverDecreasesOrExceedsCap(t *testing.T) {
	e := newEngine()

	for level := int32(1); level <= 10; level++ {
		for _, gained := range []int64{0, 1, 99, 100, 1000, 50000} {
			got := e.ApplyExperience(level, 0, gained, 10)
			assert.GreaterOrEqual(t, got.NewLevel, level)
			assert.LessOrEqual(t, got.NewLevel, int32(10))
			assert.GreaterOrEqual(t, got.NewExperience, int64(0))
		}
	}
}

func TestExperienceToNext(t *testing.T) {
	e := newEngine()

	assert.EqualValues(t, 90, e.ExperienceToNext(1, 10, 20))
	assert.EqualValues(t, 0, e.ExperienceToNext(20, 0, 20))
	assert.EqualValues(t, 200, e.ExperienceToNext(3, 0, 0))
}

func TestTotalStats(t *testing.T) {
	e := newEngine()
	base := map[string]int64{"hp": 100, "attack": 15}

	stats := e.TotalStats(base, 3)

	assert.Equal(t, map[string]int64{"hp": 120, "attack": 18}, stats)
	assert.Equal(t, map[string]int64{"hp": 100, "attack": 15}, base)
	assert.Equal(t, base, e.TotalStats(base, 1))
}

func TestTotalMountSpeed(t *testing.T) {
	e := newEngine()

	assert.InDelta(t, 1.5, e.TotalMountSpeed(1.5, 1), 1e-9)
	assert.InDelta(t, 1.6, e.TotalMountSpeed(1.5, 3), 1e-9)

	prev := e.TotalMountSpeed(0, 1)
	for level := int32(2); level <= 50; level++ {
		cur := e.TotalMountSpeed(0, level)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}
