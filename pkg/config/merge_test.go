package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolConfig struct {
	MaxConns    int32
	MaxIdleTime time.Duration
}

type mergeTestConfig struct {
	Name     string
	Enabled  bool
	Ratio    float64
	Pool     poolConfig
	Costs    map[string]int64
	Brokers  []string
	Optional *poolConfig
	Since    time.Time
}

func TestMergeConfig(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		dst   *mergeTestConfig
		src   *mergeTestConfig
		check func(t *testing.T, got *mergeTestConfig)
	}{
		{
			name: "zero values keep defaults",
			dst:  &mergeTestConfig{Name: "default", Ratio: 0.1, Pool: poolConfig{MaxConns: 10}},
			src:  &mergeTestConfig{},
			check: func(t *testing.T, got *mergeTestConfig) {
				assert.Equal(t, "default", got.Name)
				assert.Equal(t, 0.1, got.Ratio)
				assert.EqualValues(t, 10, got.Pool.MaxConns)
			},
		},
		{
			name: "nested fields override independently",
			dst:  &mergeTestConfig{Pool: poolConfig{MaxConns: 10, MaxIdleTime: time.Minute}},
			src:  &mergeTestConfig{Pool: poolConfig{MaxConns: 50}},
			check: func(t *testing.T, got *mergeTestConfig) {
				assert.EqualValues(t, 50, got.Pool.MaxConns)
				assert.Equal(t, time.Minute, got.Pool.MaxIdleTime)
			},
		},
		{
			name: "maps merge by key and slices replace",
			dst:  &mergeTestConfig{Costs: map[string]int64{"taming_scroll": 3, "mount_essence": 1}, Brokers: []string{"a", "b"}},
			src:  &mergeTestConfig{Costs: map[string]int64{"taming_scroll": 5}, Brokers: []string{"c"}},
			check: func(t *testing.T, got *mergeTestConfig) {
				assert.Equal(t, map[string]int64{"taming_scroll": 5, "mount_essence": 1}, got.Costs)
				assert.Equal(t, []string{"c"}, got.Brokers)
			},
		},
		{
			name: "pointer allocated when dst nil",
			dst:  &mergeTestConfig{},
			src:  &mergeTestConfig{Optional: &poolConfig{MaxConns: 3}},
			check: func(t *testing.T, got *mergeTestConfig) {
				require.NotNil(t, got.Optional)
				assert.EqualValues(t, 3, got.Optional.MaxConns)
			},
		},
		{
			name: "opaque struct replaced whole",
			dst:  &mergeTestConfig{},
			src:  &mergeTestConfig{Since: since, Enabled: true},
			check: func(t *testing.T, got *mergeTestConfig) {
				assert.True(t, got.Since.Equal(since))
				assert.True(t, got.Enabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MergeConfig(tt.dst, tt.src)
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestMergeConfig_Nil(t *testing.T) {
	dst := &mergeTestConfig{Name: "dst"}
	src := &mergeTestConfig{Name: "src"}

	got, err := MergeConfig(dst, nil)
	require.NoError(t, err)
	assert.Same(t, dst, got)

	got, err = MergeConfig(nil, src)
	require.NoError(t, err)
	assert.Same(t, src, got)

	_, err = MergeConfig[mergeTestConfig](nil, nil)
	assert.ErrorIs(t, err, ErrBothNil)
}
