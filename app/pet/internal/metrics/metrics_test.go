package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "pet", m.GetConfig().Namespace)
	assert.NoError(t, m.Push())
}

func TestRegister(t *testing.T) {
	m, err := New(&Config{Namespace: "pet_test"})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg), "second registration must conflict")
}

func TestRecorders(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.RecordOperation("hatch", "success", 0.01)
	m.RecordOperation("hatch", "INSUFFICIENT_RESOURCE", 0.01)
	m.RecordMaterialConsumed("taming_scroll", 3)
	m.RecordMaterialCredited("egg_common", 2)
	m.RecordLevelUp("pet", 2)
	m.RecordLevelUp("mount", 0)
	m.RecordDBQuery("select", false, 0.002)
	m.RecordCacheHit("redis")
	m.RecordCacheMiss("redis")
	m.RecordEvent("pet.hatched", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationTotal.WithLabelValues("hatch", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationTotal.WithLabelValues("hatch", "INSUFFICIENT_RESOURCE")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MaterialConsumed.WithLabelValues("taming_scroll")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MaterialCredited.WithLabelValues("egg_common")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LevelUps.WithLabelValues("pet")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LevelUps), "zero level ups are not recorded")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryTotal.WithLabelValues("select", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitTotal.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissTotal.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("pet.hatched", "success")))
}
