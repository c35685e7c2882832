package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

type fakeProducer struct {
	key     string
	value   []byte
	headers map[string]string
	err     error
}

func (f *fakeProducer) PublishJSON(_ context.Context, key string, value []byte, headers map[string]string) error {
	f.key, f.value, f.headers = key, value, headers
	return f.err
}

func newTestMetrics(t *testing.T) *metrics.PetMetrics {
	t.Helper()
	m, err := metrics.New(nil)
	require.NoError(t, err)
	return m
}

func TestKafkaPublisher_Envelope(t *testing.T) {
	fp := &fakeProducer{}
	m := newTestMetrics(t)
	pub := NewKafkaPublisher(fp, logger.NewNoop(), m)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := pub.Publish(context.Background(), Event{
		Type:        TypePetFed,
		UserID:      42,
		OwnershipID: 7,
		Payload:     map[string]int{"level": 2},
		OccurredAt:  at,
	})
	require.NoError(t, err)

	assert.Equal(t, "42", fp.key)
	assert.Equal(t, "pet.fed", fp.headers["event_type"])

	var env Envelope
	require.NoError(t, json.Unmarshal(fp.value, &env))
	assert.Equal(t, TypePetFed, env.Type)
	assert.Equal(t, int64(42), env.UserID)
	assert.Equal(t, int64(7), env.OwnershipID)
	assert.True(t, at.Equal(env.OccurredAt))
	assert.Equal(t, fp.headers["event_id"], env.EventID)
	_, err = uuid.Parse(env.EventID)
	assert.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsPublished.WithLabelValues("pet.fed", "success")))
}

func TestKafkaPublisher_ProducerError(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker down")}
	m := newTestMetrics(t)
	pub := NewKafkaPublisher(fp, logger.NewNoop(), m)

	err := pub.Publish(context.Background(), Event{Type: TypeMountTamed, UserID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mount.tamed")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsPublished.WithLabelValues("mount.tamed", "failed")))
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), Event{Type: TypePetHatched}))
	require.NoError(t, r.Publish(context.Background(), Event{Type: TypePetLeveledUp}))

	assert.Equal(t, []Type{TypePetHatched, TypePetLeveledUp}, r.Types())
	assert.Len(t, r.Events(), 2)
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), Event{}))
}
