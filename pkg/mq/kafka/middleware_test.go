package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

func TestProducerMiddleware_Order(t *testing.T) {
	var order []string
	trace := func(name string) ProducerMiddleware {
		return func(ctx context.Context, msg *Message, next PublishFunc) error {
			order = append(order, name)
			return next(ctx, msg)
		}
	}

	c := newTestClient(t, &fakeWriter{}, WithProducerMiddleware(trace("first"), trace("second")))
	require.NoError(t, c.Publish(context.Background(), "t", &Message{}))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestProducerRecoveryMiddleware(t *testing.T) {
	mw := ProducerRecoveryMiddleware(logger.NewNoop())

	err := mw(context.Background(), &Message{Topic: "t"}, func(context.Context, *Message) error {
		panic("boom")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProducerPanic)
	assert.Contains(t, err.Error(), "boom")
}

func TestProducerHeaderMiddleware(t *testing.T) {
	w := &fakeWriter{}
	c := newTestClient(t, w, WithProducerMiddleware(
		ProducerHeaderMiddleware(map[string]string{"source": "petctl", "event_type": "default"}),
	))

	msg := &Message{Headers: map[string]string{"event_type": "pet.hatched"}}
	require.NoError(t, c.Publish(context.Background(), "t", msg))

	assert.Equal(t, "petctl", msg.Headers["source"])
	assert.Equal(t, "pet.hatched", msg.Headers["event_type"])
	require.Len(t, w.msgs, 1)
	assert.Len(t, w.msgs[0].Headers, 2)
}

func TestProducerLoggingMiddleware_PassesError(t *testing.T) {
	mw := ProducerLoggingMiddleware(logger.NewNoop())
	want := assert.AnError

	err := mw(context.Background(), &Message{}, func(context.Context, *Message) error { return want })
	assert.Equal(t, want, err)
}
