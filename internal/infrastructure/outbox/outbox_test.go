package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinged struct{ n int }

func (pinged) EventName() string { return "test.pinged" }

func TestBus_DeliversToEverySubscriber(t *testing.T) {
	bus := NewBus(nil, Options{})
	var mu sync.Mutex
	var got []int
	for range 2 {
		bus.Subscribe("test.pinged", func(_ context.Context, e domoutbox.Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, e.(pinged).n)
			return nil
		})
	}

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), pinged{n: 7}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	bus.Stop(ctx)

	assert.Equal(t, []int{7, 7}, got)
}

func TestBus_PublishAfterStop(t *testing.T) {
	bus := NewBus(nil, Options{})
	bus.Start(context.Background())
	bus.Stop(context.Background())

	err := bus.Publish(context.Background(), pinged{})
	assert.ErrorIs(t, err, domoutbox.ErrClosed)
}

func TestBus_HandlerPanicDoesNotStopDispatch(t *testing.T) {
	bus := NewBus(nil, Options{Concurrency: 1})
	var calls atomic.Int32
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return errors.New("second call fails")
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), pinged{n: 1}))
	require.NoError(t, bus.Publish(context.Background(), pinged{n: 2}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	bus.Stop(ctx)

	assert.Equal(t, int32(2), calls.Load())
}

func TestBus_PublishHonorsContextWhenFull(t *testing.T) {
	bus := NewBus(nil, Options{QueueSize: 1})
	require.NoError(t, bus.Publish(context.Background(), pinged{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bus.Publish(ctx, pinged{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
