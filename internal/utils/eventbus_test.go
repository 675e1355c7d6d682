package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventBusDispatchesToSubscribers(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	got := make(chan Event, 4)
	bus.Subscribe("thread.created", func(e Event) { got <- e })
	bus.Subscribe("thread.created", func(e Event) { panic("boom") })
	bus.Subscribe("thread.created", func(e Event) { got <- e })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	bus.Publish("message.posted", 1)
	bus.Publish("thread.created", uint64(7))

	for i := 0; i < 2; i++ {
		select {
		case e := <-got:
			assert.Equal(t, "thread.created", e.Event)
			assert.Equal(t, uint64(7), e.Data)
		case <-time.After(time.Second):
			require.FailNow(t, "event not delivered")
		}
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	for i := 0; i < 150; i++ {
		bus.Publish("message.posted", i)
	}
	assert.Len(t, bus.events, 100)
}
