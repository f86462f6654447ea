package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFanOut(t *testing.T) {
	bus := New()
	a := bus.Subscribe()
	b := bus.Subscribe()

	ev := StageEvent{Stage: "fetch", Rows: 100, Time: time.Now().UTC()}
	bus.Publish(ev)

	assert.Equal(t, ev, <-a)
	assert.Equal(t, ev, <-b)
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()

	for i := 0; i < 32; i++ {
		bus.Publish(StageEvent{Stage: "clean", Rows: i})
	}

	received := 0
	for {
		select {
		case <-sub:
			received++
		default:
			assert.Equal(t, 16, received, "buffer size bounds delivery")
			return
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	_, ok := <-sub
	require.False(t, ok)

	// Publishing after unsubscribe must not panic.
	bus.Publish(StageEvent{Stage: "features"})
}

func TestClose(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()
	bus.Close()

	_, ok := <-sub
	require.False(t, ok)

	bus.Publish(StageEvent{Stage: "train"})
	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing after close yields a closed channel")

	bus.Close()
}
