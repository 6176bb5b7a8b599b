package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/mmo-game/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishClientEventReachesSubscriber(t *testing.T) {
	bus := eventbus.NewMemoryBus(8)
	e := &Engine{Events: bus}

	var mu sync.Mutex
	var got *eventbus.Envelope
	done := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		got = ev
		mu.Unlock()
		close(done)
	})
	require.NoError(t, err)

	e.publishClientEvent("client.connected", 42)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the published event")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, "client.connected", got.EventType)
	assert.Equal(t, "42", got.Metadata["client_stable_id"])
}

func TestPublishClientEventNoopsWithoutBus(t *testing.T) {
	e := &Engine{}
	assert.NotPanics(t, func() {
		e.publishClientEvent("client.connected", 1)
	})
}
