package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasHubDeliversUpdates(t *testing.T) {
	hub := NewCanvasHub()
	ch, cancel := hub.Subscribe("conv-1")
	defer cancel()

	hub.Publish("conv-1", CanvasState{"screenType": "welcome"})
	hub.Publish("conv-2", CanvasState{"screenType": "question"})

	got := <-ch
	assert.Equal(t, "welcome", got["screenType"])
	select {
	case extra := <-ch:
		t.Fatalf("unexpected update %v", extra)
	default:
	}
}

func TestCanvasHubPrimesLateSubscribers(t *testing.T) {
	hub := NewCanvasHub()
	first, cancelFirst := hub.Subscribe("conv-1")
	defer cancelFirst()
	hub.Publish("conv-1", CanvasState{"qNum": 2})
	<-first

	second, cancelSecond := hub.Subscribe("conv-1")
	defer cancelSecond()
	got := <-second
	assert.Equal(t, 2, got["qNum"])
}

func TestCanvasHubDropsOldestForSlowSubscriber(t *testing.T) {
	hub := NewCanvasHub()
	ch, cancel := hub.Subscribe("conv-1")
	defer cancel()

	for i := 0; i < 20; i++ {
		hub.Publish("conv-1", CanvasState{"qNum": i})
	}
	var last CanvasState
	for len(ch) > 0 {
		last = <-ch
	}
	require.NotNil(t, last)
	assert.Equal(t, 19, last["qNum"])
}

func TestCanvasHubCancelClosesChannel(t *testing.T) {
	hub := NewCanvasHub()
	ch, cancel := hub.Subscribe("conv-1")
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	hub.Publish("conv-1", CanvasState{"qNum": 1})
}

func TestCanvasHubRetainsStateWithoutSubscribers(t *testing.T) {
	hub := NewCanvasHub()
	hub.Publish("conv-1", CanvasState{"screenType": "welcome"})

	ch, cancel := hub.Subscribe("conv-1")
	defer cancel()
	got := <-ch
	assert.Equal(t, "welcome", got["screenType"])
}

func TestCanvasHubExpiresRetainedState(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	hub := NewCanvasHub()
	hub.now = func() time.Time { return now }
	hub.Publish("conv-1", CanvasState{"screenType": "welcome"})

	now = now.Add(canvasRetention + time.Second)
	ch, cancel := hub.Subscribe("conv-1")
	defer cancel()
	assert.Zero(t, len(ch))

	hub.Publish("conv-2", CanvasState{"screenType": "question"})
	hub.mu.Lock()
	_, kept := hub.last["conv-1"]
	hub.mu.Unlock()
	assert.False(t, kept)
}

func TestCanvasHubForget(t *testing.T) {
	hub := NewCanvasHub()
	hub.Publish("conv-1", CanvasState{"screenType": "welcome"})
	hub.Forget("conv-1")

	ch, cancel := hub.Subscribe("conv-1")
	defer cancel()
	assert.Zero(t, len(ch))
}
