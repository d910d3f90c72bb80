package app

import (
	"sync"
	"time"
)

// canvasRetention bounds how long a conversation's last state is kept for canvases
// that have not connected yet.
const canvasRetention = 30 * time.Minute

type lastCanvas struct {
	state CanvasState
	at    time.Time
}

// CanvasHub fans canvas state updates out to the front-ends attached to a conversation.
type CanvasHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan CanvasState]struct{}
	last        map[string]lastCanvas
	now         func() time.Time
}

func NewCanvasHub() *CanvasHub {
	return &CanvasHub{
		subscribers: make(map[string]map[chan CanvasState]struct{}),
		last:        make(map[string]lastCanvas),
		now:         time.Now,
	}
}

// Subscribe returns a channel of updates for a conversation, primed with the latest
// state if there is one. The caller must invoke cancel to avoid leaks.
func (h *CanvasHub) Subscribe(conversationID string) (<-chan CanvasState, func()) {
	ch := make(chan CanvasState, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[conversationID]
	if !ok {
		subs = make(map[chan CanvasState]struct{})
		h.subscribers[conversationID] = subs
	}
	subs[ch] = struct{}{}
	if last, ok := h.last[conversationID]; ok && h.now().Sub(last.at) <= canvasRetention {
		ch <- last.state
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[conversationID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.subscribers, conversationID)
		}
	}
	return ch, cancel
}

// Publish records the latest state and delivers it. Slow subscribers lose their oldest
// pending update rather than blocking the turn.
func (h *CanvasHub) Publish(conversationID string, state CanvasState) {
	if len(state) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	h.pruneLocked(now)
	h.last[conversationID] = lastCanvas{state: state, at: now}

	for ch := range h.subscribers[conversationID] {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

// Forget drops the retained state of a finished conversation.
func (h *CanvasHub) Forget(conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.last, conversationID)
}

func (h *CanvasHub) pruneLocked(now time.Time) {
	for id, last := range h.last {
		if now.Sub(last.at) > canvasRetention {
			delete(h.last, id)
		}
	}
}
