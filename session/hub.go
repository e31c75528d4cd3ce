package session

import (
	"sync"

	"github.com/hushline-media/streamroom/chatsim"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind than this starts dropping messages rather than
// blocking appends.
const subscriberBuffer = 32

// Hub fans appended chat messages out to live-feed subscribers (the SSE and
// WebSocket handlers). Publishing never blocks: the append path must stay
// instantaneous relative to timer granularity.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan chatsim.Message]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan chatsim.Message]struct{})}
}

// Subscribe registers a new live-feed subscriber. The returned cancel func is
// idempotent and must be called when the subscriber goes away; after cancel
// (or hub close) the channel is closed.
func (h *Hub) Subscribe() (<-chan chatsim.Message, func()) {
	ch := make(chan chatsim.Message, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers m to every subscriber, dropping it for any subscriber
// whose channel is full.
func (h *Hub) Publish(m chatsim.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- m:
		default:
		}
	}
}

// Close closes every subscriber channel and rejects future subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// SubscriberCount returns the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
