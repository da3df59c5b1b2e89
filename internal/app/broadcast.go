package app

import (
	"sync"

	"livequiz-service/internal/domain"
)

const subscriberBuffer = 16

// hub fans session events out to every subscribed channel. Delivery is
// fire-and-forget per channel: a full buffer drops the oldest pending
// event so a slow or disconnected subscriber never blocks the session.
type hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	userID string
	ch     chan domain.Event
}

func newHub() *hub {
	return &hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers a channel for the given user id. The returned
// cancel function removes the subscription and closes the channel; it
// is safe to call more than once.
func (h *hub) Subscribe(userID string) (<-chan domain.Event, func()) {
	sub := &subscriber{
		userID: userID,
		ch:     make(chan domain.Event, subscriberBuffer),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers a public event to every subscriber.
func (h *hub) Publish(ev domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		deliver(sub.ch, ev)
	}
}

// PublishTo delivers a private event to the channels of one user only.
func (h *hub) PublishTo(userID string, ev domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.userID == userID {
			deliver(sub.ch, ev)
		}
	}
}

// Close drops and closes every subscription.
func (h *hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

func deliver(ch chan domain.Event, ev domain.Event) {
	select {
	case ch <- ev:
	default:
		// Drop the oldest pending event rather than block the sender.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
