// Package events provides the in-process bus that carries domain events from
// the application services to real-time transports. Delivery is
// fire-and-forget, at most once: a subscriber that cannot keep up loses
// events rather than blocking mutations.
package events

import (
	"context"
	"sync"

	"github.com/example/slotpoll/internal/application"
)

// Bus fans domain events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan application.Event
	nextID int
	closed bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan application.Event)}
}

// Publish delivers the event to every current subscriber without blocking.
// Events for subscribers with a full buffer are dropped.
func (b *Bus) Publish(ctx context.Context, event application.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a new subscriber with the given channel buffer and
// returns its channel along with a cancel function. Cancelling closes the
// channel.
func (b *Bus) Subscribe(buffer int) (<-chan application.Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan application.Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Close shuts the bus down and closes all subscriber channels. Publish
// becomes a no-op afterwards.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
