// Package signal implements the in-process update bus that fans sensor
// state changes out to subscribers.
package signal

import (
	"sync"

	"github.com/homegrid-labs/mobile-gateway/internal/model"
)

// Listener receives the full merged sensor entry after each state change.
type Listener func(*model.Sensor)

// Bus delivers sensor updates synchronously, in subscription order, to the
// listeners active at publish time. There is no persistence and no replay.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn Listener
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe adds a listener and returns its unsubscribe func. Unsubscribing
// twice is a no-op.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish notifies every current subscriber with the entry, in order.
func (b *Bus) Publish(sensor *model.Sensor) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(sensor)
	}
}
