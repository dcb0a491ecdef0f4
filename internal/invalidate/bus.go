// Package invalidate carries "this resource changed" signals from mutation
// dialogs to the list views and dropdown caches that display the resource.
package invalidate

import (
	"sync"

	"github.com/ssis-app/ssis/internal/pkg/query"
)

// Signal names the resource whose data went stale.
type Signal struct {
	Resource string
	// Origin is the resource whose mutation caused the signal. It differs
	// from Resource when a dependent is notified.
	Origin string
}

type subscriber struct {
	resource string
	ch       chan Signal
}

// Bus fans invalidations out to subscribers. Delivery never blocks the
// publisher: each subscriber holds at most one undelivered signal, and
// repeated signals coalesce.
type Bus struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: map[*subscriber]struct{}{}}
}

// Subscribe returns a channel receiving signals for resource and a function
// that unsubscribes and closes the channel.
func (b *Bus) Subscribe(resource string) (<-chan Signal, func()) {
	s := &subscriber{resource: resource, ch: make(chan Signal, 1)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[s]; ok {
				delete(b.subs, s)
				close(s.ch)
			}
		})
	}
}

// Publish signals resource and every resource that embeds its codes.
func (b *Bus) Publish(resource string) {
	targets := append([]string{resource}, query.Dependents[resource]...)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for s := range b.subs {
		for _, target := range targets {
			if s.resource != target {
				continue
			}
			select {
			case s.ch <- Signal{Resource: target, Origin: resource}:
			default:
			}
		}
	}
}

// Close closes every subscription. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
		delete(b.subs, s)
	}
}
