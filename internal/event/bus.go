// Package event provides a pub/sub bus for permission approval events using
// watermill. UIs subscribe to learn about pending approval requests; the
// gate publishes when a request is opened or resolved.
package event

import (
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type identifies an event.
type Type string

const (
	ApprovalRequested Type = "approval.requested"
	ApprovalResolved  Type = "approval.resolved"
)

// Event is a published event.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// Subscriber receives events.
type Subscriber func(Event)

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// Bus routes events to subscribers. Watermill's gochannel provides the
// pub/sub infrastructure; subscribers are tracked directly so events keep
// their Go types instead of round-tripping through message payloads.
type Bus struct {
	mu     sync.RWMutex
	pubsub *gochannel.GoChannel

	subscribers map[Type][]subscriberEntry
	nextID      uint64
	closed      bool
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 64,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		subscribers: make(map[Type][]subscriberEntry),
	}
}

// Subscribe registers a subscriber for one event type and returns an
// unsubscribe function.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := atomic.AddUint64(&b.nextID, 1)
	b.subscribers[t] = append(b.subscribers[t], subscriberEntry{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[t]
		for i, entry := range subs {
			if entry.id == id {
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers an event to every subscriber of its type. Each subscriber
// runs in its own goroutine so a slow UI cannot stall a permission decision.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]Subscriber, 0, len(b.subscribers[ev.Type]))
	for _, entry := range b.subscribers[ev.Type] {
		subs = append(subs, entry.fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		go fn(ev)
	}
}

// PublishSync delivers an event in the caller's goroutine, returning after
// every subscriber has run. Used by tests.
func (b *Bus) PublishSync(ev Event) {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers[ev.Type]))
	for _, entry := range b.subscribers[ev.Type] {
		subs = append(subs, entry.fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Close shuts the bus down; further Publish calls are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subscribers = make(map[Type][]subscriberEntry)
	b.mu.Unlock()

	return b.pubsub.Close()
}

// PubSub exposes the underlying watermill GoChannel for callers that bridge
// events onto a distributed backend.
func (b *Bus) PubSub() *gochannel.GoChannel {
	return b.pubsub
}
