// This module implements the engine's observer pipeline. The engine publishes one
// CacheEvent per terminal state change (add, update, remove, evict, expire) while it
// still holds its lock, so the event stream observed by subscribers matches the serial
// order of operations exactly.
//
// Subscribers run synchronously on the publishing goroutine. They must be fast,
// must not block, and must not call back into the engine: the engine's lock is held
// for the whole delivery. A subscriber that panics is contained and logged; delivery
// continues with the remaining subscribers.

package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType classifies the terminal state change an event reports.
type EventType string

const (
	ItemAdded   EventType = "ItemAdded"
	ItemUpdated EventType = "ItemUpdated"
	ItemRemoved EventType = "ItemRemoved"
	ItemEvicted EventType = "ItemEvicted"
	ItemExpired EventType = "ItemExpired"
)

// CacheEvent describes one lifecycle change of a cached item.
type CacheEvent struct {
	ID        ulid.ULID // Unique, time-sortable event identity.
	Type      EventType
	Key       string
	Value     any       // Set for ItemAdded and ItemUpdated; nil otherwise.
	Reason    string    // Set for ItemEvicted; empty otherwise.
	Timestamp time.Time // Wall clock at emission.
}

// Subscriber receives cache events. See the package notes above for the contract.
type Subscriber func(event CacheEvent)

// EventBus fans cache events out to an ordered list of subscribers. It is internally
// synchronized: Subscribe may be called while the engine is under concurrent traffic.
type EventBus struct {
	mux         sync.RWMutex
	subscribers []Subscriber
}

// NewEventBus creates an event bus with no subscribers.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe appends a subscriber to the delivery list. Subscribers are invoked in
// subscription order and cannot be removed.
func (b *EventBus) Subscribe(subscriber Subscriber) {
	if subscriber == nil {
		return
	}
	b.mux.Lock()
	defer b.mux.Unlock()
	b.subscribers = append(b.subscribers, subscriber)
}

// publish delivers the event to every subscriber, in subscription order, on the
// calling goroutine. The subscriber list is snapshotted first so a subscriber may
// itself call Subscribe without deadlocking.
func (b *EventBus) publish(event CacheEvent) {
	b.mux.RLock()
	subscribers := b.subscribers
	b.mux.RUnlock()

	for _, subscriber := range subscribers {
		notify(subscriber, event)
	}
}

// notify runs one subscriber, containing any panic so the engine and the remaining
// subscribers are unaffected.
func notify(subscriber Subscriber, event CacheEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Cache event subscriber panicked.",
				"event", event.Type, "key", event.Key, "panic", r)
		}
	}()
	subscriber(event)
}

// newEvent stamps a cache event with its identity and emission time.
func newEvent(eventType EventType, key string, value any, reason string) CacheEvent {
	return CacheEvent{
		ID:        ulid.Make(),
		Type:      eventType,
		Key:       key,
		Value:     value,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}
