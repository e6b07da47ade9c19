// This module implements the cache engine: a capacity-bounded, thread-safe key/value
// store with approximate-LFU eviction and lazy per-entry TTL.
//
// Concurrency model:
// The whole engine state (key index, frequency index, per-entry fields) lives behind a
// single mutex. Every public operation takes it for the duration of its work, reads
// included, because a read promotes the entry between frequency buckets. Events are
// published while the lock is held, which is what makes the event stream match the
// serial order of operations; the flip side is that subscribers run under the lock and
// must never call back into the engine.
//
// Expiration model:
// TTL enforcement is lazy. There is no background sweeper; an expired entry occupies
// its slot until the next access (or an eviction) removes it. Read and Update treat an
// expired entry as absent, remove it inline, and report ItemExpired. Delete reports
// ItemRemoved even for expired entries, because the caller asked for a removal and got
// one.

package cache

import (
	"sync"
	"time"
)

// evictionReason tells observers why an ItemEvicted event fired. Subscribers are known
// to classify on the "LFU" and "frequency" substrings; keep both when rewording.
const evictionReason = "LFU: lowest frequency bucket, oldest entry"

// Engine is the cache engine. It is safe for concurrent use by multiple goroutines
// without external synchronization.
type Engine struct {
	mux      sync.Mutex
	capacity int
	entries  map[string]*entry // The key index; each value is linked into freqs.
	freqs    *frequencyIndex
	clock    Clock
	events   *EventBus
}

var _ Layer = (*Engine)(nil)

// New creates an engine bounded to the given number of entries. Capacity must be at
// least 1.
func New(capacity int) (*Engine, error) {
	return newEngine(capacity, systemClock{}, NewEventBus())
}

// NewWithClock creates an engine with an injected time source. Tests use this to make
// TTL expiry deterministic.
func NewWithClock(capacity int, clock Clock) (*Engine, error) {
	return newEngine(capacity, clock, NewEventBus())
}

func newEngine(capacity int, clock Clock, events *EventBus) (*Engine, error) {
	if capacity < 1 {
		return nil, newErrInvalidCapacity(capacity)
	}
	return &Engine{
		capacity: capacity,
		entries:  make(map[string]*entry, capacity),
		freqs:    newFrequencyIndex(),
		clock:    clock,
		events:   events,
	}, nil
}

// Events returns the engine's event bus so callers can subscribe to lifecycle events.
func (e *Engine) Events() *EventBus {
	return e.events
}

// Capacity returns the maximum number of entries the engine can hold.
func (e *Engine) Capacity() int {
	return e.capacity
}

// Len returns the current number of entries, expired-but-unswept ones included.
func (e *Engine) Len() int {
	e.mux.Lock()
	defer e.mux.Unlock()
	return len(e.entries)
}

// Create stores a new key with no expiry. It returns false if the key is invalid or
// already present. When the engine is full, the least frequently used entry (oldest
// among ties) is evicted first and an ItemEvicted event fires before the ItemAdded.
func (e *Engine) Create(key string, value any) bool {
	return e.create(key, value, 0 /*ttl*/, false /*expires*/)
}

// CreateTTL is Create with a time-to-live. A zero or negative TTL means the entry is
// already expired: the next access removes it and reports ItemExpired.
func (e *Engine) CreateTTL(key string, value any, ttl time.Duration) bool {
	return e.create(key, value, ttl, true /*expires*/)
}

func (e *Engine) create(key string, value any, ttl time.Duration, expires bool) bool {
	operationsMetric.WithLabelValues("create").Inc()
	if !validKey(key) {
		rejectedKeysMetric.Inc()
		return false
	}

	e.mux.Lock()
	defer e.mux.Unlock()

	if _, keyExists := e.entries[key]; keyExists {
		return false
	}
	// Make room first so the key index never exceeds capacity.
	if len(e.entries) >= e.capacity {
		if victim := e.freqs.evictOne(); victim != nil {
			delete(e.entries, victim.key)
			evictionsMetric.Inc()
			e.events.publish(newEvent(ItemEvicted, victim.key, nil /*value*/, evictionReason))
		}
	}

	now := e.clock.Now()
	ent := &entry{key: key, value: value, createdAt: now}
	if expires {
		ent.expiresAt = expiryFrom(now, ttl)
	}
	e.freqs.insertFresh(ent)
	e.entries[key] = ent
	e.events.publish(newEvent(ItemAdded, key, value, "" /*reason*/))
	return true
}

// Read returns the value stored under the key, or nil when the key is invalid, absent,
// or expired. A successful read counts as an access: the entry's frequency increments
// (saturating) and it moves one bucket up. Reads emit no events; expired entries are
// removed inline and report ItemExpired.
//
// Since nil is a storable value, callers that need to distinguish "stored nil" from
// "missing" must rely on the Create/Update booleans, not on Read.
func (e *Engine) Read(key string) any {
	operationsMetric.WithLabelValues("read").Inc()
	if !validKey(key) {
		rejectedKeysMetric.Inc()
		return nil
	}

	e.mux.Lock()
	defer e.mux.Unlock()

	ent, keyExists := e.entries[key]
	if !keyExists {
		missesMetric.Inc()
		return nil
	}
	if ent.isExpired(e.clock.Now()) {
		e.expireLocked(ent)
		missesMetric.Inc()
		return nil
	}
	e.freqs.promote(ent)
	hitsMetric.Inc()
	return ent.value
}

// Update replaces the value stored under the key, preserving its current expiry.
// It returns false if the key is invalid, absent, or expired (the expired entry is
// removed and ItemExpired fires). Updates never change the entry's frequency or its
// bucket: only reads count as accesses.
func (e *Engine) Update(key string, value any) bool {
	return e.update(key, value, 0 /*ttl*/, false /*replaceExpiry*/)
}

// UpdateTTL is Update with a new time-to-live replacing the current expiry. A zero or
// negative TTL expires the entry immediately, same as CreateTTL.
func (e *Engine) UpdateTTL(key string, value any, ttl time.Duration) bool {
	return e.update(key, value, ttl, true /*replaceExpiry*/)
}

func (e *Engine) update(key string, value any, ttl time.Duration, replaceExpiry bool) bool {
	operationsMetric.WithLabelValues("update").Inc()
	if !validKey(key) {
		rejectedKeysMetric.Inc()
		return false
	}

	e.mux.Lock()
	defer e.mux.Unlock()

	ent, keyExists := e.entries[key]
	if !keyExists {
		return false
	}
	now := e.clock.Now()
	if ent.isExpired(now) {
		e.expireLocked(ent)
		return false
	}
	ent.value = value
	if replaceExpiry {
		ent.expiresAt = expiryFrom(now, ttl)
	}
	e.events.publish(newEvent(ItemUpdated, key, value, "" /*reason*/))
	return true
}

// Delete removes the key and returns whether it was present. Deleting an entry that
// happens to have expired still succeeds and reports ItemRemoved, not ItemExpired:
// the caller's intent was removal and the expiration was never observed.
func (e *Engine) Delete(key string) bool {
	operationsMetric.WithLabelValues("delete").Inc()
	if !validKey(key) {
		rejectedKeysMetric.Inc()
		return false
	}

	e.mux.Lock()
	defer e.mux.Unlock()

	ent, keyExists := e.entries[key]
	if !keyExists {
		return false
	}
	e.freqs.remove(ent)
	delete(e.entries, key)
	e.events.publish(newEvent(ItemRemoved, key, nil /*value*/, "" /*reason*/))
	return true
}

// expireLocked removes an entry whose TTL has passed and reports ItemExpired.
// Must be called with the engine lock held.
func (e *Engine) expireLocked(ent *entry) {
	e.freqs.remove(ent)
	delete(e.entries, ent.key)
	expirationsMetric.Inc()
	e.events.publish(newEvent(ItemExpired, ent.key, nil /*value*/, "" /*reason*/))
}

// expiryFrom turns a TTL into a deadline. Non-positive TTLs mean "expired at now":
// the entry is stored but the next access removes it.
func expiryFrom(now time.Time, ttl time.Duration) time.Time {
	if ttl > 0 {
		return now.Add(ttl)
	}
	return now
}
