package cache

import (
	"math"
	"strings"
	"time"
)

// entry represents a single cached item. It carries the key-value pair, the timestamps
// driving TTL checks, and the links tying it into the frequency index. Entries are only
// ever touched while the owning engine holds its lock.
type entry struct {
	key       string
	value     any       // Opaque payload; nil is a legal stored value.
	createdAt time.Time // Engine clock reading at creation; immutable.
	expiresAt time.Time // Zero means the entry never expires.
	// frequency counts successful reads plus one for the creation itself.
	// It saturates at math.MaxUint64 instead of wrapping.
	frequency uint64
	bucket    *bucket                 // The frequency bucket this entry currently belongs to.
	node      *linkedListNode[*entry] // Position within the bucket's entry list.
}

// isExpired reports whether the entry's deadline has been reached at the given instant.
func (e *entry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// isSaturated reports whether the frequency counter has hit its ceiling. Saturated
// entries stay in their bucket; further reads succeed without promotion.
func (e *entry) isSaturated() bool {
	return e.frequency == math.MaxUint64
}

// validKey rejects the keys the engine refuses to store: empty or whitespace-only.
func validKey(key string) bool {
	return strings.TrimSpace(key) != ""
}
