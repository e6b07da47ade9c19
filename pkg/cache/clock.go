package cache

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Clock supplies the engine's notion of "now" for TTL bookkeeping. Injecting a fake
// clock makes expiration deterministic in tests. Event timestamps intentionally do not
// go through this interface; they record wall-clock emission time.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock, reading from go-timecache's cached time source.
// TTL checks happen on every access, so the cheap cached read beats time.Now() here.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Unix(0, timecache.CachedTimeNano())
}
