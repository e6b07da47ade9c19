package cache

import (
	"strconv"

	"github.com/agilira/go-errors"
)

// Error codes for cache construction. Runtime operations never surface errors; their
// outcomes are encoded in boolean / nil returns.
const (
	ErrCodeInvalidCapacity   errors.ErrorCode = "MANGO_INVALID_CAPACITY"
	ErrCodeInvalidShardCount errors.ErrorCode = "MANGO_INVALID_SHARD_COUNT"
)

// newErrInvalidCapacity reports a construction attempt with capacity < 1.
func newErrInvalidCapacity(capacity int) error {
	return errors.NewWithField(ErrCodeInvalidCapacity,
		"invalid capacity: must be at least 1", "capacity", strconv.Itoa(capacity))
}

// newErrInvalidShardCount reports a sharded construction attempt with a shard count
// that is < 1 or exceeds the total capacity.
func newErrInvalidShardCount(capacity, shardCount int) error {
	return errors.NewWithContext(ErrCodeInvalidShardCount,
		"invalid shard count: must be at least 1 and at most the capacity",
		map[string]interface{}{"capacity": capacity, "shardCount": shardCount})
}

// IsInvalidCapacity checks whether the error reports an invalid capacity.
func IsInvalidCapacity(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidCapacity)
}

// IsInvalidShardCount checks whether the error reports an invalid shard count.
func IsInvalidShardCount(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidShardCount)
}
