// This module implements the approximate-LFU bookkeeping behind the engine.
// Entries with the same access count share a frequency bucket; buckets form a doubly
// linked list in strictly ascending frequency order, with a frequency -> bucket map for
// O(1) lookup. Every primitive (fresh insert, promotion, removal, victim selection)
// touches at most two buckets, so eviction decisions never scan the cache.
//
// Within a bucket, entries are kept in the order they arrived at that frequency
// (oldest at the front). The eviction victim is therefore the front entry of the
// front bucket: least frequently used, ties broken by age.

package cache

import (
	"github.com/nobletooth/mango/pkg/utils"
)

// bucket groups entries sharing the same frequency.
type bucket struct {
	frequency uint64
	entries   linkedList[*entry]       // Oldest arrival at the front.
	node      *linkedListNode[*bucket] // Position within the index's bucket chain.
}

// frequencyIndex is the ordered sequence of frequency buckets.
type frequencyIndex struct {
	buckets linkedList[*bucket]
	byFreq  map[uint64]*bucket
}

func newFrequencyIndex() *frequencyIndex {
	return &frequencyIndex{byFreq: make(map[uint64]*bucket)}
}

// insertFresh puts a new entry into bucket 1, creating the bucket at the front of the
// chain if it's missing. Frequency 1 is the minimum, so the bucket ordering holds.
func (fi *frequencyIndex) insertFresh(e *entry) {
	e.frequency = 1
	b, bucketExists := fi.byFreq[1]
	if !bucketExists {
		b = &bucket{frequency: 1}
		b.node = fi.buckets.PushFront(b)
		fi.byFreq[1] = b
	}
	e.bucket = b
	e.node = b.entries.PushBack(e)
}

// promote moves an entry from its current bucket to the one holding frequency+1,
// creating that bucket right after the current one if needed. The origin bucket is
// unlinked once empty. Saturated entries are left where they are.
func (fi *frequencyIndex) promote(e *entry) {
	if e.isSaturated() {
		return
	}
	origin := e.bucket
	if origin == nil || origin.frequency != e.frequency {
		utils.RaiseInvariant("cache", "promote_detached_entry",
			"Tried to promote an entry that is not linked to its frequency bucket.", "key", e.key)
		return
	}

	nextFreq := e.frequency + 1
	target, bucketExists := fi.byFreq[nextFreq]
	if !bucketExists {
		target = &bucket{frequency: nextFreq}
		target.node = fi.buckets.InsertAfter(target, origin.node)
		fi.byFreq[nextFreq] = target
	}

	origin.entries.Remove(e.node)
	e.frequency = nextFreq
	e.bucket = target
	e.node = target.entries.PushBack(e)
	fi.collapseIfEmpty(origin)
}

// remove unlinks an entry from its bucket and collapses the bucket if it became empty.
func (fi *frequencyIndex) remove(e *entry) {
	origin := e.bucket
	if origin == nil {
		utils.RaiseInvariant("cache", "remove_detached_entry",
			"Tried to remove an entry that is not linked to any frequency bucket.", "key", e.key)
		return
	}
	origin.entries.Remove(e.node)
	e.bucket = nil
	e.node = nil
	fi.collapseIfEmpty(origin)
}

// evictOne unlinks and returns the oldest entry of the minimum-frequency bucket.
// Callers only invoke this on a non-empty index; nil signals a bug, not an empty cache.
func (fi *frequencyIndex) evictOne() *entry {
	minBucket := fi.buckets.Front()
	if minBucket == nil {
		utils.RaiseInvariant("cache", "evict_on_empty_index",
			"Eviction was requested but the frequency index holds no buckets.")
		return nil
	}
	victimNode := minBucket.Value.entries.Front()
	if victimNode == nil {
		utils.RaiseInvariant("cache", "empty_bucket_in_index",
			"Found an empty bucket in the frequency index.", "frequency", minBucket.Value.frequency)
		return nil
	}
	victim := victimNode.Value
	fi.remove(victim)
	return victim
}

// collapseIfEmpty drops a bucket from the chain once its last entry leaves.
// No empty bucket survives an index operation.
func (fi *frequencyIndex) collapseIfEmpty(b *bucket) {
	if b.entries.Len() > 0 {
		return
	}
	fi.buckets.Remove(b.node)
	delete(fi.byFreq, b.frequency)
}
