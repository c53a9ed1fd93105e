// capacity.go: the capacity enforcer — deterministic byte-budget eviction
// (spec.md §4.5)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import (
	"sort"
	"sync/atomic"
)

// capacityEnforcer evicts entries once total approximate bytes exceeds
// MaxCacheSizeBytes, walking a deterministic order so repeated runs over
// the same snapshot make the same decisions (spec.md §4.5, invariant 6).
// limit and strategy are atomic so a hot-reload collaborator can retune
// them without reconstructing the cache (spec.md §9's note that only TTL
// and similar runtime parameters need to survive a reload).
type capacityEnforcer[T any] struct {
	limit    int64 // atomic; uint64 budget stored as int64
	strategy int32 // atomic EvictionStrategy
}

func newCapacityEnforcer[T any](limit uint64, strategy EvictionStrategy) *capacityEnforcer[T] {
	e := &capacityEnforcer[T]{}
	atomic.StoreInt64(&e.limit, int64(limit))
	atomic.StoreInt32(&e.strategy, int32(strategy))
	return e
}

// setLimit updates the byte budget at runtime.
func (e *capacityEnforcer[T]) setLimit(limit uint64) {
	atomic.StoreInt64(&e.limit, int64(limit))
}

// setStrategy updates the eviction ordering at runtime.
func (e *capacityEnforcer[T]) setStrategy(strategy EvictionStrategy) {
	atomic.StoreInt32(&e.strategy, int32(strategy))
}

// candidate is one (key, size) pair drawn from a point-in-time store
// snapshot, used only to compute eviction order.
type candidate struct {
	key  string
	size uint64
}

// enforce evicts entries from store until total approximate bytes is at or
// under limit, or until the snapshot is exhausted. It consults stats for
// the live byte total (a cheap atomic read) and only takes a full entry
// snapshot when eviction is actually needed. When stats is nil, the total
// is the sum of the sizes in an entry snapshot instead.
func (e *capacityEnforcer[T]) enforce(store *entryStore[T], stats *Statistics) {
	limit := uint64(atomic.LoadInt64(&e.limit))
	if limit == 0 {
		return
	}
	var snap map[string]*CacheEntry[T]
	var current int64
	if stats != nil {
		current = stats.approximateBytes()
	} else {
		snap = store.snapshot()
		for _, v := range snap {
			current += int64(v.SizeBytes)
		}
	}
	if current < 0 {
		current = 0
	}
	if uint64(current) <= limit {
		return
	}

	if snap == nil {
		snap = store.snapshot()
	}
	candidates := make([]candidate, 0, len(snap))
	for k, v := range snap {
		candidates = append(candidates, candidate{key: k, size: v.SizeBytes})
	}
	e.sortCandidates(candidates)

	target := e.compactionTarget(current, limit)
	freed := uint64(0)
	for _, c := range candidates {
		if uint64(current)-freed <= limit && freed >= target {
			break
		}
		if entry, ok := snap[c.key]; ok {
			if store.removeIfUnchanged(c.key, entry, EvictionCapacity) {
				freed += c.size
			}
		}
		if uint64(current)-freed <= limit {
			break
		}
	}
}

// compactionTarget returns the larger of the literal overage and
// minCompactionFraction of current bytes (spec.md §9, open question 2).
// enforce stops its walk as soon as current minus freed bytes is at or
// under the limit, so the walk frees the overage and no more; no further
// compaction pass runs after the walk.
func (e *capacityEnforcer[T]) compactionTarget(current int64, limit uint64) uint64 {
	overage := uint64(0)
	if uint64(current) > limit {
		overage = uint64(current) - limit
	}
	fraction := uint64(float64(current) * minCompactionFraction)
	if overage > fraction {
		return overage
	}
	return fraction
}

// sortCandidates orders by size per strategy, ties broken by key so the
// walk is fully deterministic given a fixed snapshot.
func (e *capacityEnforcer[T]) sortCandidates(c []candidate) {
	switch EvictionStrategy(atomic.LoadInt32(&e.strategy)) {
	case LargestFirst:
		sort.Slice(c, func(i, j int) bool {
			if c[i].size != c[j].size {
				return c[i].size > c[j].size
			}
			return c[i].key < c[j].key
		})
	default: // SmallestFirst
		sort.Slice(c, func(i, j int) bool {
			if c[i].size != c[j].size {
				return c[i].size < c[j].size
			}
			return c[i].key < c[j].key
		})
	}
}
