// stats.go: atomic counters and bounded top-N collections (spec.md §4.4)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// TopSlowQuery tracks the worst, best, and running-weighted-average
// producer latency observed for one cache key (spec.md §9, open question
// 4: a running-weighted average, not a true mean over N most-recent).
type TopSlowQuery struct {
	Key         string
	WorstMs     int64
	BestMs      int64
	AvgMs       float64
	Occurrences int64
}

// TopHeavyEntry tracks the most recently observed size of one cache key.
type TopHeavyEntry struct {
	Key       string
	SizeBytes uint64
}

// Statistics holds atomic, low-overhead counters plus bounded top-N
// collections. It is optional — a nil *Statistics on the engine means
// "not available" and the hot path performs no counter updates beyond a
// single nil check (spec.md §4.4 "Enablement").
type Statistics struct {
	hits      int64
	misses    int64
	evictions int64
	entries   int64
	bytes     int64

	maxTopSlowest  int
	maxTopHeaviest int

	mu      sync.Mutex
	slowest map[string]*TopSlowQuery
	heaviest map[string]*TopHeavyEntry
}

// NewStatistics creates a Statistics with the given top-N bounds.
func NewStatistics(maxTopSlowest, maxTopHeaviest int) *Statistics {
	return &Statistics{
		maxTopSlowest:  maxTopSlowest,
		maxTopHeaviest: maxTopHeaviest,
		slowest:        make(map[string]*TopSlowQuery),
		heaviest:       make(map[string]*TopHeavyEntry),
	}
}

// RecordHit increments hit_count.
func (s *Statistics) RecordHit() { atomic.AddInt64(&s.hits, 1) }

// RecordMiss increments miss_count.
func (s *Statistics) RecordMiss() { atomic.AddInt64(&s.misses, 1) }

// RecordEviction increments eviction_count and adjusts entry_count and
// approximate_bytes downward. Used for removals that leave no successor
// entry behind (manual, expired, capacity).
func (s *Statistics) RecordEviction(sizeBytes uint64) {
	atomic.AddInt64(&s.evictions, 1)
	atomic.AddInt64(&s.entries, -1)
	atomic.AddInt64(&s.bytes, -int64(sizeBytes))
}

// RecordReplacementEviction increments eviction_count only. A replace
// displaces one entry but inserts another in the same motion, so
// entry_count/approximate_bytes must not move here — RecordInsert's
// isNew=false path already reconciles approximate_bytes against the
// displaced entry's size (spec.md §8 invariant 4: Replaced still counts
// toward eviction_count even though the key stays live).
func (s *Statistics) RecordReplacementEviction() {
	atomic.AddInt64(&s.evictions, 1)
}

// RecordInsert adjusts entry_count (if this is a new key, not a replace)
// and approximate_bytes by the delta between the new and any prior size.
func (s *Statistics) RecordInsert(isNew bool, newSize, oldSize uint64) {
	if isNew {
		atomic.AddInt64(&s.entries, 1)
	}
	atomic.AddInt64(&s.bytes, int64(newSize)-int64(oldSize))
}

// RecordProducerLatency upserts the slow-query top-N for key.
func (s *Statistics) RecordProducerLatency(key string, latency time.Duration) {
	if s.maxTopSlowest <= 0 {
		return
	}
	ms := latency.Milliseconds()
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.slowest[key]; ok {
		q.Occurrences++
		if ms > q.WorstMs {
			q.WorstMs = ms
		}
		if ms < q.BestMs {
			q.BestMs = ms
		}
		q.AvgMs += (float64(ms) - q.AvgMs) / float64(q.Occurrences)
		return
	}
	if len(s.slowest) >= s.maxTopSlowest {
		s.evictMinSlowest()
		if len(s.slowest) >= s.maxTopSlowest {
			return
		}
	}
	s.slowest[key] = &TopSlowQuery{Key: key, WorstMs: ms, BestMs: ms, AvgMs: float64(ms), Occurrences: 1}
}

// evictMinSlowest drops the entry with the lowest WorstMs, ties broken by
// key, to make room for a new key (spec.md §3, "bounded at configured N").
func (s *Statistics) evictMinSlowest() {
	var minKey string
	var minVal *TopSlowQuery
	for k, v := range s.slowest {
		if minVal == nil || v.WorstMs < minVal.WorstMs || (v.WorstMs == minVal.WorstMs && k < minKey) {
			minKey, minVal = k, v
		}
	}
	if minVal != nil {
		delete(s.slowest, minKey)
	}
}

// RecordEntrySize upserts the heavy-entry top-N for key.
func (s *Statistics) RecordEntrySize(key string, sizeBytes uint64) {
	if s.maxTopHeaviest <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.heaviest[key]; ok {
		e.SizeBytes = sizeBytes
		return
	}
	if len(s.heaviest) >= s.maxTopHeaviest {
		s.evictMinHeaviest()
		if len(s.heaviest) >= s.maxTopHeaviest {
			return
		}
	}
	s.heaviest[key] = &TopHeavyEntry{Key: key, SizeBytes: sizeBytes}
}

func (s *Statistics) evictMinHeaviest() {
	var minKey string
	var minVal *TopHeavyEntry
	for k, v := range s.heaviest {
		if minVal == nil || v.SizeBytes < minVal.SizeBytes || (v.SizeBytes == minVal.SizeBytes && k < minKey) {
			minKey, minVal = k, v
		}
	}
	if minVal != nil {
		delete(s.heaviest, minKey)
	}
}

// Snapshot is a read-only view suitable for periodic logging by an
// external task (spec.md §6).
type Snapshot struct {
	Hits             int64
	Misses           int64
	Evictions        int64
	EntryCount       int64
	ApproximateBytes int64
	TopSlowest       []TopSlowQuery
	TopHeaviest      []TopHeavyEntry
}

// HitRatio returns hits/(hits+misses), or 0 when no operations occurred.
func (s Snapshot) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// TotalOperations returns hits + misses.
func (s Snapshot) TotalOperations() int64 {
	return s.Hits + s.Misses
}

// Snapshot reads all counters and copies of the top-N collections.
// Individual counter reads are atomic; the snapshot as a whole is
// eventually consistent, not transactional (spec.md §4.4).
func (s *Statistics) Snapshot() Snapshot {
	snap := Snapshot{
		Hits:             atomic.LoadInt64(&s.hits),
		Misses:           atomic.LoadInt64(&s.misses),
		Evictions:        atomic.LoadInt64(&s.evictions),
		EntryCount:       atomic.LoadInt64(&s.entries),
		ApproximateBytes: atomic.LoadInt64(&s.bytes),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.TopSlowest = make([]TopSlowQuery, 0, len(s.slowest))
	for _, q := range s.slowest {
		snap.TopSlowest = append(snap.TopSlowest, *q)
	}
	sort.Slice(snap.TopSlowest, func(i, j int) bool {
		if snap.TopSlowest[i].WorstMs != snap.TopSlowest[j].WorstMs {
			return snap.TopSlowest[i].WorstMs > snap.TopSlowest[j].WorstMs
		}
		return snap.TopSlowest[i].Key < snap.TopSlowest[j].Key
	})
	snap.TopHeaviest = make([]TopHeavyEntry, 0, len(s.heaviest))
	for _, e := range s.heaviest {
		snap.TopHeaviest = append(snap.TopHeaviest, *e)
	}
	sort.Slice(snap.TopHeaviest, func(i, j int) bool {
		if snap.TopHeaviest[i].SizeBytes != snap.TopHeaviest[j].SizeBytes {
			return snap.TopHeaviest[i].SizeBytes > snap.TopHeaviest[j].SizeBytes
		}
		return snap.TopHeaviest[i].Key < snap.TopHeaviest[j].Key
	})
	return snap
}

// approximateBytes returns the live total without allocating a snapshot,
// for the Capacity Enforcer's cheap under-limit check.
func (s *Statistics) approximateBytes() int64 {
	return atomic.LoadInt64(&s.bytes)
}

// sizeSnapshot returns (key, size) pairs for every key the heavy-entry
// top-N currently tracks. The Capacity Enforcer does not call it; it takes
// its candidates from the entry store's own snapshot.
func (s *Statistics) sizeSnapshot() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.heaviest))
	for k, v := range s.heaviest {
		out[k] = v.SizeBytes
	}
	return out
}

// Reset zeroes all monotonic counters and clears the top-N collections.
// entry_count and approximate_bytes are derived from the live store and
// are not zeroed (spec.md §4.4).
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.evictions, 0)
	s.mu.Lock()
	s.slowest = make(map[string]*TopSlowQuery)
	s.heaviest = make(map[string]*TopHeavyEntry)
	s.mu.Unlock()
}
