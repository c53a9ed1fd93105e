// entry.go: the entry store — a concurrent mapping from key to CacheEntry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import (
	"sync"
	"time"
)

// CacheEntry is one live cache record. expiresAt is absolute nanoseconds
// since epoch, comparable against Clock.Now().
type CacheEntry[T any] struct {
	Value      T
	ExpiresAt  int64
	SizeBytes  uint64
	ProducedIn time.Duration
}

// entryStore owns all live CacheEntry records for one Cache. Operations on
// distinct keys interleave freely; operations on the same key serialize
// through the underlying sync.Map bucket lock (spec.md §4.3 — this is in
// addition to, not a replacement for, the keyed lock registry that
// serializes producer execution).
type entryStore[T any] struct {
	m        sync.Map // string -> *CacheEntry[T]
	clock    Clock
	onEvict  EvictionCallback
}

func newEntryStore[T any](clock Clock, onEvict EvictionCallback) *entryStore[T] {
	return &entryStore[T]{clock: clock, onEvict: onEvict}
}

// tryGet returns the live entry for key, or (nil, false) if absent or
// expired. An observed-expired entry is removed and its eviction callback
// fired before returning.
func (s *entryStore[T]) tryGet(key string) (*CacheEntry[T], bool) {
	v, ok := s.m.Load(key)
	if !ok {
		return nil, false
	}
	entry := v.(*CacheEntry[T])
	if s.clock.Now() >= entry.ExpiresAt {
		if s.m.CompareAndDelete(key, v) {
			s.onEvict(key, entry.SizeBytes, EvictionExpired)
		}
		return nil, false
	}
	return entry, true
}

// contains is a non-mutating probe; unlike tryGet it never removes an
// expired entry or fires a callback, and it does not affect statistics
// (spec.md §4.3).
func (s *entryStore[T]) contains(key string) bool {
	v, ok := s.m.Load(key)
	if !ok {
		return false
	}
	entry := v.(*CacheEntry[T])
	return s.clock.Now() < entry.ExpiresAt
}

// insert replaces any existing entry for key atomically, firing an
// EvictionReplaced callback for whatever it displaced.
func (s *entryStore[T]) insert(key string, value T, expiresAt int64, sizeBytes uint64, producedIn time.Duration) {
	next := &CacheEntry[T]{Value: value, ExpiresAt: expiresAt, SizeBytes: sizeBytes, ProducedIn: producedIn}
	prev, had := s.m.Swap(key, next)
	if had {
		old := prev.(*CacheEntry[T])
		s.onEvict(key, old.SizeBytes, EvictionReplaced)
	}
}

// remove deletes key if present, firing the eviction callback with reason.
// No-op if key is absent.
func (s *entryStore[T]) remove(key string, reason EvictionReason) {
	v, ok := s.m.LoadAndDelete(key)
	if !ok {
		return
	}
	entry := v.(*CacheEntry[T])
	s.onEvict(key, entry.SizeBytes, reason)
}

// removeIfUnchanged removes key only if its current entry is still exactly
// old — used by the capacity enforcer to avoid evicting an entry that was
// concurrently replaced after the enforcer took its snapshot.
func (s *entryStore[T]) removeIfUnchanged(key string, old *CacheEntry[T], reason EvictionReason) bool {
	if s.m.CompareAndDelete(key, old) {
		s.onEvict(key, old.SizeBytes, reason)
		return true
	}
	return false
}

// snapshot returns a point-in-time copy of (key, entry) pairs, used by the
// Capacity Enforcer to compute an eviction order without holding any lock
// across the whole walk.
func (s *entryStore[T]) snapshot() map[string]*CacheEntry[T] {
	out := make(map[string]*CacheEntry[T])
	s.m.Range(func(k, v interface{}) bool {
		out[k.(string)] = v.(*CacheEntry[T])
		return true
	})
	return out
}

// evictAll removes every live entry, firing a callback for each, in
// whatever order sync.Map.Range visits them. Used by Cache.Dispose.
func (s *entryStore[T]) evictAll(reason EvictionReason) {
	s.m.Range(func(k, v interface{}) bool {
		if s.m.CompareAndDelete(k, v) {
			entry := v.(*CacheEntry[T])
			s.onEvict(k.(string), entry.SizeBytes, reason)
		}
		return true
	})
}
