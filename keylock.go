// keylock.go: the keyed lock registry — per-key mutual exclusion for the
// producer single-flight guarantee (spec.md §4.1)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// keySlot is one reusable binary lock plus its outstanding-handle count.
// The semaphore (weight 1) doubles as both the blocking and the
// context-aware suspending primitive, so Acquire and AcquireContext never
// fight over separate locks for the same key.
type keySlot struct {
	sem      *semaphore.Weighted
	refCount int32 // atomic
}

func newKeySlot() *keySlot {
	return &keySlot{sem: semaphore.NewWeighted(1)}
}

// LockHandle is a scoped keyed-lock acquisition. Release must be called
// exactly once, typically via defer.
type LockHandle struct {
	registry *KeyedLockRegistry
	key      string
	slot     *keySlot
	held     bool
}

// Release releases the underlying primitive and decrements the slot's
// reference count. Calling Release more than once is a no-op.
func (h *LockHandle) Release() {
	if h == nil || !h.held {
		return
	}
	h.held = false
	h.slot.sem.Release(1)
	atomic.AddInt32(&h.slot.refCount, -1)
}

// KeyedLockRegistry hands out per-key LockHandles while keeping memory
// bounded: slots whose ref count returns to zero are reclaimed by a
// background sweeper rather than torn down inline, avoiding the race
// between a sweeper observing refCount == 0 and a concurrent acquirer
// about to reuse the same slot (spec.md §4.1's "key algorithm").
type KeyedLockRegistry struct {
	mu              sync.Mutex
	slots           map[string]*keySlot
	cleanupInterval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewKeyedLockRegistry creates a registry whose sweeper runs every
// cleanupInterval. The sweeper goroutine starts immediately.
func NewKeyedLockRegistry(cleanupInterval time.Duration) *KeyedLockRegistry {
	r := &KeyedLockRegistry{
		slots:           make(map[string]*keySlot),
		cleanupInterval: cleanupInterval,
		stopCh:          make(chan struct{}),
		done:            make(chan struct{}),
	}
	go r.sweep()
	return r
}

// slotFor looks up or creates the slot for key and bumps its ref count
// before releasing the map-level guard, which is what makes "observed and
// kept" / "observed and removed" / "observed and incremented" mutually
// exclusive with the sweeper (spec.md §4.1 step 1 and step 4).
func (r *KeyedLockRegistry) slotFor(key string) *keySlot {
	r.mu.Lock()
	slot, ok := r.slots[key]
	if !ok {
		slot = newKeySlot()
		r.slots[key] = slot
	}
	atomic.AddInt32(&slot.refCount, 1)
	r.mu.Unlock()
	return slot
}

// Acquire blocks until the lock for key is held and returns a handle.
// Acquisition never fails by design (spec.md §4.1's failure model).
func (r *KeyedLockRegistry) Acquire(key string) *LockHandle {
	slot := r.slotFor(key)
	_ = slot.sem.Acquire(context.Background(), 1)
	return &LockHandle{registry: r, key: key, slot: slot, held: true}
}

// AcquireContext suspends until the lock for key is held or ctx is done.
// On cancellation the nascent reference taken in slotFor is released so the
// slot does not leak a phantom holder (spec.md §4.1, cancellation note).
func (r *KeyedLockRegistry) AcquireContext(ctx context.Context, key string) (*LockHandle, error) {
	slot := r.slotFor(key)
	if err := slot.sem.Acquire(ctx, 1); err != nil {
		atomic.AddInt32(&slot.refCount, -1)
		return nil, err
	}
	return &LockHandle{registry: r, key: key, slot: slot, held: true}, nil
}

// Count returns the number of slots currently tracked, for tests and
// statistics (spec.md §4.1).
func (r *KeyedLockRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// sweep runs on a single dedicated goroutine, removing idle slots every
// cleanupInterval until Stop is called.
func (r *KeyedLockRegistry) sweep() {
	defer close(r.done)
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.reclaimIdle()
		case <-r.stopCh:
			return
		}
	}
}

// reclaimIdle removes every slot with a zero ref count under the
// map-level guard, so a concurrent slotFor for the same key either
// observes the slot before removal (and keeps it alive via the bumped ref
// count) or observes it absent and creates a fresh one — never a slot
// caught mid-removal.
func (r *KeyedLockRegistry) reclaimIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, slot := range r.slots {
		if atomic.LoadInt32(&slot.refCount) == 0 {
			delete(r.slots, key)
		}
	}
}

// Stop halts the sweeper goroutine. Idempotent.
func (r *KeyedLockRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	<-r.done
}
