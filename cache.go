// cache.go: the cache engine — single-flight get-or-compute with TTL,
// optional capacity bound, and optional statistics (spec.md §4.6)
//
// Grounded on the singleflight dedup, panic-recovery, and negative-cache
// patterns in loading.go/loading_generic.go, generalized from a
// LoadOrStore inflight map to the explicit KeyedLockRegistry this module
// builds (spec.md §4.1).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Producer computes a value for a missing key. It may mutate nuances to
// override how its result is retained (spec.md §9: the four producer
// shapes the original offers collapse into this one Go-idiomatic shape;
// callers that don't need Nuances simply ignore the parameter).
type Producer[T any] func(nuances *Nuances) (T, error)

// ProducerContext is the context-aware, cancellable form of Producer.
type ProducerContext[T any] func(ctx context.Context, nuances *Nuances) (T, error)

type negativeEntry struct {
	err      error
	expireAt int64
}

// Cache is a single-flight, TTL-based, optionally capacity-bounded cache
// for values of type T. The zero value is not usable; construct with
// NewCache.
type Cache[T any] struct {
	cfg      Config
	store    *entryStore[T]
	locks    *KeyedLockRegistry
	stats    *Statistics
	sizer    ValueSizer
	enforcer *capacityEnforcer[T]

	negativeMu    sync.Mutex
	negativeCache map[string]negativeEntry

	// defaultRetentionNs mirrors cfg.DefaultRetention but is independently
	// mutable at runtime by a hot-reload collaborator (hotreload.go).
	defaultRetentionNs int64 // atomic

	disposed int32 // atomic: 0 = live, 1 = disposed
}

// NewCache constructs a Cache with cfg, applying defaults and validating.
func NewCache[T any](cfg Config) (*Cache[T], error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Cache[T]{cfg: cfg}
	atomic.StoreInt64(&c.defaultRetentionNs, int64(cfg.DefaultRetention))

	if cfg.StatisticsEnabled {
		c.stats = NewStatistics(cfg.MaxTopSlowest, cfg.MaxTopHeaviest)
	}

	c.store = newEntryStore[T](cfg.Clock, c.onEvict)
	c.locks = NewKeyedLockRegistry(cfg.CleanupInterval)

	if cfg.sizingEnabled() {
		c.sizer = NewValueSizer(cfg.SizeMode)
	}

	if cfg.MaxCacheSizeBytes != nil {
		c.enforcer = newCapacityEnforcer[T](*cfg.MaxCacheSizeBytes, cfg.EvictionStrategy)
	}

	if cfg.NegativeCacheTTL > 0 {
		c.negativeCache = make(map[string]negativeEntry)
	}

	return c, nil
}

// onEvict is the Entry Store's single eviction callback, wired into
// Statistics and the configured MetricsCollector. Replaced still counts
// toward eviction_count (spec.md §8 invariant 4) but must not double-touch
// entry_count/approximate_bytes, which RecordInsert already reconciled.
func (c *Cache[T]) onEvict(key string, sizeBytes uint64, reason EvictionReason) {
	if c.stats != nil {
		if reason == EvictionReplaced {
			c.stats.RecordReplacementEviction()
		} else {
			c.stats.RecordEviction(sizeBytes)
		}
	}
	c.cfg.MetricsCollector.RecordEviction(reason)
}

func (c *Cache[T]) isDisposed() bool {
	return atomic.LoadInt32(&c.disposed) != 0
}

// GetOrCompute returns the cached value for key, computing and inserting
// it via producer on a miss. retentionMs, if non-nil, overrides the
// cache's default retention for this call unless the producer itself sets
// nuances.CacheRetentionMs.
func (c *Cache[T]) GetOrCompute(key string, producer Producer[T], retentionMs *int64) (T, error) {
	var zero T
	if c.isDisposed() {
		return zero, NewErrDisposed("GetOrCompute")
	}
	if key == "" {
		return zero, NewErrEmptyKey("GetOrCompute")
	}
	if producer == nil {
		return zero, NewErrInvalidProducer("GetOrCompute")
	}
	opStart := c.cfg.Clock.Now()

	if entry, ok := c.store.tryGet(key); ok {
		c.recordHit(c.cfg.Clock.Now() - opStart)
		return entry.Value, nil
	}

	if err := c.negativeLookup(key); err != nil {
		return zero, err
	}

	handle := c.locks.Acquire(key)
	defer handle.Release()

	if entry, ok := c.store.tryGet(key); ok {
		c.recordHit(c.cfg.Clock.Now() - opStart)
		return entry.Value, nil
	}
	c.recordMiss(c.cfg.Clock.Now() - opStart)

	nuances := &Nuances{}
	start := c.cfg.Clock.Now()
	value, err := c.runProducer(key, producer, nuances)
	elapsed := time.Duration(c.cfg.Clock.Now() - start)
	c.cfg.MetricsCollector.RecordProduce(int64(elapsed))

	if err != nil {
		c.recordNegative(key, err)
		return zero, err
	}

	inserted := c.finishInsert(key, value, nuances, retentionMs, elapsed)
	if inserted && c.enforcer != nil {
		c.enforcer.enforce(c.store, c.stats)
	}
	return value, nil
}

// GetOrComputeContext is the context-aware, cancellable form of
// GetOrCompute. Cancelling ctx while another goroutine's producer is
// already running for key does not interrupt that producer; it only
// releases this caller's wait (spec.md §5, cancellation).
func (c *Cache[T]) GetOrComputeContext(ctx context.Context, key string, producer ProducerContext[T], retentionMs *int64) (T, error) {
	var zero T
	if c.isDisposed() {
		return zero, NewErrDisposed("GetOrComputeContext")
	}
	if key == "" {
		return zero, NewErrEmptyKey("GetOrComputeContext")
	}
	if producer == nil {
		return zero, NewErrInvalidProducer("GetOrComputeContext")
	}
	if err := ctx.Err(); err != nil {
		return zero, NewErrCancelled("GetOrComputeContext", err)
	}
	opStart := c.cfg.Clock.Now()

	if entry, ok := c.store.tryGet(key); ok {
		c.recordHit(c.cfg.Clock.Now() - opStart)
		return entry.Value, nil
	}

	if err := c.negativeLookup(key); err != nil {
		return zero, err
	}

	handle, err := c.locks.AcquireContext(ctx, key)
	if err != nil {
		return zero, NewErrCancelled("GetOrComputeContext", err)
	}
	defer handle.Release()

	if entry, ok := c.store.tryGet(key); ok {
		c.recordHit(c.cfg.Clock.Now() - opStart)
		return entry.Value, nil
	}
	c.recordMiss(c.cfg.Clock.Now() - opStart)

	nuances := &Nuances{}
	start := c.cfg.Clock.Now()
	value, prodErr := c.runProducerContext(ctx, key, producer, nuances)
	elapsed := time.Duration(c.cfg.Clock.Now() - start)
	c.cfg.MetricsCollector.RecordProduce(int64(elapsed))

	if prodErr != nil {
		c.recordNegative(key, prodErr)
		return zero, prodErr
	}

	inserted := c.finishInsert(key, value, nuances, retentionMs, elapsed)
	if inserted && c.enforcer != nil {
		c.enforcer.enforce(c.store, c.stats)
	}
	return value, nil
}

// ForceUpdate recomputes and replaces the entry for key unconditionally,
// bypassing the hit check. It never affects hit_count/miss_count.
func (c *Cache[T]) ForceUpdate(key string, producer Producer[T], retentionMs *int64) (T, error) {
	var zero T
	if c.isDisposed() {
		return zero, NewErrDisposed("ForceUpdate")
	}
	if key == "" {
		return zero, NewErrEmptyKey("ForceUpdate")
	}
	if producer == nil {
		return zero, NewErrInvalidProducer("ForceUpdate")
	}

	handle := c.locks.Acquire(key)
	defer handle.Release()

	nuances := &Nuances{}
	start := c.cfg.Clock.Now()
	value, err := c.runProducer(key, producer, nuances)
	elapsed := time.Duration(c.cfg.Clock.Now() - start)
	c.cfg.MetricsCollector.RecordProduce(int64(elapsed))

	if err != nil {
		return zero, err
	}

	inserted := c.finishInsert(key, value, nuances, retentionMs, elapsed)
	if inserted && c.enforcer != nil {
		c.enforcer.enforce(c.store, c.stats)
	}
	return value, nil
}

// ForceUpdateContext is the context-aware form of ForceUpdate.
func (c *Cache[T]) ForceUpdateContext(ctx context.Context, key string, producer ProducerContext[T], retentionMs *int64) (T, error) {
	var zero T
	if c.isDisposed() {
		return zero, NewErrDisposed("ForceUpdateContext")
	}
	if key == "" {
		return zero, NewErrEmptyKey("ForceUpdateContext")
	}
	if producer == nil {
		return zero, NewErrInvalidProducer("ForceUpdateContext")
	}
	if err := ctx.Err(); err != nil {
		return zero, NewErrCancelled("ForceUpdateContext", err)
	}

	handle, err := c.locks.AcquireContext(ctx, key)
	if err != nil {
		return zero, NewErrCancelled("ForceUpdateContext", err)
	}
	defer handle.Release()

	nuances := &Nuances{}
	start := c.cfg.Clock.Now()
	value, prodErr := c.runProducerContext(ctx, key, producer, nuances)
	elapsed := time.Duration(c.cfg.Clock.Now() - start)
	c.cfg.MetricsCollector.RecordProduce(int64(elapsed))

	if prodErr != nil {
		return zero, prodErr
	}

	inserted := c.finishInsert(key, value, nuances, retentionMs, elapsed)
	if inserted && c.enforcer != nil {
		c.enforcer.enforce(c.store, c.stats)
	}
	return value, nil
}

// Remove evicts key if present. No-op, no lock acquired, if key is
// already absent.
func (c *Cache[T]) Remove(key string) error {
	if c.isDisposed() {
		return NewErrDisposed("Remove")
	}
	if !c.store.contains(key) {
		return nil
	}
	handle := c.locks.Acquire(key)
	defer handle.Release()
	c.store.remove(key, EvictionManual)
	return nil
}

// GetOrComputeAuto derives its key from the caller's source location
// instead of an explicit string (spec.md §4.7).
func (c *Cache[T]) GetOrComputeAuto(producer Producer[T], retentionMs *int64) (T, error) {
	key := captureCallSite(2).deriveKey("")
	return c.GetOrCompute(key, producer, retentionMs)
}

// GetOrComputeAutoContext is the context-aware form of GetOrComputeAuto.
func (c *Cache[T]) GetOrComputeAutoContext(ctx context.Context, producer ProducerContext[T], retentionMs *int64) (T, error) {
	key := captureCallSite(2).deriveKey("")
	return c.GetOrComputeContext(ctx, key, producer, retentionMs)
}

// runProducer executes producer with panic recovery, matching the
// teacher's GetOrLoad panic-to-error conversion.
func (c *Cache[T]) runProducer(key string, producer Producer[T], nuances *Nuances) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewErrPanicRecovered(fmt.Sprintf("GetOrCompute:%s", key), r)
		}
	}()
	value, err = producer(nuances)
	if err != nil {
		err = NewErrProducerFailed(key, err)
	}
	return value, err
}

func (c *Cache[T]) runProducerContext(ctx context.Context, key string, producer ProducerContext[T], nuances *Nuances) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewErrPanicRecovered(fmt.Sprintf("GetOrComputeContext:%s", key), r)
		}
	}()
	value, err = producer(ctx, nuances)
	if err != nil {
		if ctx.Err() != nil {
			err = NewErrCancelled(key, err)
		} else {
			err = NewErrProducerFailed(key, err)
		}
	}
	return value, err
}

// finishInsert applies the effective-retention computation (Nuances
// override, then caller override, then default) and inserts unless the
// effective retention is exactly zero. Returns whether an entry was
// actually inserted.
func (c *Cache[T]) finishInsert(key string, value T, nuances *Nuances, retentionMs *int64, elapsed time.Duration) bool {
	effective := time.Duration(atomic.LoadInt64(&c.defaultRetentionNs))
	if retentionMs != nil {
		effective = time.Duration(*retentionMs) * time.Millisecond
	}
	if nuances.CacheRetentionMs != nil {
		effective = time.Duration(*nuances.CacheRetentionMs) * time.Millisecond
	}
	if effective == 0 {
		return false
	}

	var sizeBytes uint64
	if c.sizer != nil {
		sizeBytes = c.sizer.SizeOf(value)
	}

	wasNew := !c.store.contains(key)
	var oldSize uint64
	if !wasNew {
		if old, ok := c.store.tryGet(key); ok {
			oldSize = old.SizeBytes
		}
	}

	expiresAt := c.cfg.Clock.Now() + int64(effective)
	c.store.insert(key, value, expiresAt, sizeBytes, elapsed)

	if c.stats != nil {
		c.stats.RecordInsert(wasNew, sizeBytes, oldSize)
		c.stats.RecordProducerLatency(key, elapsed)
		c.stats.RecordEntrySize(key, sizeBytes)
	}
	return true
}

func (c *Cache[T]) recordHit(latencyNs int64) {
	if c.stats != nil {
		c.stats.RecordHit()
	}
	c.cfg.MetricsCollector.RecordGetOrCompute(latencyNs, true)
}

func (c *Cache[T]) recordMiss(latencyNs int64) {
	if c.stats != nil {
		c.stats.RecordMiss()
	}
	c.cfg.MetricsCollector.RecordGetOrCompute(latencyNs, false)
}

// negativeLookup returns the cached producer failure for key if negative
// caching is enabled and a live negative entry exists (spec.md §9, open
// question 1 — disabled unless Config.NegativeCacheTTL > 0).
func (c *Cache[T]) negativeLookup(key string) error {
	if c.negativeCache == nil {
		return nil
	}
	c.negativeMu.Lock()
	defer c.negativeMu.Unlock()
	neg, ok := c.negativeCache[key]
	if !ok {
		return nil
	}
	if c.cfg.Clock.Now() > neg.expireAt {
		delete(c.negativeCache, key)
		return nil
	}
	return neg.err
}

func (c *Cache[T]) recordNegative(key string, err error) {
	if c.negativeCache == nil {
		return
	}
	c.negativeMu.Lock()
	defer c.negativeMu.Unlock()
	c.negativeCache[key] = negativeEntry{
		err:      err,
		expireAt: c.cfg.Clock.Now() + int64(c.cfg.NegativeCacheTTL),
	}
}

// Statistics returns the engine's Statistics, or nil if statistics are
// not enabled (spec.md §4.4, "not available" sentinel).
func (c *Cache[T]) Statistics() *Statistics {
	return c.stats
}

// KeyCount returns the number of keyed-lock slots currently tracked, for
// diagnostics and tests.
func (c *Cache[T]) KeyCount() int {
	return c.locks.Count()
}

// Dispose stops the sweeper, evicts every live entry (firing callbacks),
// and releases registry resources. Idempotent (spec.md §4.8).
func (c *Cache[T]) Dispose() {
	if !atomic.CompareAndSwapInt32(&c.disposed, 0, 1) {
		return
	}
	c.locks.Stop()
	c.store.evictAll(EvictionManual)
	c.locks.reclaimIdle()
}

// ReloadableLimits is the subset of a Cache's runtime parameters that can
// change without reconstructing the cache. hotreload.go depends only on
// this interface so it can drive any Cache[T] regardless of T.
type ReloadableLimits interface {
	SetDefaultRetention(d time.Duration)
	SetMaxCacheSizeBytes(limit uint64)
	SetEvictionStrategy(strategy EvictionStrategy)
}

// SetDefaultRetention updates the TTL applied to future inserts that don't
// otherwise specify one. Does not affect already-live entries.
func (c *Cache[T]) SetDefaultRetention(d time.Duration) {
	if d <= 0 {
		return
	}
	atomic.StoreInt64(&c.defaultRetentionNs, int64(d))
}

// SetMaxCacheSizeBytes updates the Capacity Enforcer's byte budget. A
// cache constructed without a capacity bound ignores this call: enabling
// enforcement at runtime would require constructing a sizer that may not
// have been needed before, which this engine does not support without
// reconstruction (spec.md §9's own note that MaxSize-shaped changes are
// reconstruction-only).
func (c *Cache[T]) SetMaxCacheSizeBytes(limit uint64) {
	if c.enforcer == nil {
		return
	}
	c.enforcer.setLimit(limit)
}

// SetEvictionStrategy updates the Capacity Enforcer's ordering strategy.
func (c *Cache[T]) SetEvictionStrategy(strategy EvictionStrategy) {
	if c.enforcer == nil {
		return
	}
	c.enforcer.setStrategy(strategy)
}

var _ ReloadableLimits = (*Cache[int])(nil)
