// config.go: configuration for sparkcache
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import "time"

// SizeMode selects the cost/accuracy tradeoff the Value Sizer uses when
// estimating a produced value's byte size.
type SizeMode int

const (
	// SizeFast is O(1): type metadata and top-level string/slice lengths only.
	SizeFast SizeMode = iota
	// SizeBalanced walks fields to a bounded depth and samples collections.
	// DefaultConfig selects it; the zero value of SizeMode is SizeFast.
	SizeBalanced
	// SizeAccurate walks deeper and samples more elements than Balanced.
	SizeAccurate
	// SizeAdaptive dives into children selectively based on shallow layout.
	SizeAdaptive
)

// EvictionStrategy selects the deterministic ordering the Capacity Enforcer
// walks when total approximate bytes exceed the configured limit.
type EvictionStrategy int

const (
	// SmallestFirst evicts the smallest entries first.
	SmallestFirst EvictionStrategy = iota
	// LargestFirst evicts the largest entries first.
	LargestFirst
)

const (
	// DefaultCleanupInterval is the keyed-lock sweeper cadence when the
	// caller does not specify one.
	DefaultCleanupInterval = 1 * time.Minute

	// minCompactionFraction is the floor fraction used by the capacity
	// enforcer's compactionTarget (spec.md §9, open question 2: a tunable,
	// not a normative invariant).
	minCompactionFraction = 0.02
)

// Config holds the immutable-after-construction parameters of a Cache.
type Config struct {
	// DefaultRetention is the TTL applied when neither the caller nor the
	// producer (via Nuances) overrides it. Must be > 0.
	DefaultRetention time.Duration

	// CleanupInterval is the keyed-lock registry sweep cadence. Defaults to
	// DefaultCleanupInterval if zero.
	CleanupInterval time.Duration

	// MaxTopSlowest bounds the slow-producer top-N collection. Zero
	// disables slow-query tracking.
	MaxTopSlowest int

	// MaxTopHeaviest bounds the heavy-entry top-N collection. Zero disables
	// heavy-entry tracking (and, combined with MaxCacheSizeBytes == nil,
	// disables size accounting entirely).
	MaxTopHeaviest int

	// MaxCacheSizeBytes is the optional capacity bound. Nil disables
	// capacity enforcement.
	MaxCacheSizeBytes *uint64

	// SizeMode selects the Value Sizer's accuracy/cost tradeoff.
	SizeMode SizeMode

	// EvictionStrategy selects the Capacity Enforcer's eviction ordering.
	EvictionStrategy EvictionStrategy

	// NegativeCacheTTL, if > 0, caches a failing producer's error for this
	// long and rethrows it to subsequent callers instead of re-running the
	// producer (spec.md §9, open question 1). Disabled (0) by default,
	// which is the spec-mandated default behavior.
	NegativeCacheTTL time.Duration

	// StatisticsEnabled turns on the Statistics component. Off by default
	// for minimum overhead (spec.md §4.4).
	StatisticsEnabled bool

	// Clock provides current time. Defaults to a go-timecache-backed clock.
	Clock Clock

	// Logger defaults to NoOpLogger. The core engine never reads or logs
	// to it; HotConfig takes its own Logger through HotConfigOptions.
	Logger Logger

	// MetricsCollector receives per-operation latency and eviction events.
	// Defaults to NoOpMetricsCollector.
	MetricsCollector MetricsCollector
}

// Validate checks Config fields and reports the first violation found.
// Call sites that accept partial configuration should call this after
// filling in defaults via WithDefaults.
func (c *Config) Validate() error {
	if c.DefaultRetention <= 0 {
		return NewErrInvalidRetention(int64(c.DefaultRetention / time.Millisecond))
	}
	if c.MaxTopSlowest < 0 {
		return NewErrInvalidTopN("MaxTopSlowest", c.MaxTopSlowest)
	}
	if c.MaxTopHeaviest < 0 {
		return NewErrInvalidTopN("MaxTopHeaviest", c.MaxTopHeaviest)
	}
	if c.MaxCacheSizeBytes != nil {
		// uint64 cannot be negative; this guards a future signed variant.
		if int64(*c.MaxCacheSizeBytes) < 0 {
			return NewErrInvalidCapacity(int64(*c.MaxCacheSizeBytes))
		}
	}
	return nil
}

// WithDefaults returns a copy of c with zero-valued fields replaced by
// sensible defaults, mirroring the teacher's Config.Validate normalization
// pass.
func (c Config) WithDefaults() Config {
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}
	return c
}

// sizingEnabled reports whether the Value Sizer should be invoked at all.
// When heavy-entry tracking and capacity enforcement are both disabled, the
// engine skips sizing entirely and reports approximate bytes as zero
// (spec.md §9, "disabled tracking optimizations").
func (c Config) sizingEnabled() bool {
	return c.MaxTopHeaviest > 0 || c.MaxCacheSizeBytes != nil
}
