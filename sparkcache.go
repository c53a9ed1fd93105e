// sparkcache.go: package-level constants and a convenience default Config
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import "time"

const (
	// Version of the sparkcache library.
	Version = "v0.1.0-dev"

	// DefaultRetentionFallback is the DefaultRetention used by DefaultConfig.
	DefaultRetentionFallback = 5 * time.Minute
)

// DefaultConfig returns a Config with every field at its documented
// default: no capacity bound, no negative caching, statistics disabled,
// Balanced sizing.
func DefaultConfig() Config {
	return Config{
		DefaultRetention: DefaultRetentionFallback,
		CleanupInterval:  DefaultCleanupInterval,
		SizeMode:         SizeBalanced,
		EvictionStrategy: SmallestFirst,
	}.WithDefaults()
}
