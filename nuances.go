// nuances.go: the per-call producer-mutable retention override
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

// Nuances is the out-parameter a producer may mutate to adjust how its own
// result is retained. A fresh Nuances is allocated for every producer
// invocation and must never be reused across calls (spec.md §9).
type Nuances struct {
	// CacheRetentionMs, if set, overrides both the caller's per-call
	// retention and the cache's DefaultRetention for this entry only.
	// Setting it to 0 means "do not cache this result": the value is still
	// returned to the caller but no entry is inserted.
	CacheRetentionMs *int64
}

// SetRetentionMs is a convenience setter so producers don't need to take
// the address of a local variable.
func (n *Nuances) SetRetentionMs(ms int64) {
	n.CacheRetentionMs = &ms
}

// DoNotCache marks the result as non-cacheable for this call only.
func (n *Nuances) DoNotCache() {
	n.SetRetentionMs(0)
}
