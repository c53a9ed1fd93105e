// sizer.go: the value sizer — a pluggable, best-effort byte-size estimator
//
// No reflection-walking size-estimation library appears anywhere in the
// retrieved pack (the teacher's own memory accounting is a fixed per-slot
// struct size, since its W-TinyLFU table has no notion of approximate
// value weight). This component is therefore built on the standard
// library's reflect package alone — see DESIGN.md for the justification.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import "reflect"

const (
	balancedDepth   = 2
	balancedSamples = 32
	accurateDepth   = balancedDepth + 1
	accurateSamples = balancedSamples * 2
)

// ValueSizer estimates the approximate byte size of a produced value.
// SizeOf must be total (never fail) and cycle-safe for graph-like values.
type ValueSizer interface {
	SizeOf(value interface{}) uint64
}

// NewValueSizer returns the sizer implementation for mode.
func NewValueSizer(mode SizeMode) ValueSizer {
	switch mode {
	case SizeFast:
		return fastSizer{}
	case SizeAccurate:
		return reflectSizer{maxDepth: accurateDepth, maxSamples: accurateSamples}
	case SizeAdaptive:
		return adaptiveSizer{}
	default:
		return reflectSizer{maxDepth: balancedDepth, maxSamples: balancedSamples}
	}
}

// fastSizer is O(1): type metadata plus the length of top-level
// strings/slices/arrays/maps. Deep graphs are a single fixed cost.
type fastSizer struct{}

const fastBaseCost = 16

func (fastSizer) SizeOf(value interface{}) uint64 {
	if value == nil {
		return 0
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return uint64(v.Len()) + fastBaseCost
	case reflect.Slice, reflect.Array:
		return uint64(v.Len())*topLevelElemCost(v) + fastBaseCost
	case reflect.Map:
		return uint64(v.Len())*fastBaseCost + fastBaseCost
	default:
		return approxScalarSize(v) + fastBaseCost
	}
}

func topLevelElemCost(v reflect.Value) uint64 {
	if v.Len() == 0 {
		return fastBaseCost
	}
	return approxScalarSize(v.Index(0)) + 1
}

// reflectSizer walks fields to a bounded depth and samples collections up
// to a bounded element count, staying cycle-safe via a visited-pointer set
// keyed by address identity (spec.md §4.2/§9).
type reflectSizer struct {
	maxDepth   int
	maxSamples int
}

func (s reflectSizer) SizeOf(value interface{}) uint64 {
	if value == nil {
		return 0
	}
	visited := make(map[uintptr]struct{})
	return sizeOfValue(reflect.ValueOf(value), s.maxDepth, s.maxSamples, visited)
}

// adaptiveSizer traverses selectively: it only dives into a child when the
// child's shallow layout suggests further references (pointer, interface,
// or a non-empty container kind), and caps reference-array traversal
// sublinearly at the cube root of the sample budget (spec.md §4.2).
type adaptiveSizer struct{}

const adaptiveSampleBudget = 64

func (adaptiveSizer) SizeOf(value interface{}) uint64 {
	if value == nil {
		return 0
	}
	visited := make(map[uintptr]struct{})
	return sizeOfAdaptive(reflect.ValueOf(value), 3, visited)
}

func sizeOfAdaptive(v reflect.Value, depth int, visited map[uintptr]struct{}) uint64 {
	if depth <= 0 || !v.IsValid() {
		return fastBaseCost
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return 8
		}
		if v.Kind() == reflect.Ptr {
			addr := v.Pointer()
			if _, seen := visited[addr]; seen {
				return 8
			}
			visited[addr] = struct{}{}
		}
		return 8 + sizeOfAdaptive(v.Elem(), depth-1, visited)
	case reflect.String:
		return uint64(v.Len()) + fastBaseCost
	case reflect.Slice, reflect.Array:
		n := v.Len()
		cap := cubeRoot(adaptiveSampleBudget)
		sampled := n
		if sampled > cap {
			sampled = cap
		}
		var total uint64
		for i := 0; i < sampled; i++ {
			total += sizeOfAdaptive(v.Index(i), depth-1, visited)
		}
		if sampled > 0 && n > sampled {
			total = total / uint64(sampled) * uint64(n)
		}
		return total + fastBaseCost
	case reflect.Map:
		total := uint64(fastBaseCost)
		count := 0
		for _, k := range v.MapKeys() {
			if count >= adaptiveSampleBudget {
				break
			}
			total += sizeOfAdaptive(k, depth-1, visited)
			total += sizeOfAdaptive(v.MapIndex(k), depth-1, visited)
			count++
		}
		return total
	case reflect.Struct:
		var total uint64
		for i := 0; i < v.NumField(); i++ {
			total += sizeOfAdaptive(v.Field(i), depth-1, visited)
		}
		return total
	default:
		return approxScalarSize(v)
	}
}

func cubeRoot(n int) int {
	if n <= 0 {
		return 0
	}
	r := 1
	for r*r*r < n {
		r++
	}
	return r
}

func sizeOfValue(v reflect.Value, depth, samples int, visited map[uintptr]struct{}) uint64 {
	if !v.IsValid() {
		return 0
	}
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return 8
		}
		addr := v.Pointer()
		if _, seen := visited[addr]; seen {
			return 8
		}
		visited[addr] = struct{}{}
		if depth <= 0 {
			return 8
		}
		return 8 + sizeOfValue(v.Elem(), depth-1, samples, visited)
	case reflect.Interface:
		if v.IsNil() {
			return 8
		}
		return 8 + sizeOfValue(v.Elem(), depth, samples, visited)
	case reflect.String:
		return uint64(v.Len()) + fastBaseCost
	case reflect.Slice, reflect.Array:
		n := v.Len()
		sampled := n
		if sampled > samples {
			sampled = samples
		}
		var total uint64
		childDepth := depth
		if v.Kind() != reflect.Array {
			childDepth = depth - 1
		}
		if childDepth < 0 {
			return uint64(n)*8 + fastBaseCost
		}
		for i := 0; i < sampled; i++ {
			total += sizeOfValue(v.Index(i), childDepth, samples, visited)
		}
		if sampled > 0 && n > sampled {
			total = total / uint64(sampled) * uint64(n)
		}
		return total + fastBaseCost
	case reflect.Map:
		if depth <= 0 {
			return uint64(v.Len())*2*fastBaseCost + fastBaseCost
		}
		total := uint64(fastBaseCost)
		count := 0
		keys := v.MapKeys()
		for _, k := range keys {
			if count >= samples {
				break
			}
			total += sizeOfValue(k, depth-1, samples, visited)
			total += sizeOfValue(v.MapIndex(k), depth-1, samples, visited)
			count++
		}
		if len(keys) > samples && count > 0 {
			total = total / uint64(count) * uint64(len(keys))
		}
		return total
	case reflect.Struct:
		if depth <= 0 {
			return fastBaseCost
		}
		var total uint64
		for i := 0; i < v.NumField(); i++ {
			total += sizeOfValue(v.Field(i), depth-1, samples, visited)
		}
		return total
	default:
		return approxScalarSize(v)
	}
}

func approxScalarSize(v reflect.Value) uint64 {
	if !v.IsValid() {
		return 0
	}
	switch v.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64,
		reflect.Int, reflect.Uint, reflect.Complex64:
		return 8
	case reflect.Complex128:
		return 16
	default:
		return 8
	}
}
