package sparkcache

import (
	"testing"
	"time"
)

// newCapacityTestStore wires an entryStore whose eviction callback feeds a
// Statistics instance the way Cache.onEvict does for non-replacement
// removals (replacements are ignored here), so enforcer.enforce can be
// exercised against real byte accounting.
func newCapacityTestStore(t *testing.T, clock Clock, stats *Statistics) *entryStore[string] {
	t.Helper()
	var store *entryStore[string]
	store = newEntryStore[string](clock, func(key string, size uint64, reason EvictionReason) {
		if reason != EvictionReplaced {
			stats.RecordEviction(size)
		}
	})
	return store
}

func TestCapacityEnforcer_NoOpUnderLimit(t *testing.T) {
	clock := &fakeClock{now: 1000}
	stats := NewStatistics(0, 0)
	store := newCapacityTestStore(t, clock, stats)

	stats.RecordInsert(true, 10, 0)
	store.insert("a", "v", clock.now+int64(time.Minute), 10, 0)

	e := newCapacityEnforcer[string](100, SmallestFirst)
	e.enforce(store, stats)

	if _, ok := store.tryGet("a"); !ok {
		t.Fatal("expected entry to survive when under the byte budget")
	}
}

func TestCapacityEnforcer_ZeroLimitDisablesEnforcement(t *testing.T) {
	clock := &fakeClock{now: 1000}
	stats := NewStatistics(0, 0)
	store := newCapacityTestStore(t, clock, stats)

	stats.RecordInsert(true, 1_000_000, 0)
	store.insert("a", "v", clock.now+int64(time.Minute), 1_000_000, 0)

	e := newCapacityEnforcer[string](0, SmallestFirst)
	e.enforce(store, stats)

	if _, ok := store.tryGet("a"); !ok {
		t.Fatal("a zero limit must disable capacity enforcement entirely")
	}
}

func TestCapacityEnforcer_SmallestFirstOrder(t *testing.T) {
	clock := &fakeClock{now: 1000}
	stats := NewStatistics(0, 0)
	store := newCapacityTestStore(t, clock, stats)

	entries := []struct {
		key  string
		size uint64
	}{{"a", 10}, {"b", 20}, {"c", 30}, {"d", 40}}
	for _, e := range entries {
		stats.RecordInsert(true, e.size, 0)
		store.insert(e.key, e.key, clock.now+int64(time.Minute), e.size, 0)
	}

	e := newCapacityEnforcer[string](70, SmallestFirst)
	e.enforce(store, stats)

	if _, ok := store.tryGet("a"); ok {
		t.Error("expected smallest entry 'a' evicted first")
	}
	if _, ok := store.tryGet("d"); !ok {
		t.Error("expected largest entry 'd' retained")
	}
}

func TestCapacityEnforcer_LargestFirstOrder(t *testing.T) {
	clock := &fakeClock{now: 1000}
	stats := NewStatistics(0, 0)
	store := newCapacityTestStore(t, clock, stats)

	entries := []struct {
		key  string
		size uint64
	}{{"a", 10}, {"b", 20}, {"c", 30}, {"d", 40}}
	for _, e := range entries {
		stats.RecordInsert(true, e.size, 0)
		store.insert(e.key, e.key, clock.now+int64(time.Minute), e.size, 0)
	}

	e := newCapacityEnforcer[string](70, LargestFirst)
	e.enforce(store, stats)

	if _, ok := store.tryGet("d"); ok {
		t.Error("expected largest entry 'd' evicted first")
	}
	if _, ok := store.tryGet("a"); !ok {
		t.Error("expected smallest entry 'a' retained")
	}
}

func TestCapacityEnforcer_TieBrokenByKey(t *testing.T) {
	clock := &fakeClock{now: 1000}
	stats := NewStatistics(0, 0)
	store := newCapacityTestStore(t, clock, stats)

	for _, key := range []string{"z", "y", "x"} {
		stats.RecordInsert(true, 10, 0)
		store.insert(key, key, clock.now+int64(time.Minute), 10, 0)
	}

	e := newCapacityEnforcer[string](20, SmallestFirst)
	e.enforce(store, stats)

	if _, ok := store.tryGet("x"); ok {
		t.Error("expected lexicographically first key 'x' evicted first on a size tie")
	}
}

func TestCapacityEnforcer_SetLimitIsLive(t *testing.T) {
	clock := &fakeClock{now: 1000}
	stats := NewStatistics(0, 0)
	store := newCapacityTestStore(t, clock, stats)

	stats.RecordInsert(true, 50, 0)
	store.insert("a", "v", clock.now+int64(time.Minute), 50, 0)

	e := newCapacityEnforcer[string](100, SmallestFirst)
	e.enforce(store, stats)
	if _, ok := store.tryGet("a"); !ok {
		t.Fatal("expected entry to survive the initial generous limit")
	}

	e.setLimit(10)
	e.enforce(store, stats)
	if _, ok := store.tryGet("a"); ok {
		t.Fatal("expected entry evicted after the limit was lowered at runtime")
	}
}

func TestCapacityEnforcer_SetStrategyIsLive(t *testing.T) {
	clock := &fakeClock{now: 1000}
	stats := NewStatistics(0, 0)
	store := newCapacityTestStore(t, clock, stats)

	stats.RecordInsert(true, 10, 0)
	store.insert("small", "v", clock.now+int64(time.Minute), 10, 0)
	stats.RecordInsert(true, 90, 0)
	store.insert("big", "v", clock.now+int64(time.Minute), 90, 0)

	e := newCapacityEnforcer[string](50, SmallestFirst)
	e.setStrategy(LargestFirst)
	e.enforce(store, stats)

	if _, ok := store.tryGet("big"); ok {
		t.Error("expected the runtime-switched LargestFirst strategy to evict 'big'")
	}
	if _, ok := store.tryGet("small"); !ok {
		t.Error("expected 'small' retained once strategy favored evicting the largest entry")
	}
}
