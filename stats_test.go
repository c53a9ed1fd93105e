package sparkcache

import (
	"testing"
	"time"
)

func TestStatistics_HitMissCounters(t *testing.T) {
	s := NewStatistics(0, 0)
	s.RecordHit()
	s.RecordHit()
	s.RecordMiss()

	snap := s.Snapshot()
	if snap.Hits != 2 || snap.Misses != 1 {
		t.Errorf("expected hits=2 misses=1, got hits=%d misses=%d", snap.Hits, snap.Misses)
	}
	if snap.TotalOperations() != 3 {
		t.Errorf("expected 3 total operations, got %d", snap.TotalOperations())
	}
}

func TestStatistics_HitRatio(t *testing.T) {
	s := NewStatistics(0, 0)
	if got := s.Snapshot().HitRatio(); got != 0 {
		t.Errorf("expected 0 hit ratio with no operations, got %f", got)
	}
	s.RecordHit()
	s.RecordHit()
	s.RecordHit()
	s.RecordMiss()
	if got := s.Snapshot().HitRatio(); got != 0.75 {
		t.Errorf("expected 0.75 hit ratio, got %f", got)
	}
}

func TestStatistics_InsertAndEvictionAdjustCounts(t *testing.T) {
	s := NewStatistics(0, 0)
	s.RecordInsert(true, 100, 0)
	s.RecordInsert(true, 50, 0)

	snap := s.Snapshot()
	if snap.EntryCount != 2 {
		t.Errorf("expected entry_count=2, got %d", snap.EntryCount)
	}
	if snap.ApproximateBytes != 150 {
		t.Errorf("expected approximate_bytes=150, got %d", snap.ApproximateBytes)
	}

	s.RecordEviction(50)
	snap = s.Snapshot()
	if snap.EntryCount != 1 {
		t.Errorf("expected entry_count=1 after eviction, got %d", snap.EntryCount)
	}
	if snap.ApproximateBytes != 100 {
		t.Errorf("expected approximate_bytes=100 after eviction, got %d", snap.ApproximateBytes)
	}
	if snap.Evictions != 1 {
		t.Errorf("expected eviction_count=1, got %d", snap.Evictions)
	}
}

func TestStatistics_InsertReplaceAdjustsBytesNotEntries(t *testing.T) {
	s := NewStatistics(0, 0)
	s.RecordInsert(true, 100, 0)
	s.RecordInsert(false, 40, 100) // replace: same key, smaller value

	snap := s.Snapshot()
	if snap.EntryCount != 1 {
		t.Errorf("expected entry_count unchanged at 1 on replace, got %d", snap.EntryCount)
	}
	if snap.ApproximateBytes != 40 {
		t.Errorf("expected approximate_bytes=40 after replace, got %d", snap.ApproximateBytes)
	}
}

func TestStatistics_TopSlowestBounded(t *testing.T) {
	s := NewStatistics(2, 0)
	s.RecordProducerLatency("a", 10*time.Millisecond)
	s.RecordProducerLatency("b", 50*time.Millisecond)
	s.RecordProducerLatency("c", 30*time.Millisecond)

	snap := s.Snapshot()
	if len(snap.TopSlowest) != 2 {
		t.Fatalf("expected top-N bounded at 2, got %d entries", len(snap.TopSlowest))
	}
	if snap.TopSlowest[0].Key != "b" {
		t.Errorf("expected the slowest key first, got %q", snap.TopSlowest[0].Key)
	}
}

func TestStatistics_TopSlowestDisabledAtZero(t *testing.T) {
	s := NewStatistics(0, 0)
	s.RecordProducerLatency("a", 10*time.Millisecond)
	if len(s.Snapshot().TopSlowest) != 0 {
		t.Error("expected no slow-query tracking when MaxTopSlowest is 0")
	}
}

func TestStatistics_TopSlowestRunningAverage(t *testing.T) {
	s := NewStatistics(1, 0)
	s.RecordProducerLatency("a", 10*time.Millisecond)
	s.RecordProducerLatency("a", 30*time.Millisecond)

	snap := s.Snapshot()
	if len(snap.TopSlowest) != 1 {
		t.Fatalf("expected 1 tracked key, got %d", len(snap.TopSlowest))
	}
	q := snap.TopSlowest[0]
	if q.WorstMs != 30 || q.BestMs != 10 {
		t.Errorf("expected worst=30 best=10, got worst=%d best=%d", q.WorstMs, q.BestMs)
	}
	if q.AvgMs != 20 {
		t.Errorf("expected running average 20, got %f", q.AvgMs)
	}
}

func TestStatistics_TopHeaviestBounded(t *testing.T) {
	s := NewStatistics(0, 2)
	s.RecordEntrySize("a", 10)
	s.RecordEntrySize("b", 100)
	s.RecordEntrySize("c", 50)

	snap := s.Snapshot()
	if len(snap.TopHeaviest) != 2 {
		t.Fatalf("expected top-N bounded at 2, got %d", len(snap.TopHeaviest))
	}
	if snap.TopHeaviest[0].Key != "b" {
		t.Errorf("expected heaviest key first, got %q", snap.TopHeaviest[0].Key)
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics(4, 4)
	s.RecordHit()
	s.RecordMiss()
	s.RecordInsert(true, 100, 0)
	s.RecordProducerLatency("a", time.Millisecond)
	s.RecordEntrySize("a", 100)

	s.Reset()
	snap := s.Snapshot()

	if snap.Hits != 0 || snap.Misses != 0 || snap.Evictions != 0 {
		t.Error("expected monotonic counters reset to zero")
	}
	if len(snap.TopSlowest) != 0 || len(snap.TopHeaviest) != 0 {
		t.Error("expected top-N collections cleared")
	}
	if snap.EntryCount != 1 {
		t.Errorf("expected entry_count left untouched by Reset, got %d", snap.EntryCount)
	}
}
