package sparkcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedLockRegistry_SerializesSameKey(t *testing.T) {
	r := NewKeyedLockRegistry(time.Hour)
	defer r.Stop()

	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	const n = 50
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			h := r.Acquire("shared-key")
			defer h.Release()
			cur := atomic.AddInt32(&active, 1)
			for {
				max := atomic.LoadInt32(&maxActive)
				if cur <= max || atomic.CompareAndSwapInt32(&maxActive, max, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("expected at most 1 concurrent holder for the same key, observed %d", maxActive)
	}
}

func TestKeyedLockRegistry_DistinctKeysConcurrent(t *testing.T) {
	r := NewKeyedLockRegistry(time.Hour)
	defer r.Stop()

	start := make(chan struct{})
	var wg sync.WaitGroup
	const n = 20
	wg.Add(n)
	for i := 0; i < n; i++ {
		key := string(rune('a' + i))
		go func(key string) {
			defer wg.Done()
			<-start
			h := r.Acquire(key)
			defer h.Release()
			time.Sleep(20 * time.Millisecond)
		}(key)
	}

	begin := time.Now()
	close(start)
	wg.Wait()
	elapsed := time.Since(begin)

	if elapsed > 200*time.Millisecond {
		t.Errorf("distinct keys appear to have serialized: took %v", elapsed)
	}
}

func TestKeyedLockRegistry_AcquireContextCancellation(t *testing.T) {
	r := NewKeyedLockRegistry(time.Hour)
	defer r.Stop()

	holder := r.Acquire("key")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.AcquireContext(ctx, "key")
	if err == nil {
		t.Fatal("expected AcquireContext to fail while the key is held")
	}

	holder.Release()
}

func TestKeyedLockRegistry_ReclaimsIdleSlots(t *testing.T) {
	r := NewKeyedLockRegistry(10 * time.Millisecond)
	defer r.Stop()

	h := r.Acquire("transient")
	h.Release()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if r.Count() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected idle slot to be reclaimed, registry still tracks %d slots", r.Count())
}

func TestKeyedLockRegistry_ReleaseIsIdempotent(t *testing.T) {
	r := NewKeyedLockRegistry(time.Hour)
	defer r.Stop()

	h := r.Acquire("key")
	h.Release()
	h.Release() // must not panic or double-unlock

	h2 := r.Acquire("key")
	h2.Release()
}

func TestKeyedLockRegistry_StopIsIdempotent(t *testing.T) {
	r := NewKeyedLockRegistry(time.Hour)
	r.Stop()
	r.Stop()
}
