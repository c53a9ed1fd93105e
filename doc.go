// Package sparkcache provides a thread-safe, in-process cache with
// single-flight producer execution, TTL-based expiration, and an optional
// byte-size capacity bound.
//
// # Overview
//
// sparkcache is built around a handful of small, independently testable
// collaborators:
//
//   - Entry Store: a concurrent key -> value map with lazy TTL expiration.
//   - Keyed Lock Registry: per-key mutual exclusion so a producer for a
//     given key runs at most once at a time, with idle slots reclaimed by
//     a background sweeper.
//   - Capacity Enforcer: optional, deterministic eviction once total
//     approximate bytes crosses a configured limit.
//   - Statistics: optional atomic counters plus bounded top-N collections
//     of slow producers and heavy entries.
//
// # Quick Start
//
//	cache, err := sparkcache.NewCache[User](sparkcache.Config{
//	    DefaultRetention: time.Hour,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Dispose()
//
//	user, err := cache.GetOrCompute("user:123", func(n *sparkcache.Nuances) (User, error) {
//	    return fetchUserFromDB(123)
//	}, nil)
//
// # Cache Stampede Prevention
//
// GetOrCompute deduplicates concurrent producer calls for the same key:
// if a thousand goroutines call GetOrCompute("user:123", ...) while the
// entry is missing, the producer runs exactly once and every caller
// observes its result. A producer error is returned only to the caller
// whose producer ran; each caller that was waiting on the same key then
// runs the producer itself, one at a time.
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	user, err := cache.GetOrComputeContext(ctx, "user:123",
//	    func(ctx context.Context, n *sparkcache.Nuances) (User, error) {
//	        return fetchUserFromDBWithContext(ctx, 123)
//	    }, nil)
//
// # Nuances
//
// A producer may mutate the *Nuances passed to it to override how its own
// result is retained, independent of the cache's default retention or any
// caller-supplied override:
//
//	cache.GetOrCompute("weather:paris", func(n *sparkcache.Nuances) (Weather, error) {
//	    w, stale, err := fetchWeather()
//	    if stale {
//	        n.DoNotCache()
//	    }
//	    return w, err
//	}, nil)
//
// # Capacity
//
// Setting Config.MaxCacheSizeBytes enables the Capacity Enforcer, which
// runs after every insert and evicts deterministically (smallest-first or
// largest-first, ties broken by key) until the cache is back under
// budget:
//
//	cache, _ := sparkcache.NewCache[[]byte](sparkcache.Config{
//	    DefaultRetention:  time.Hour,
//	    MaxCacheSizeBytes: ptr(uint64(64 << 20)),
//	    EvictionStrategy:  sparkcache.LargestFirst,
//	})
//
// Sizing a produced value is best-effort; Config.SizeMode trades accuracy
// for cost (SizeFast, SizeBalanced, SizeAccurate, SizeAdaptive).
//
// # Statistics
//
// Statistics are off by default. Enable with Config.StatisticsEnabled;
// Cache.Statistics() returns nil when disabled:
//
//	if stats := cache.Statistics(); stats != nil {
//	    snap := stats.Snapshot()
//	    fmt.Printf("hit ratio: %.2f%%\n", snap.HitRatio()*100)
//	}
//
// # Observability
//
// The core package has zero metrics dependencies; sparkcache/metrics
// provides an OpenTelemetry-backed MetricsCollector as a separate module:
//
//	import sparkmetrics "github.com/agilira/sparkcache/metrics"
//
//	collector, _ := sparkmetrics.NewOTelMetricsCollector(provider)
//	cache, _ := sparkcache.NewCache[User](sparkcache.Config{
//	    DefaultRetention: time.Hour,
//	    MetricsCollector: collector,
//	})
//
// # Error Handling
//
// sparkcache uses structured errors with stable codes:
//
//	_, err := cache.GetOrCompute("user:123", producer, nil)
//	if sparkcache.IsProducerFailure(err) {
//	    log.Printf("producer failed: %v", err)
//	} else if sparkcache.IsCancelled(err) {
//	    log.Printf("operation canceled: %v", err)
//	}
//
// Available error codes include SPARKCACHE_EMPTY_KEY, SPARKCACHE_DISPOSED,
// SPARKCACHE_INVALID_PRODUCER, SPARKCACHE_PRODUCER_FAILED,
// SPARKCACHE_PANIC_RECOVERED, and SPARKCACHE_CANCELLED.
//
// # Lifecycle
//
// Dispose stops the Keyed Lock Registry's sweeper, evicts every live
// entry (firing callbacks), and releases registry resources. It is
// idempotent; calling it twice is a no-op. Operations on a disposed
// Cache return SPARKCACHE_DISPOSED.
//
// # Auto-keying
//
// GetOrComputeAuto derives a cache key from the call site instead of an
// explicit string, for the common case of one GetOrCompute call guarding
// one specific computation:
//
//	cache.GetOrComputeAuto(func(n *sparkcache.Nuances) (Config, error) {
//	    return loadConfigFromDisk()
//	}, nil)
//
// # License
//
// See LICENSE file in the repository.
package sparkcache
