// Package metrics provides an OpenTelemetry-backed implementation of
// sparkcache.MetricsCollector, as a separate module so the core package
// carries zero OTEL dependencies.
//
// Adapted from otel/collector.go's OTelMetricsCollector: the original's
// Get/Set/Delete-shaped instruments become GetOrCompute/Produce/Eviction
// to match this cache's operations, and the eviction counter gains a
// "reason" attribute since this engine distinguishes manual, expired,
// replaced, and capacity evictions where the teacher's only had one kind.
//
// # Usage
//
//	exporter, _ := prometheus.New()
//	provider := metricsdk.NewMeterProvider(metricsdk.WithReader(exporter))
//
//	collector, err := sparkmetrics.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cache, _ := sparkcache.NewCache[User](sparkcache.Config{
//	    DefaultRetention: time.Hour,
//	    MetricsCollector: collector,
//	})
//
// # Metrics exposed
//
//   - sparkcache_get_or_compute_latency_ns: histogram, tagged by hit/miss
//   - sparkcache_produce_latency_ns: histogram of producer execution time
//   - sparkcache_hits_total / sparkcache_misses_total: counters
//   - sparkcache_evictions_total: counter, tagged by reason
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package metrics

import (
	"context"
	"errors"

	"github.com/agilira/sparkcache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements sparkcache.MetricsCollector using
// OpenTelemetry instruments.
//
// Thread-safety: safe for concurrent use; the underlying OTEL instruments
// are themselves thread-safe.
type OTelMetricsCollector struct {
	getOrComputeLatency metric.Int64Histogram
	produceLatency      metric.Int64Histogram
	hits                metric.Int64Counter
	misses              metric.Int64Counter
	evictions           metric.Int64Counter
}

// Options configures an OTelMetricsCollector.
type Options struct {
	// MeterName is the OpenTelemetry meter name. Default:
	// "github.com/agilira/sparkcache".
	MeterName string
}

// Option is a functional option for NewOTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing
// metrics from multiple cache instances.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates the OTEL instruments backing a
// MetricsCollector. provider must not be nil.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("sparkcache/metrics: meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/sparkcache"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &OTelMetricsCollector{}

	var err error
	c.getOrComputeLatency, err = meter.Int64Histogram(
		"sparkcache_get_or_compute_latency_ns",
		metric.WithDescription("Latency of GetOrCompute operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	c.produceLatency, err = meter.Int64Histogram(
		"sparkcache_produce_latency_ns",
		metric.WithDescription("Latency of producer execution in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	c.hits, err = meter.Int64Counter(
		"sparkcache_hits_total",
		metric.WithDescription("Total number of GetOrCompute calls satisfied without running the producer"),
	)
	if err != nil {
		return nil, err
	}

	c.misses, err = meter.Int64Counter(
		"sparkcache_misses_total",
		metric.WithDescription("Total number of GetOrCompute calls that ran the producer"),
	)
	if err != nil {
		return nil, err
	}

	c.evictions, err = meter.Int64Counter(
		"sparkcache_evictions_total",
		metric.WithDescription("Total number of entries removed, tagged by reason"),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// RecordGetOrCompute records one GetOrCompute call's latency and whether
// it was satisfied on the fast or recheck path without running the
// producer.
func (c *OTelMetricsCollector) RecordGetOrCompute(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getOrComputeLatency.Record(ctx, latencyNs, metric.WithAttributes(attribute.Bool("hit", hit)))
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

// RecordProduce records one producer execution's latency.
func (c *OTelMetricsCollector) RecordProduce(latencyNs int64) {
	c.produceLatency.Record(context.Background(), latencyNs)
}

// RecordEviction increments the evictions counter, tagged with reason.
func (c *OTelMetricsCollector) RecordEviction(reason sparkcache.EvictionReason) {
	c.evictions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("reason", reason.String()),
	))
}

var _ sparkcache.MetricsCollector = (*OTelMetricsCollector)(nil)
