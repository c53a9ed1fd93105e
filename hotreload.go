// hotreload.go: dynamic reconfiguration via Argus file watching
//
// Grounded on hot-reload.go's HotConfig/argus.Watcher wiring, adapted to
// drive the reloadable subset of sparkcache.Config (ReloadableLimits)
// instead of the teacher's W-TinyLFU MaxSize/TTL/WindowRatio/CounterBits
// knobs. DefaultRetention always applies live; MaxCacheSizeBytes and
// EvictionStrategy apply live only to a cache constructed with a capacity
// bound; every other Config field requires cache reconstruction.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package sparkcache

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// ReloadableConfig is the subset of Config that hot reload may change at
// runtime.
type ReloadableConfig struct {
	DefaultRetention time.Duration
	MaxCacheSizeBytes *uint64
	EvictionStrategy EvictionStrategy
}

// HotConfig watches a configuration file and pushes reloadable settings
// into a live cache via ReloadableLimits whenever the file changes.
type HotConfig struct {
	target  ReloadableLimits
	watcher *argus.Watcher
	logger  Logger

	mu      sync.RWMutex
	current ReloadableConfig

	// OnReload is called after a config file change has been applied. It
	// must be fast and non-blocking.
	OnReload func(old, new ReloadableConfig)
}

// HotConfigOptions configures NewHotConfig.
type HotConfigOptions struct {
	// ConfigPath is the file to watch. Argus supports JSON, YAML, TOML,
	// HCL, INI, and Properties formats.
	ConfigPath string

	// PollInterval is how often to check for changes. Default 1s, floor
	// 100ms, matching the teacher's own bounds.
	PollInterval time.Duration

	// Initial is the configuration to apply before the first file read
	// completes.
	Initial ReloadableConfig

	OnReload func(old, new ReloadableConfig)
	Logger   Logger
}

// NewHotConfig starts watching opts.ConfigPath immediately and applies
// parsed changes to target.
func NewHotConfig(target ReloadableLimits, opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("sparkcache: config_path is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = NoOpLogger{}
	}

	hc := &HotConfig{
		target:   target,
		OnReload: opts.OnReload,
		current:  opts.Initial,
		logger:   logger,
	}

	argusConfig := argus.Config{PollInterval: opts.PollInterval}
	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching, if not already running.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// GetConfig returns the last-applied reloadable configuration.
func (hc *HotConfig) GetConfig() ReloadableConfig {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.current
}

func (hc *HotConfig) handleConfigChange(data map[string]interface{}) {
	hc.mu.Lock()
	old := hc.current
	next := hc.parseConfig(old, data)
	hc.current = next
	hc.mu.Unlock()

	hc.apply(old, next)

	if hc.OnReload != nil {
		hc.OnReload(old, next)
	}
}

// apply pushes every field that changed into the live cache, except a
// non-positive DefaultRetention or a MaxCacheSizeBytes that became nil,
// which are skipped.
func (hc *HotConfig) apply(old, next ReloadableConfig) {
	if next.DefaultRetention != old.DefaultRetention && next.DefaultRetention > 0 {
		hc.target.SetDefaultRetention(next.DefaultRetention)
		hc.logger.Info("sparkcache: default retention reloaded", "retention", next.DefaultRetention)
	}
	if next.MaxCacheSizeBytes != nil && (old.MaxCacheSizeBytes == nil || *next.MaxCacheSizeBytes != *old.MaxCacheSizeBytes) {
		hc.target.SetMaxCacheSizeBytes(*next.MaxCacheSizeBytes)
		hc.logger.Info("sparkcache: max cache size reloaded", "bytes", *next.MaxCacheSizeBytes)
	}
	if next.EvictionStrategy != old.EvictionStrategy {
		hc.target.SetEvictionStrategy(next.EvictionStrategy)
		hc.logger.Info("sparkcache: eviction strategy reloaded", "strategy", next.EvictionStrategy)
	}
}

// parseConfig extracts the reloadable fields from Argus's generic
// map[string]interface{} view of the config file, under a "cache" section
// (or the top level, if the file has no "cache" section but has a
// top-level default_retention key).
func (hc *HotConfig) parseConfig(base ReloadableConfig, data map[string]interface{}) ReloadableConfig {
	next := base

	section, ok := data["cache"].(map[string]interface{})
	if !ok {
		if _, hasRetention := data["default_retention"]; hasRetention {
			section = data
		} else {
			return next
		}
	}

	if d, ok := parseDurationValue(section["default_retention"]); ok {
		next.DefaultRetention = d
	}
	if n, ok := parsePositiveIntValue(section["max_cache_size_bytes"]); ok {
		limit := uint64(n)
		next.MaxCacheSizeBytes = &limit
	}
	if s, ok := section["eviction_strategy"].(string); ok {
		switch s {
		case "largest_first":
			next.EvictionStrategy = LargestFirst
		case "smallest_first":
			next.EvictionStrategy = SmallestFirst
		}
	}

	return next
}

func parseDurationValue(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}

func parsePositiveIntValue(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return int64(v), true
		}
	case int64:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int64(v), true
		}
	}
	return 0, false
}
