// Command sparkstat is a small inspector that demonstrates wiring a
// sparkcache.Statistics snapshot into a flag-driven CLI. It is the only
// package in this module that imports the flash-flags dependency.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/agilira/flash-flags"
	"github.com/agilira/sparkcache"
)

func main() {
	fs := flashflags.New("sparkstat")
	retention := fs.Duration("retention", time.Minute, "default retention for the demo cache")
	key := fs.String("key", "demo:key", "cache key to populate before reporting")
	pretty := fs.Bool("pretty", true, "pretty-print the statistics snapshot as JSON")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sparkstat:", err)
		os.Exit(2)
	}

	cache, err := sparkcache.NewCache[string](sparkcache.Config{
		DefaultRetention:  *retention,
		StatisticsEnabled: true,
		MaxTopSlowest:     16,
		MaxTopHeaviest:    16,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "sparkstat:", err)
		os.Exit(1)
	}
	defer cache.Dispose()

	_, err = cache.GetOrCompute(*key, func(n *sparkcache.Nuances) (string, error) {
		return "demo-value", nil
	}, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sparkstat:", err)
		os.Exit(1)
	}
	// A second call demonstrates a cache hit in the reported snapshot.
	_, _ = cache.GetOrCompute(*key, func(n *sparkcache.Nuances) (string, error) {
		return "demo-value", nil
	}, nil)

	snap := cache.Statistics().Snapshot()

	encoder := json.NewEncoder(os.Stdout)
	if *pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(snap); err != nil {
		fmt.Fprintln(os.Stderr, "sparkstat:", err)
		os.Exit(1)
	}
}
