package sparkcache

import (
	"testing"
	"time"
)

func TestConfig_Validate_RejectsNonPositiveRetention(t *testing.T) {
	cfg := Config{DefaultRetention: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected zero DefaultRetention to be rejected")
	}
	cfg.DefaultRetention = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected negative DefaultRetention to be rejected")
	}
}

func TestConfig_Validate_RejectsNegativeTopN(t *testing.T) {
	cfg := Config{DefaultRetention: time.Minute, MaxTopSlowest: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected negative MaxTopSlowest to be rejected")
	}
	cfg = Config{DefaultRetention: time.Minute, MaxTopHeaviest: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected negative MaxTopHeaviest to be rejected")
	}
}

func TestConfig_Validate_AcceptsValidConfig(t *testing.T) {
	cfg := Config{DefaultRetention: time.Minute}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected a minimal valid config to pass, got %v", err)
	}
}

func TestConfig_WithDefaults_FillsZeroValues(t *testing.T) {
	cfg := Config{DefaultRetention: time.Minute}
	filled := cfg.WithDefaults()

	if filled.CleanupInterval != DefaultCleanupInterval {
		t.Errorf("expected CleanupInterval defaulted, got %v", filled.CleanupInterval)
	}
	if filled.Clock == nil {
		t.Error("expected a default Clock")
	}
	if filled.Logger == nil {
		t.Error("expected a default Logger")
	}
	if filled.MetricsCollector == nil {
		t.Error("expected a default MetricsCollector")
	}
}

func TestConfig_WithDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		DefaultRetention: time.Minute,
		CleanupInterval:  5 * time.Second,
	}
	filled := cfg.WithDefaults()
	if filled.CleanupInterval != 5*time.Second {
		t.Errorf("expected explicit CleanupInterval preserved, got %v", filled.CleanupInterval)
	}
}

func TestConfig_SizingEnabled(t *testing.T) {
	cfg := Config{DefaultRetention: time.Minute}
	if cfg.sizingEnabled() {
		t.Error("expected sizing disabled with no top-N and no capacity bound")
	}

	cfg.MaxTopHeaviest = 1
	if !cfg.sizingEnabled() {
		t.Error("expected sizing enabled once MaxTopHeaviest > 0")
	}

	cfg = Config{DefaultRetention: time.Minute}
	limit := uint64(100)
	cfg.MaxCacheSizeBytes = &limit
	if !cfg.sizingEnabled() {
		t.Error("expected sizing enabled once MaxCacheSizeBytes is set")
	}
}
