package vantage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Damping <= 0 || cfg.Damping >= 1 {
		t.Errorf("Damping must lie in (0,1), got %v", cfg.Damping)
	}
	if cfg.MinDistance <= 0 || cfg.MaxDistance <= cfg.MinDistance {
		t.Errorf("Distance range invalid: %v..%v", cfg.MinDistance, cfg.MaxDistance)
	}
	if cfg.PollInterval <= 0 {
		t.Error("Poll interval must be positive")
	}
}

func TestConfig_LoadAppliesDefaultsToGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	doc := "damping: 0.8\npoll_interval: 250ms\nhover_throttle_frames: 5\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Damping != 0.8 {
		t.Errorf("Expected damping 0.8, got %v", cfg.Damping)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("Expected 250ms poll interval, got %v", cfg.PollInterval)
	}
	if cfg.HoverThrottleFrames != 5 {
		t.Errorf("Expected hover throttle 5, got %v", cfg.HoverThrottleFrames)
	}
	// Unset fields fall back to the defaults.
	if cfg.FovDegrees != DefaultConfig().FovDegrees {
		t.Errorf("Expected default fov, got %v", cfg.FovDegrees)
	}
	if cfg.MaxDistance != DefaultConfig().MaxDistance {
		t.Errorf("Expected default max distance, got %v", cfg.MaxDistance)
	}
}

func TestConfig_LoadMissingFileFails(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestConfig_LoadMalformedFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	if err := os.WriteFile(path, []byte("damping: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}
