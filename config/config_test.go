package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ---------- defaults ----------

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading embedded defaults: %v", err)
	}

	if cfg.Sim.DT <= 0 {
		t.Errorf("expected positive dt, got %f", cfg.Sim.DT)
	}
	if cfg.Charge.Epsilon <= 0 {
		t.Errorf("expected positive epsilon, got %f", cfg.Charge.Epsilon)
	}
	if cfg.Fleet.MaxCharge <= 0 {
		t.Errorf("expected positive fleet max charge, got %f", cfg.Fleet.MaxCharge)
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT bridge should be disabled by default")
	}
}

func TestLoad_DerivedTicksPerWindow(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading embedded defaults: %v", err)
	}
	if cfg.Derived.TicksPerWindow < 1 {
		t.Errorf("expected at least 1 tick per window, got %d", cfg.Derived.TicksPerWindow)
	}

	want := int32(cfg.Telemetry.StatsWindow / cfg.Sim.DT)
	if cfg.Derived.TicksPerWindow != want {
		t.Errorf("expected %d ticks per window, got %d", want, cfg.Derived.TicksPerWindow)
	}
}

// ---------- user overrides ----------

func TestLoad_UserConfigOverridesSubset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	override := []byte("charge:\n  epsilon: 0.5\n")
	if err := os.WriteFile(path, override, 0644); err != nil {
		t.Fatalf("writing override config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.Charge.Epsilon != 0.5 {
		t.Errorf("expected overridden epsilon 0.5, got %f", cfg.Charge.Epsilon)
	}
	// Untouched fields keep their defaults.
	if cfg.Fleet.Networked == 0 {
		t.Error("expected default fleet.networked to survive partial override")
	}
}

func TestLoad_MissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

// ---------- round trip ----------

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading embedded defaults: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	re, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if re.Charge.Epsilon != cfg.Charge.Epsilon {
		t.Errorf("epsilon changed across round trip: %f vs %f", re.Charge.Epsilon, cfg.Charge.Epsilon)
	}
	if re.Fleet.Networked != cfg.Fleet.Networked {
		t.Errorf("fleet.networked changed across round trip: %d vs %d", re.Fleet.Networked, cfg.Fleet.Networked)
	}
}
