package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutputManager_NilWhenDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if om != nil {
		t.Fatal("expected nil manager for empty dir")
	}

	// All methods must be safe on the nil manager.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("nil manager WriteTelemetry: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil manager Close: %v", err)
	}
	if om.Dir() != "" {
		t.Errorf("nil manager Dir should be empty, got %q", om.Dir())
	}
}

func TestOutputManager_WritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("creating output manager: %v", err)
	}

	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 60}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 120}); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 records, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "window_end") {
		t.Errorf("first line should be the header, got %q", lines[0])
	}
	if strings.Contains(lines[1], "window_end") || strings.Contains(lines[2], "window_end") {
		t.Error("header repeated in data rows")
	}
}
