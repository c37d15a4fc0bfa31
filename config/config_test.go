package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sensors.RayCount != 5 || cfg.Sensors.RayLength != 150 {
		t.Errorf("unexpected sensor defaults: %+v", cfg.Sensors)
	}
	if cfg.Road.Infinity != 10_000_000 {
		t.Errorf("road.infinity: got %g", cfg.Road.Infinity)
	}
	if cfg.Population.MutationAmount != 0.1 {
		t.Errorf("population.mutation_amount: got %g", cfg.Population.MutationAmount)
	}
	if want := []int{5, 6, 4}; !slices.Equal(cfg.Derived.Topology, want) {
		t.Errorf("topology: got %v, want %v", cfg.Derived.Topology, want)
	}
}

func TestLoadOverridesMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("sensors:\n  ray_count: 7\nneural:\n  hidden_layers: [8, 8]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Sensors.RayCount != 7 {
		t.Errorf("ray_count not overridden: %d", cfg.Sensors.RayCount)
	}
	if cfg.Sensors.RayLength != 150 {
		t.Errorf("ray_length default lost: %g", cfg.Sensors.RayLength)
	}
	if want := []int{7, 8, 8, 4}; !slices.Equal(cfg.Derived.Topology, want) {
		t.Errorf("topology: got %v, want %v", cfg.Derived.Topology, want)
	}
}

func TestLoadRejectsZeroRays(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sensors:\n  ray_count: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for ray_count 0")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Population.Size = 12

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Population.Size != 12 {
		t.Errorf("population.size: got %d, want 12", loaded.Population.Size)
	}
}
