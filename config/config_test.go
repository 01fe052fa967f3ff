package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultLoads(t *testing.T) {
	d := Default()

	if d.Radius <= 0 {
		t.Errorf("expected a positive default radius, got %f", d.Radius)
	}
	if d.MinParticleBufferCapacity != 256 {
		t.Errorf("expected default min buffer capacity 256, got %d", d.MinParticleBufferCapacity)
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	d := Default()
	d.Density = 2.5

	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := d.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Density != 2.5 {
		t.Errorf("expected density 2.5 after round trip, got %f", loaded.Density)
	}
}

func TestCriticalVelocity(t *testing.T) {
	d := Default()
	d.Radius = 0.1

	v := d.CriticalVelocity(60)
	if v != 0.2*60 {
		t.Errorf("expected critical velocity %f, got %f", 0.2*60, v)
	}
}
