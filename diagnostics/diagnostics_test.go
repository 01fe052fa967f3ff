package diagnostics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"diesel.com/particlesph/config"
	"diesel.com/particlesph/particle"

	Vec "diesel.com/particlesph/vector"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	cfg := config.Default()
	sys := particle.NewSystem(cfg, nil, nil, nil)
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(1, 2), Velocity: Vec.New(3, 4)})
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(5, 6)})

	path := filepath.Join(t.TempDir(), "snapshot.csv")
	if err := WriteCSV(path, sys); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "pos_x") {
		t.Errorf("expected header to contain pos_x, got %q", lines[0])
	}
}

func TestSnapshotCount(t *testing.T) {
	cfg := config.Default()
	sys := particle.NewSystem(cfg, nil, nil, nil)
	for i := 0; i < 5; i++ {
		sys.CreateParticle(particle.ParticleDef{Position: Vec.New(float64(i), 0)})
	}
	rows := Snapshot(sys)
	if len(rows) != 5 {
		t.Errorf("expected 5 rows, got %d", len(rows))
	}
}
