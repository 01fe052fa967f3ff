package particle_test

import (
	"testing"

	"diesel.com/particlesph/config"
	"diesel.com/particlesph/particle"

	Vec "diesel.com/particlesph/vector"
)

func TestCreateParticleAssignsDenseIndices(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	for i := 0; i < 5; i++ {
		idx := sys.CreateParticle(particle.ParticleDef{Position: Vec.New(float64(i), 0)})
		if idx != i {
			t.Fatalf("CreateParticle %d: got index %d", i, idx)
		}
	}
	if sys.Count() != 5 {
		t.Fatalf("Count = %d, want 5", sys.Count())
	}
}

func TestCreateParticleGrowsPastInitialCapacity(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	const n = 300 // exceeds the default min_buffer_capacity (256)
	for i := 0; i < n; i++ {
		if idx := sys.CreateParticle(particle.ParticleDef{Position: Vec.New(float64(i), 0)}); idx != i {
			t.Fatalf("particle %d: got index %d", i, idx)
		}
	}
	if sys.Count() != n {
		t.Fatalf("Count = %d, want %d", sys.Count(), n)
	}
	pos := sys.Positions()
	if pos[n-1].X != float64(n-1) {
		t.Errorf("last particle position not preserved across growth: %v", pos[n-1])
	}
}

func TestCreateParticleRespectsExternalBufferCapacity(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	buf := make([]Vec.Vec2, 2)
	sys.SetParticlePositionBuffer(buf)

	if idx := sys.CreateParticle(particle.ParticleDef{Position: Vec.New(1, 1)}); idx != 0 {
		t.Fatalf("first CreateParticle: got %d", idx)
	}
	if idx := sys.CreateParticle(particle.ParticleDef{Position: Vec.New(2, 2)}); idx != 1 {
		t.Fatalf("second CreateParticle: got %d", idx)
	}
	if idx := sys.CreateParticle(particle.ParticleDef{Position: Vec.New(3, 3)}); idx != particle.InvalidIndex {
		t.Fatalf("third CreateParticle should fail against a 2-capacity external buffer, got %d", idx)
	}
	if sys.Count() != 2 {
		t.Fatalf("Count = %d, want 2", sys.Count())
	}
}

func TestCreateParticleFailsWhenWorldLocked(t *testing.T) {
	w := newFakeWorld(Vec.Zero())
	w.locked = true
	sys := particle.NewSystem(config.Default(), w, nil, nil)
	if idx := sys.CreateParticle(particle.ParticleDef{Position: Vec.New(0, 0)}); idx != particle.InvalidIndex {
		t.Fatalf("CreateParticle on a locked world: got %d, want InvalidIndex", idx)
	}
}

func TestDestroyParticleIsDeferredToSolve(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(0, 0)})
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(1, 0)})

	sys.DestroyParticle(0, false)
	if sys.Count() != 2 {
		t.Fatalf("Count changed synchronously on DestroyParticle: got %d, want 2", sys.Count())
	}
	if !sys.Flags()[0].Has(particle.FlagZombie) {
		t.Fatal("particle 0 should be flagged zombie immediately")
	}

	sys.Solve(particle.Step{Dt: 1.0 / 60, InvDt: 60, ParticleIterations: 1})
	if sys.Count() != 1 {
		t.Fatalf("Count after Solve = %d, want 1", sys.Count())
	}
}

func TestGetParticleInvMassConstant(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	if got := sys.GetParticleInvMass(); got != 1.777777 {
		t.Errorf("GetParticleInvMass = %v, want 1.777777", got)
	}
}
