package particle_test

import (
	"testing"

	"diesel.com/particlesph/config"
	"diesel.com/particlesph/geometry"
	"diesel.com/particlesph/particle"

	Vec "diesel.com/particlesph/vector"
)

func TestSolveBuildsSymmetricContacts(t *testing.T) {
	cfg := config.Default()
	sys := particle.NewSystem(cfg, nil, nil, nil)
	d := sys.Diameter()
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(0, 0)})
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(d*0.5, 0)})
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(d*10, 0)}) // far away, no contact

	sys.Solve(particle.Step{Dt: 1e-6, InvDt: 1e6, ParticleIterations: 1})

	pos := sys.Positions()
	dist01 := Vec.Distance(pos[0], pos[1])
	if dist01 >= d {
		t.Fatalf("particles 0 and 1 should be within one diameter (%v), got %v", d, dist01)
	}
}

func TestDestroyParticlesInShapeMarksContained(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(0, 0)})
	sys.CreateParticle(particle.ParticleDef{Position: Vec.New(100, 100)})

	shape := geometry.NewCircleShape(0.5)
	n := sys.DestroyParticlesInShape(shape, geometry.Identity(), false)
	if n != 1 {
		t.Fatalf("DestroyParticlesInShape marked %d particles, want 1", n)
	}
	if !sys.Flags()[0].Has(particle.FlagZombie) {
		t.Error("particle inside the shape should be flagged zombie")
	}
	if sys.Flags()[1].Has(particle.FlagZombie) {
		t.Error("particle outside the shape should not be flagged zombie")
	}
}
