package particle_test

import (
	"testing"

	"diesel.com/particlesph/config"
	"diesel.com/particlesph/geometry"
	"diesel.com/particlesph/particle"

	Vec "diesel.com/particlesph/vector"
)

func TestCreateParticleGroupFillsCircle(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	shape := geometry.NewCircleShape(0.3)
	g := sys.CreateParticleGroup(particle.GroupDef{
		Shape:  shape,
		Xf:     geometry.Identity(),
		Stride: 0.1,
	})
	if g == nil {
		t.Fatal("CreateParticleGroup returned nil")
	}
	if g.Count() == 0 {
		t.Fatal("expected at least one stamped particle")
	}
	if sys.Count() != g.Count() {
		t.Fatalf("system count %d != group count %d", sys.Count(), g.Count())
	}
	pos := sys.Positions()
	for i := g.FirstIndex(); i < g.LastIndex(); i++ {
		if Vec.Length(pos[i]) > 0.3+1e-9 {
			t.Errorf("particle %d at %v falls outside the stamped circle", i, pos[i])
		}
		if sys.GroupOf(i) != g {
			t.Errorf("particle %d not assigned back to its group", i)
		}
	}
}

func TestCreateParticleGroupExplicitPositions(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	pts := []Vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	g := sys.CreateParticleGroup(particle.GroupDef{PositionData: pts})
	if g.Count() != 3 {
		t.Fatalf("Count = %d, want 3", g.Count())
	}
	pos := sys.Positions()
	for i, want := range pts {
		if pos[i] != want {
			t.Errorf("particle %d = %v, want %v", i, pos[i], want)
		}
	}
}

func TestCreateParticleGroupFailsWhenWorldLocked(t *testing.T) {
	w := newFakeWorld(Vec.Zero())
	w.locked = true
	sys := particle.NewSystem(config.Default(), w, nil, nil)
	g := sys.CreateParticleGroup(particle.GroupDef{PositionData: []Vec.Vec2{{X: 0, Y: 0}}})
	if g != nil {
		t.Fatalf("CreateParticleGroup on a locked world should return nil, got %v", g)
	}
}

func TestJoinParticleGroupsMergesRangesAndDestroysB(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	a := sys.CreateParticleGroup(particle.GroupDef{PositionData: []Vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}}})
	b := sys.CreateParticleGroup(particle.GroupDef{PositionData: []Vec.Vec2{{X: 10, Y: 0}, {X: 11, Y: 0}, {X: 12, Y: 0}}})

	aFirst, bFirst, bLast := a.FirstIndex(), b.FirstIndex(), b.LastIndex()
	if aFirst != 0 || bFirst != 2 || bLast != 5 {
		t.Fatalf("unexpected initial ranges: a=[%d,%d) b=[%d,%d)", a.FirstIndex(), a.LastIndex(), bFirst, bLast)
	}

	if err := sys.JoinParticleGroups(a, b); err != nil {
		t.Fatalf("JoinParticleGroups: %v", err)
	}
	if b.Valid() {
		t.Error("b should be destroyed after being joined into a")
	}
	if a.Count() != 5 {
		t.Fatalf("a.Count() = %d, want 5", a.Count())
	}
	for i := a.FirstIndex(); i < a.LastIndex(); i++ {
		if sys.GroupOf(i) != a {
			t.Errorf("particle %d not reassigned to a after join", i)
		}
	}
}

func TestJoinParticleGroupsRejectsSelfJoin(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	a := sys.CreateParticleGroup(particle.GroupDef{PositionData: []Vec.Vec2{{X: 0, Y: 0}}})
	if err := sys.JoinParticleGroups(a, a); err != particle.ErrInvalidGroup {
		t.Errorf("JoinParticleGroups(a, a) = %v, want ErrInvalidGroup", err)
	}
}

func TestJoinParticleGroupsRejectsDestroyedGroup(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	a := sys.CreateParticleGroup(particle.GroupDef{PositionData: []Vec.Vec2{{X: 0, Y: 0}}})
	b := sys.CreateParticleGroup(particle.GroupDef{PositionData: []Vec.Vec2{{X: 5, Y: 0}}})
	sys.DestroyGroup(b, false)
	if err := sys.JoinParticleGroups(a, b); err != particle.ErrInvalidGroup {
		t.Errorf("JoinParticleGroups with a destroyed group = %v, want ErrInvalidGroup", err)
	}
}

func TestDestroyGroupClearsMemberBackReferences(t *testing.T) {
	sys := particle.NewSystem(config.Default(), nil, nil, nil)
	g := sys.CreateParticleGroup(particle.GroupDef{PositionData: []Vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}}})
	sys.DestroyGroup(g, false)
	if g.Valid() {
		t.Error("group should be invalid after DestroyGroup")
	}
	if sys.GroupOf(0) != nil || sys.GroupOf(1) != nil {
		t.Error("member particles should lose their group back-reference")
	}
}
