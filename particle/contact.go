package particle

import (
	"sort"

	"diesel.com/particlesph/geometry"
	"diesel.com/particlesph/world"

	Vec "diesel.com/particlesph/vector"
)

// Contact is a particle<->particle proximity relation produced by
// updateContacts each sub-step (spec.md §3).
type Contact struct {
	A, B   int
	Flags  Flags
	Weight float64
	Normal Vec.Vec2 // unit, from A to B
}

// BodyContact is a particle<->fixture proximity relation produced by
// updateBodyContacts each sub-step (spec.md §3). Body and Fixture are
// weak references valid only for the step that produced them.
type BodyContact struct {
	Index   int
	Body    world.Body
	Fixture world.Fixture
	Weight  float64
	Normal  Vec.Vec2 // into the particle
	Mass    float64  // effective mass
}

// Pair is a two-particle constraint recorded at group creation for
// spring/barrier-flagged particles (spec.md §3).
type Pair struct {
	A, B     int
	Flags    Flags
	Strength float64
	Distance float64 // rest distance
}

// Triad is a three-particle constraint recorded at group creation for
// elastic-flagged particles via the injected Voronoi/Delaunay source
// (spec.md §3).
type Triad struct {
	A, B, C  int
	Flags    Flags
	Strength float64
	Pa, Pb, Pc Vec.Vec2 // reference offsets from centroid
	Ka, Kb, Kc float64  // edge dot invariants
	S          float64  // signed area
}

const strictContactMaxPerParticle = 3

// updateBodyContacts queries the host world for fixtures near the
// particle arena's bounding box and produces one BodyContact per
// particle within one diameter of a non-sensor fixture (spec.md
// §4.3).
func (s *System) updateBodyContacts() {
	s.bodyContacts = s.bodyContacts[:0]
	if s.world == nil || s.count == 0 {
		return
	}

	pos := s.position.Slice()
	fl := s.flags.Slice()

	aabb := boundingAABB(pos[:s.count])
	aabb = aabb.Expand(s.diameter)

	visitor := &bodyContactCollector{sys: s, aabb: aabb, positions: pos, flags: fl}
	s.world.QueryAABB(visitor, aabb)

	if s.cfg.StrictContactCheck {
		s.filterStrictBodyContacts()
	}
}

func boundingAABB(pts []Vec.Vec2) geometry.AABB {
	if len(pts) == 0 {
		return geometry.AABB{}
	}
	box := geometry.NewAABB(pts[0], pts[0])
	for _, p := range pts[1:] {
		box = geometry.Union(box, geometry.NewAABB(p, p))
	}
	return box
}

// bodyContactCollector is the explicit visitor struct spec.md §9
// prefers over a bare closure for AABB query callbacks.
type bodyContactCollector struct {
	sys       *System
	aabb      geometry.AABB
	positions []Vec.Vec2
	flags     []Flags
}

func (v *bodyContactCollector) ReportFixture(fixture world.Fixture) bool {
	if fixture.IsSensor() {
		return true
	}
	shape := fixture.GetShape()
	for child := 0; child < shape.GetChildCount(); child++ {
		childAABB := fixture.GetAABB(child).Expand(v.sys.diameter)
		if !childAABB.Overlaps(v.aabb) {
			continue
		}
		for i := 0; i < v.sys.count; i++ {
			if v.flags[i].Has(FlagZombie) {
				continue
			}
			p := v.positions[i]
			if !childAABB.Contains(p) {
				continue
			}
			d, n := fixture.ComputeDistance(p, child)
			if d >= v.sys.diameter {
				continue
			}
			v.sys.addBodyContact(i, fixture, d, n)
		}
	}
	return true
}

func (s *System) addBodyContact(i int, fixture world.Fixture, d float64, n Vec.Vec2) {
	body := fixture.GetBody()
	invAm := 0.0
	if !s.flags.Slice()[i].Has(FlagWall) {
		invAm = s.GetParticleInvMass()
	}
	invBm := 0.0
	invBI := 0.0
	rCrossN := 0.0
	if body != nil {
		mass := body.GetMass()
		if mass > 0 {
			invBm = 1.0 / mass
		}
		inertia := body.GetInertia()
		if inertia > 0 {
			invBI = 1.0 / inertia
		}
		r := Vec.Sub(s.position.Slice()[i], body.GetWorldCenter())
		rCrossN = Vec.Cross(r, n)
	}
	denom := invAm + invBm + invBI*rCrossN*rCrossN
	mass := 0.0
	if denom > 0 {
		mass = 1.0 / denom
	}
	s.bodyContacts = append(s.bodyContacts, BodyContact{
		Index:   i,
		Body:    body,
		Fixture: fixture,
		Weight:  1 - d/s.diameter,
		Normal:  Vec.Scale(n, -1),
		Mass:    mass,
	})
}

// filterStrictBodyContacts implements spec.md §4.4's strict spurious-
// contact filter: keep at most k=3 nearest contacts per particle, and
// drop any kept contact whose projected surface point no longer lies
// inside the fixture that generated it (catches normals spuriously
// generated where adjacent fixtures overlap at a shared vertex).
func (s *System) filterStrictBodyContacts() {
	sort.SliceStable(s.bodyContacts, func(i, j int) bool {
		a, b := s.bodyContacts[i], s.bodyContacts[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Weight > b.Weight
	})

	pos := s.position.Slice()
	kept := s.bodyContacts[:0]
	count := 0
	prevIndex := -1
	dropped := 0
	for _, bc := range s.bodyContacts {
		if bc.Index != prevIndex {
			prevIndex = bc.Index
			count = 0
		}
		if count >= strictContactMaxPerParticle {
			continue
		}
		count++
		p := Vec.Add(pos[bc.Index], Vec.Scale(bc.Normal, s.diameter*(1-bc.Weight)))
		if !bc.Fixture.TestPoint(p) {
			dropped++
			continue
		}
		kept = append(kept, bc)
	}
	s.bodyContacts = kept
	if dropped > 0 {
		Logf("particle: strict contact filter dropped %d spurious body contacts", dropped)
	}
}
