package particle

import (
	"diesel.com/particlesph/geometry"

	Vec "diesel.com/particlesph/vector"
)

// ParticleQueryCallback is the visitor spec.md §9 prefers over a bare
// closure for particle-space AABB queries.
type ParticleQueryCallback interface {
	ReportParticle(index int) bool
}

// QueryAABB invokes cb.ReportParticle for every live particle whose
// position falls inside aabb (spec.md §6).
func (s *System) QueryAABB(cb ParticleQueryCallback, aabb geometry.AABB) {
	pos := s.position.Slice()
	fl := s.flags.Slice()
	for i := 0; i < s.count; i++ {
		if fl[i].Has(FlagZombie) {
			continue
		}
		if aabb.Contains(pos[i]) {
			if !cb.ReportParticle(i) {
				return
			}
		}
	}
}

// QueryShapeAABB is QueryAABB restricted to the shape's actual
// footprint, not just its bounding box.
func (s *System) QueryShapeAABB(cb ParticleQueryCallback, shape geometry.Shape, xf geometry.Transform) {
	pos := s.position.Slice()
	fl := s.flags.Slice()
	aabb := shape.ComputeAABB(xf, 0)
	for i := 0; i < s.count; i++ {
		if fl[i].Has(FlagZombie) {
			continue
		}
		if !aabb.Contains(pos[i]) {
			continue
		}
		if shape.TestPoint(xf, pos[i]) {
			if !cb.ReportParticle(i) {
				return
			}
		}
	}
}

// ParticleRayCastCallback receives the particles a RayCast hits. A
// return value of 0 stops the cast; any other value (a fraction or
// -1) continues it, and the segment is not clipped, so every
// remaining hit is still reported.
type ParticleRayCastCallback interface {
	ReportParticle(index int, point, normal Vec.Vec2, fraction float64) float64
}

// RayCast walks every live particle and reports those within radius
// of segment p1->p2 to cb, nearest first (spec.md §6).
func (s *System) RayCast(cb ParticleRayCastCallback, p1, p2 Vec.Vec2) {
	pos := s.position.Slice()
	fl := s.flags.Slice()
	radius := s.diameter / 2

	type hit struct {
		index    int
		fraction float64
		point    Vec.Vec2
		normal   Vec.Vec2
	}
	var hits []hit

	d := Vec.Sub(p2, p1)
	length := Vec.Length(d)
	if length == 0 {
		return
	}
	dir := Vec.Scale(d, 1.0/length)

	for i := 0; i < s.count; i++ {
		if fl[i].Has(FlagZombie) {
			continue
		}
		toCenter := Vec.Sub(pos[i], p1)
		proj := Vec.Dot(toCenter, dir)
		if proj < 0 || proj > length {
			continue
		}
		closest := Vec.Add(p1, Vec.Scale(dir, proj))
		distSq := Vec.DistanceSquared(closest, pos[i])
		if distSq > radius*radius {
			continue
		}
		normal := Vec.Normalize(Vec.Sub(closest, pos[i]))
		hits = append(hits, hit{index: i, fraction: proj / length, point: closest, normal: normal})
	}

	for lo := 1; lo < len(hits); lo++ {
		for hi := lo; hi > 0 && hits[hi-1].fraction > hits[hi].fraction; hi-- {
			hits[hi-1], hits[hi] = hits[hi], hits[hi-1]
		}
	}

	for _, h := range hits {
		if cb.ReportParticle(h.index, h.point, h.normal, h.fraction) == 0 {
			return
		}
	}
}

// ComputeParticleCollisionEnergy sums 0.5*invMass^-1*vn^2 over every
// body contact with an inward normal velocity, the kinetic energy the
// collision kernel is actively absorbing this step (spec.md §6).
func (s *System) ComputeParticleCollisionEnergy() float64 {
	vel := s.velocity.Slice()
	pos := s.position.Slice()
	sum := 0.0
	for _, bc := range s.bodyContacts {
		relVel := vel[bc.Index]
		if bc.Body != nil {
			relVel = Vec.Sub(vel[bc.Index], bc.Body.GetLinearVelocityFromWorldPoint(pos[bc.Index]))
		}
		vn := Vec.Dot(relVel, bc.Normal)
		if vn >= 0 {
			continue
		}
		sum += 0.5 * bc.Mass * vn * vn
	}
	return sum
}
