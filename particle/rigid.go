package particle

import Vec "diesel.com/particlesph/vector"

// solveRigid recomputes each rigid group's centroid, linear, and
// angular velocity from its members, advances the group's transform,
// and overwrites every member's velocity so the group moves as one
// rigid body (spec.md §4.4 "Rigid groups").
func (s *System) solveRigid(step Step) {
	if !s.allGroupFlags.Has(GroupRigid) {
		return
	}
	pos := s.position.Slice()
	vel := s.velocity.Slice()

	for g := s.groupList; g != nil; g = g.next {
		if !g.flags.Has(GroupRigid) || g.Count() == 0 {
			continue
		}
		n := 0
		centroid := Vec.Zero()
		linear := Vec.Zero()
		for i := g.firstIndex; i < g.lastIndex; i++ {
			if s.groupOf[i] != g {
				continue
			}
			centroid = Vec.Add(centroid, pos[i])
			linear = Vec.Add(linear, vel[i])
			n++
		}
		if n == 0 {
			continue
		}
		centroid = Vec.Scale(centroid, 1.0/float64(n))
		linear = Vec.Scale(linear, 1.0/float64(n))

		numer, denom := 0.0, 0.0
		for i := g.firstIndex; i < g.lastIndex; i++ {
			if s.groupOf[i] != g {
				continue
			}
			r := Vec.Sub(pos[i], centroid)
			relV := Vec.Sub(vel[i], linear)
			numer += Vec.Cross(r, relV)
			denom += Vec.LengthSquared(r)
		}
		angular := 0.0
		if denom > 0 {
			angular = numer / denom
		}

		g.linearVelocity = linear
		g.angularVelocity = angular
		newCentroid := Vec.Add(centroid, Vec.Scale(linear, step.Dt))
		dTheta := angular * step.Dt
		g.transform.Position = newCentroid
		g.transform.Angle += dTheta

		// Velocity is back-derived from the exact rotated position
		// rather than the instantaneous tangential speed, so the
		// uniform integrate step that follows reproduces the rigid
		// rotation exactly instead of only to first order in dTheta
		// (spec.md §4.4 "Rigid groups").
		for i := g.firstIndex; i < g.lastIndex; i++ {
			if s.groupOf[i] != g {
				continue
			}
			r := Vec.Sub(pos[i], centroid)
			newPos := Vec.Add(newCentroid, Vec.Rotate(r, dTheta))
			vel[i] = Vec.Scale(Vec.Sub(newPos, pos[i]), 1.0/step.Dt)
		}
	}
}

// solveWall zeroes the velocity of every wall-flagged particle
// (spec.md §4.4 "Wall").
func (s *System) solveWall(step Step) {
	if !s.allParticleFlags.Has(FlagWall) {
		return
	}
	fl := s.flags.Slice()
	vel := s.velocity.Slice()
	for i := 0; i < s.count; i++ {
		if fl[i].Has(FlagWall) {
			vel[i] = Vec.Zero()
		}
	}
}
