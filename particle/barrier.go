package particle

import (
	"math"

	"diesel.com/particlesph/world"

	Vec "diesel.com/particlesph/vector"
)

// solveBarrier predicts whether any particle outside both endpoints'
// groups will cross a barrier-flagged pair's segment within the next
// barrierCollisionTime*dt and, if so, clamps that particle's velocity
// to stay on the correct side (spec.md §4.4 "Barrier").
func (s *System) solveBarrier(step Step) {
	if !s.allParticleFlags.Has(FlagBarrier) {
		return
	}
	pos := s.position.Slice()
	vel := s.velocity.Slice()
	fl := s.flags.Slice()
	tmax := s.cfg.BarrierCollisionTime * step.Dt

	for _, pair := range s.pairs {
		if !pair.Flags.Has(FlagBarrier) {
			continue
		}
		a, b := pair.A, pair.B
		ga, gb := s.groupOf[a], s.groupOf[b]
		pa, pb := pos[a], pos[b]
		va, vb := vel[a], vel[b]
		pba := Vec.Sub(pb, pa)
		vba := Vec.Sub(vb, va)

		for c := 0; c < s.count; c++ {
			if c == a || c == b || fl[c].Has(FlagZombie) {
				continue
			}
			if s.groupOf[c] == ga || s.groupOf[c] == gb {
				continue
			}
			pca := Vec.Sub(pos[c], pa)
			vca := Vec.Sub(vel[c], va)

			e2 := Vec.Cross(vba, vca)
			e1 := Vec.Cross(pba, vca) - Vec.Cross(pca, vba)
			e0 := Vec.Cross(pba, pca)

			t, ok := solveBarrierTime(e2, e1, e0, tmax)
			if !ok {
				continue
			}
			denomVec := Vec.Add(pba, Vec.Scale(vba, t))
			numerVec := Vec.Add(pca, Vec.Scale(vca, t))
			denom := Vec.LengthSquared(denomVec)
			if denom == 0 {
				continue
			}
			sParam := Vec.Dot(numerVec, denomVec) / denom
			if sParam < 0 || sParam > 1 {
				continue
			}
			vel[c] = Vec.Add(va, Vec.Scale(vba, sParam))
		}

		if fl[a].Has(FlagBarrier | FlagWall) {
			vel[a] = Vec.Zero()
		}
		if fl[b].Has(FlagBarrier | FlagWall) {
			vel[b] = Vec.Zero()
		}
	}
}

// solveBarrierTime finds the smallest root t in [0,tmax] of
// e2*t^2 + e1*t + e0 = 0, per spec.md §4.4's barrier crossing
// quadratic. Returns ok=false on the degenerate e2==e1==0 case
// (spec.md §7, guarded locally rather than propagated).
func solveBarrierTime(e2, e1, e0, tmax float64) (float64, bool) {
	const eps = 1e-9
	if math.Abs(e2) < eps {
		if math.Abs(e1) < eps {
			return 0, false
		}
		t := -e0 / e1
		if t < 0 || t > tmax {
			return 0, false
		}
		return t, true
	}
	disc := e1*e1 - 4*e2*e0
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t1 := (-e1 - sq) / (2 * e2)
	t2 := (-e1 + sq) / (2 * e2)
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 >= 0 && t1 <= tmax {
		return t1, true
	}
	if t2 >= 0 && t2 <= tmax {
		return t2, true
	}
	return 0, false
}

// solveCollision ray-casts every particle's predicted path against
// the host world's fixtures and stops it at the first hit, reacting
// on the struck body (spec.md §4.4 "Collision").
func (s *System) solveCollision(step Step) {
	if s.world == nil {
		return
	}
	pos := s.position.Slice()
	vel := s.velocity.Slice()
	fl := s.flags.Slice()
	criticalV := s.diameter * step.InvDt
	anyReaction := false
	var reactedBody world.Body

	for i := 0; i < s.count; i++ {
		p1 := pos[i]
		p2 := Vec.Add(p1, Vec.Scale(vel[i], step.Dt))
		if p1 == p2 {
			continue
		}

		cb := &collisionCallback{}
		s.world.RayCast(cb, p1, p2)
		if cb.fixture == nil {
			continue
		}

		hitPoint := Vec.Add(p1, Vec.Scale(Vec.Sub(p2, p1), cb.fraction))
		surfacePoint := Vec.Add(hitPoint, Vec.Scale(cb.normal, s.cfg.LinearSlop))
		oldVel := vel[i]
		vel[i] = Vec.Scale(Vec.Sub(surfacePoint, p1), step.InvDt)

		body := cb.fixture.GetBody()
		if body == nil {
			continue
		}
		invAm := 0.0
		if !fl[i].Has(FlagWall) {
			invAm = s.GetParticleInvMass()
		}
		if invAm == 0 {
			continue
		}
		particleMass := 1.0 / invAm
		massScale := 1.0
		if fixtureDensity := cb.fixture.GetDensity(); fixtureDensity > 0 && fixtureDensity < s.cfg.Density {
			massScale = fixtureDensity / s.cfg.Density
		}
		deltaV := Vec.Sub(vel[i], oldVel)
		impulse := Vec.Scale(deltaV, -particleMass*massScale)
		body.ApplyLinearImpulse(impulse, hitPoint, true)
		anyReaction = true
		reactedBody = body
	}

	if anyReaction && reactedBody != nil {
		maxEnergy := criticalV * criticalV * reactedBody.GetMass()
		bv := reactedBody.GetLinearVelocity()
		energy := 0.5 * reactedBody.GetMass() * Vec.LengthSquared(bv)
		if energy > maxEnergy && energy > 0 {
			reactedBody.SetLinearVelocity(Vec.Scale(bv, math.Sqrt(maxEnergy/energy)))
		}
	}
}

// collisionCallback is the explicit ray-cast visitor spec.md §9 calls
// for: it keeps the closest (smallest-fraction) fixture hit.
type collisionCallback struct {
	fixture  world.Fixture
	fraction float64
	normal   Vec.Vec2
}

// ReportFixture implements world.RayCastCallback, keeping the hit
// with the smallest fraction (the first surface the ray reaches).
func (cb *collisionCallback) ReportFixture(fixture world.Fixture, _, normal Vec.Vec2, fraction float64) float64 {
	if fixture.IsSensor() {
		return -1
	}
	if cb.fixture == nil || fraction < cb.fraction {
		cb.fixture = fixture
		cb.fraction = fraction
		cb.normal = normal
	}
	return fraction
}
