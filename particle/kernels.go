package particle

import (
	"math"

	Vec "diesel.com/particlesph/vector"
)

// solveViscous damps the tangential velocity difference between
// viscous-flagged particles and whatever they're touching. Not given
// an explicit formula in spec.md §4.4 (only listed in kernel order);
// grounded on original_source/liquidfun's b2ParticleSystem::
// SolveViscous, which this reproduces: body contacts pull the
// particle toward the fixture's surface velocity, particle contacts
// pull both ends toward each other's velocity.
func (s *System) solveViscous(step Step) {
	if !s.allParticleFlags.Has(FlagViscous) {
		return
	}
	strength := s.cfg.ViscousStrength
	fl := s.flags.Slice()
	vel := s.velocity.Slice()
	pos := s.position.Slice()

	for _, bc := range s.bodyContacts {
		if !fl[bc.Index].Has(FlagViscous) || bc.Body == nil {
			continue
		}
		av := bc.Body.GetLinearVelocityFromWorldPoint(pos[bc.Index])
		vDiff := Vec.Sub(av, vel[bc.Index])
		f := Vec.Scale(vDiff, strength*bc.Mass*bc.Weight)
		invAm := s.GetParticleInvMass()
		vel[bc.Index] = Vec.Add(vel[bc.Index], Vec.Scale(f, invAm))
		bc.Body.ApplyLinearImpulse(Vec.Scale(f, -1), pos[bc.Index], true)
	}

	for _, c := range s.contacts {
		if !c.Flags.Has(FlagViscous) {
			continue
		}
		vDiff := Vec.Sub(vel[c.B], vel[c.A])
		f := Vec.Scale(vDiff, strength*c.Weight)
		vel[c.A] = Vec.Add(vel[c.A], f)
		vel[c.B] = Vec.Sub(vel[c.B], f)
	}
}

// solvePowder pushes apart contacts above minWeight = 1-particleStride
// (spec.md §4.4 "Powder").
func (s *System) solvePowder(step Step) {
	if !s.allParticleFlags.Has(FlagPowder) {
		return
	}
	minWeight := 1 - s.cfg.ParticleStride
	vel := s.velocity.Slice()
	for _, c := range s.contacts {
		if !c.Flags.Has(FlagPowder) || c.Weight <= minWeight {
			continue
		}
		f := Vec.Scale(c.Normal, s.cfg.PowderStrength*(c.Weight-minWeight))
		vel[c.A] = Vec.Sub(vel[c.A], f)
		vel[c.B] = Vec.Add(vel[c.B], f)
	}
}

// solveTensile accumulates a signed normal into accumulation2, then
// applies the surface-tension force between tensile-flagged contacts
// (spec.md §4.4 "Tensile").
func (s *System) solveTensile(step Step) {
	if !s.allParticleFlags.Has(FlagTensile) {
		return
	}
	s.ensureAccumulation2()
	fl := s.flags.Slice()
	vel := s.velocity.Slice()

	for i := 0; i < s.count; i++ {
		if fl[i].Has(FlagTensile) {
			s.accumulation2[i] = Vec.Zero()
		}
	}
	for _, c := range s.contacts {
		if !c.Flags.Has(FlagTensile) {
			continue
		}
		w := (1 - c.Weight) * c.Weight
		delta := Vec.Scale(c.Normal, w)
		s.accumulation2[c.A] = Vec.Sub(s.accumulation2[c.A], delta)
		s.accumulation2[c.B] = Vec.Add(s.accumulation2[c.B], delta)
	}
	for _, c := range s.contacts {
		if !c.Flags.Has(FlagTensile) {
			continue
		}
		pressureTerm := s.cfg.PressureStrength * (s.weight[c.A] + s.weight[c.B] - 2)
		normalTerm := s.cfg.NormalStrength * Vec.Dot(Vec.Sub(s.accumulation2[c.B], s.accumulation2[c.A]), c.Normal)
		f := Vec.Scale(c.Normal, (pressureTerm+normalTerm)*c.Weight)
		vel[c.A] = Vec.Sub(vel[c.A], f)
		vel[c.B] = Vec.Add(vel[c.B], f)
	}
}

// solveSolid pushes particles of different groups apart in proportion
// to their summed depth (spec.md §4.4 "Solid").
func (s *System) solveSolid(step Step) {
	if s.depth == nil {
		return
	}
	vel := s.velocity.Slice()
	for _, c := range s.contacts {
		ga, gb := s.groupOf[c.A], s.groupOf[c.B]
		if ga == gb {
			continue
		}
		f := Vec.Scale(c.Normal, s.cfg.EjectionStrength*(s.depth[c.A]+s.depth[c.B])*c.Weight)
		vel[c.A] = Vec.Sub(vel[c.A], f)
		vel[c.B] = Vec.Add(vel[c.B], f)
	}
}

// solveColorMixing shifts touching color-mixing particles' colors
// toward each other by a quantized fraction (spec.md §4.4
// "Color mixing").
func (s *System) solveColorMixing(step Step) {
	if !s.allParticleFlags.Has(FlagColorMixing) {
		return
	}
	s.ensureColorBuffer()
	col := s.color.Slice()
	shift := uint8(128 * s.cfg.ColorMixingStrength)
	for _, c := range s.contacts {
		if !c.Flags.Has(FlagColorMixing) {
			continue
		}
		mixChannel(&col[c.A].R, &col[c.B].R, shift)
		mixChannel(&col[c.A].G, &col[c.B].G, shift)
		mixChannel(&col[c.A].B, &col[c.B].B, shift)
		mixChannel(&col[c.A].A, &col[c.B].A, shift)
	}
}

func mixChannel(a, b *uint8, shift uint8) {
	diff := int(*b) - int(*a)
	delta := diff * int(shift) / 256
	*a = uint8(int(*a) + delta)
	*b = uint8(int(*b) - delta)
}

// solveGravity applies world gravity scaled by gravityScale
// (spec.md §4.4 "Gravity").
func (s *System) solveGravity(step Step) {
	if s.world == nil {
		return
	}
	g := Vec.Scale(s.world.Gravity(), s.cfg.GravityScale*step.Dt)
	vel := s.velocity.Slice()
	for i := 0; i < s.count; i++ {
		vel[i] = Vec.Add(vel[i], g)
	}
}

// solveStaticPressure relaxes the lazily allocated staticPressure
// buffer toward a Poisson-like equilibrium over staticPressureFlagged
// particles (spec.md §4.4 "Static pressure").
func (s *System) solveStaticPressure(step Step) {
	if !s.allParticleFlags.Has(FlagStaticPressure) {
		return
	}
	s.ensureStaticPressure()
	fl := s.flags.Slice()

	relax := s.cfg.StaticPressureRelaxation
	pressurePerWeight := s.cfg.StaticPressureStrength
	next := make([]float64, s.count)

	for it := 0; it < s.cfg.StaticPressureIterations; it++ {
		copy(next, s.staticPressure[:s.count])
		for i := 0; i < s.count; i++ {
			if !fl[i].Has(FlagStaticPressure) {
				continue
			}
			sum := 0.0
			for _, c := range s.contacts {
				if c.A == i && fl[c.B].Has(FlagStaticPressure) {
					sum += s.staticPressure[c.B] * c.Weight
				} else if c.B == i && fl[c.A].Has(FlagStaticPressure) {
					sum += s.staticPressure[c.A] * c.Weight
				}
			}
			num := sum + pressurePerWeight*(s.weight[i]-s.cfg.MinParticleWeight)
			denom := s.weight[i] + relax
			p := 0.0
			if denom > 0 {
				p = num / denom
			}
			next[i] = clamp(p, 0, s.cfg.MaxParticlePressure)
		}
		copy(s.staticPressure[:s.count], next)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// solvePressure applies the dynamic pressure impulse, combining body
// and particle contacts (spec.md §4.4 "Pressure kernel").
func (s *System) solvePressure(step Step) {
	fl := s.flags.Slice()
	vel := s.velocity.Slice()

	h := make([]float64, s.count)
	for i := 0; i < s.count; i++ {
		if fl[i].Any(noPressureFlags) {
			continue
		}
		v := s.cfg.PressureStrength * math.Max(0, s.weight[i]-s.cfg.MinParticleWeight)
		if v > s.cfg.MaxParticlePressure {
			v = s.cfg.MaxParticlePressure
		}
		if s.staticPressure != nil && fl[i].Has(FlagStaticPressure) {
			v += s.staticPressure[i]
		}
		h[i] = v
	}

	coeff := step.Dt / (s.cfg.Density * s.diameter)

	for _, bc := range s.bodyContacts {
		a := bc.Index
		if fl[a].Any(noPressureFlags) {
			continue
		}
		mag := coeff * bc.Weight * bc.Mass * (h[a] + s.cfg.PressureStrength*bc.Weight)
		f := Vec.Scale(bc.Normal, mag)
		invAm := s.GetParticleInvMass()
		vel[a] = Vec.Sub(vel[a], Vec.Scale(f, invAm))
		if bc.Body != nil {
			bc.Body.ApplyLinearImpulse(f, s.position.Slice()[a], true)
		}
	}

	for _, c := range s.contacts {
		if fl[c.A].Any(noPressureFlags) || fl[c.B].Any(noPressureFlags) {
			continue
		}
		mag := coeff * c.Weight * (h[c.A] + h[c.B])
		f := Vec.Scale(c.Normal, mag)
		vel[c.A] = Vec.Sub(vel[c.A], f)
		vel[c.B] = Vec.Add(vel[c.B], f)
	}
}

// solveDamping removes inward normal velocity at every body or
// particle contact (spec.md §4.4 "Damping").
func (s *System) solveDamping(step Step) {
	vel := s.velocity.Slice()
	pos := s.position.Slice()
	linear := s.cfg.Damping
	quad := s.cfg.QuadraticDamping

	for _, bc := range s.bodyContacts {
		a := bc.Index
		relVel := vel[a]
		if bc.Body != nil {
			relVel = Vec.Sub(vel[a], bc.Body.GetLinearVelocityFromWorldPoint(pos[a]))
		}
		vn := Vec.Dot(relVel, bc.Normal)
		if vn >= 0 {
			continue
		}
		damping := math.Max(linear*bc.Weight, math.Min(-quad*vn, 0.5))
		f := Vec.Scale(bc.Normal, damping*bc.Mass*vn)
		invAm := s.GetParticleInvMass()
		vel[a] = Vec.Sub(vel[a], Vec.Scale(f, invAm))
		if bc.Body != nil {
			bc.Body.ApplyLinearImpulse(f, pos[a], true)
		}
	}

	for _, c := range s.contacts {
		relVel := Vec.Sub(vel[c.B], vel[c.A])
		vn := Vec.Dot(relVel, c.Normal)
		if vn >= 0 {
			continue
		}
		damping := math.Max(linear*c.Weight, math.Min(-quad*vn, 0.5))
		f := Vec.Scale(c.Normal, damping*vn)
		vel[c.A] = Vec.Add(vel[c.A], f)
		vel[c.B] = Vec.Sub(vel[c.B], f)
	}
}

// solveExtraDamping applies an unconditional 0.5 damping coefficient
// to body contacts of extra-damping-flagged particles (spec.md §4.4
// "Extra damping").
func (s *System) solveExtraDamping(step Step) {
	if !s.allParticleFlags.Has(extraDampingFlags) {
		return
	}
	fl := s.flags.Slice()
	vel := s.velocity.Slice()
	pos := s.position.Slice()

	for _, bc := range s.bodyContacts {
		a := bc.Index
		if !fl[a].Has(extraDampingFlags) {
			continue
		}
		relVel := vel[a]
		if bc.Body != nil {
			relVel = Vec.Sub(vel[a], bc.Body.GetLinearVelocityFromWorldPoint(pos[a]))
		}
		vn := Vec.Dot(relVel, bc.Normal)
		if vn >= 0 {
			continue
		}
		f := Vec.Scale(bc.Normal, 0.5*bc.Mass*vn)
		invAm := s.GetParticleInvMass()
		vel[a] = Vec.Sub(vel[a], Vec.Scale(f, invAm))
		if bc.Body != nil {
			bc.Body.ApplyLinearImpulse(f, pos[a], true)
		}
	}
}

// solveElastic corrects each elastic triad's member velocities toward
// the rigid rotation that best realigns their current offsets with
// the reference offsets recorded at group creation (spec.md §4.4
// "Elastic (triads)").
func (s *System) solveElastic(step Step) {
	if !s.allParticleFlags.Has(FlagElastic) {
		return
	}
	pos := s.position.Slice()
	vel := s.velocity.Slice()

	for _, t := range s.triads {
		if !t.Flags.Has(FlagElastic) {
			continue
		}
		pa := Vec.Add(pos[t.A], Vec.Scale(vel[t.A], step.Dt))
		pb := Vec.Add(pos[t.B], Vec.Scale(vel[t.B], step.Dt))
		pc := Vec.Add(pos[t.C], Vec.Scale(vel[t.C], step.Dt))
		mid := Vec.Scale(Vec.Add(Vec.Add(pa, pb), pc), 1.0/3.0)

		rs := Vec.Cross(t.Pa, Vec.Sub(pa, mid)) +
			Vec.Cross(t.Pb, Vec.Sub(pb, mid)) +
			Vec.Cross(t.Pc, Vec.Sub(pc, mid))
		rc := Vec.Dot(t.Pa, Vec.Sub(pa, mid)) +
			Vec.Dot(t.Pb, Vec.Sub(pb, mid)) +
			Vec.Dot(t.Pc, Vec.Sub(pc, mid))
		mag := math.Hypot(rs, rc)
		if mag == 0 {
			continue
		}
		rs, rc = rs/mag, rc/mag

		rotate := func(o Vec.Vec2) Vec.Vec2 {
			return Vec.New(rc*o.X-rs*o.Y, rs*o.X+rc*o.Y)
		}

		strength := t.Strength * s.cfg.ElasticStrength
		vel[t.A] = Vec.Add(vel[t.A], Vec.Scale(Vec.Sub(rotate(t.Pa), Vec.Sub(pa, mid)), strength))
		vel[t.B] = Vec.Add(vel[t.B], Vec.Scale(Vec.Sub(rotate(t.Pb), Vec.Sub(pb, mid)), strength))
		vel[t.C] = Vec.Add(vel[t.C], Vec.Scale(Vec.Sub(rotate(t.Pc), Vec.Sub(pc, mid)), strength))
	}
}

// solveSpring applies a Hookean restoring force along each
// spring-flagged pair toward its recorded rest distance (spec.md
// §4.4 "Spring (pairs)").
func (s *System) solveSpring(step Step) {
	if !s.allParticleFlags.Has(FlagSpring) {
		return
	}
	pos := s.position.Slice()
	vel := s.velocity.Slice()

	for _, p := range s.pairs {
		if !p.Flags.Has(FlagSpring) {
			continue
		}
		pa := Vec.Add(pos[p.A], Vec.Scale(vel[p.A], step.Dt))
		pb := Vec.Add(pos[p.B], Vec.Scale(vel[p.B], step.Dt))
		delta := Vec.Sub(pb, pa)
		r1 := Vec.Length(delta)
		if r1 == 0 {
			continue
		}
		mag := s.cfg.SpringStrength * p.Strength * (p.Distance - r1) / r1
		f := Vec.Scale(delta, mag)
		vel[p.A] = Vec.Sub(vel[p.A], f)
		vel[p.B] = Vec.Add(vel[p.B], f)
	}
}

// limitVelocity clamps every particle's speed to criticalV =
// diameter*inv_dt (spec.md §4.4 "Velocity limit").
func (s *System) limitVelocity(step Step) {
	criticalV := s.diameter * step.InvDt
	criticalVSq := criticalV * criticalV
	vel := s.velocity.Slice()
	for i := 0; i < s.count; i++ {
		if sq := Vec.LengthSquared(vel[i]); sq > criticalVSq {
			vel[i] = Vec.Scale(vel[i], criticalV/math.Sqrt(sq))
		}
	}
}
