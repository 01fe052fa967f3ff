package particle

import (
	"math"

	Vec "diesel.com/particlesph/vector"
)

// Step describes one external timestep passed to Solve (spec.md §4.4).
type Step struct {
	Dt                 float64
	InvDt              float64
	ParticleIterations int
}

// subStep returns the n-way-subdivided step used inside one of
// ParticleIterations sub-iterations.
func (st Step) subStep(n int) Step {
	return Step{Dt: st.Dt / float64(n), InvDt: st.InvDt * float64(n), ParticleIterations: n}
}

// Solve advances the system by one external timestep (spec.md §4.4).
// Kernels run in the fixed order the spec mandates; each is skipped
// when the union-flag cache shows no live particle needs it.
func (s *System) Solve(step Step) {
	if s.world != nil && s.world.IsLocked() {
		return
	}
	if s.zombiePending {
		s.solveZombie()
		s.zombiePending = false
	}
	s.refreshFlagCache()
	s.applyLifetimes(step.Dt)

	// A zero-length step compacts zombies but advances nothing: with
	// InvDt = 0, limitVelocity's critical velocity would be 0 and clamp
	// every velocity to zero.
	if step.Dt == 0 {
		return
	}

	n := step.ParticleIterations
	if n <= 0 {
		n = 1
	}
	sub := step.subStep(n)

	for it := 0; it < n; it++ {
		s.updateBodyContacts()
		s.updateContacts(false)
		s.computeWeight()

		if s.anyGroupNeedsDepth() {
			s.computeDepth()
		}

		s.solveViscous(sub)
		s.solvePowder(sub)
		s.solveTensile(sub)
		s.solveSolid(sub)
		s.solveColorMixing(sub)
		s.solveGravity(sub)
		s.solveStaticPressure(sub)
		s.solvePressure(sub)
		s.solveDamping(sub)
		s.solveExtraDamping(sub)
		s.solveElastic(sub)
		s.solveSpring(sub)
		s.limitVelocity(sub)
		s.solveBarrier(sub)
		s.solveCollision(sub)
		s.solveRigid(sub)
		s.solveWall(sub)

		s.integrate(sub)
	}
}

// refreshFlagCache recomputes the union of every live particle's
// flags and every group's flags, used to skip whole kernels cheaply
// (spec.md §4.4 "skipped when its guard flag is unset").
func (s *System) refreshFlagCache() {
	if !s.flagsDirty {
		return
	}
	var all Flags
	fl := s.flags.Slice()
	for i := 0; i < s.count; i++ {
		all |= fl[i]
	}
	s.allParticleFlags = all

	var allG GroupFlags
	for g := s.groupList; g != nil; g = g.next {
		allG |= g.flags
	}
	s.allGroupFlags = allG
	s.flagsDirty = false
}

func (s *System) anyGroupNeedsDepth() bool {
	for g := s.groupList; g != nil; g = g.next {
		if g.flags.Has(GroupNeedsUpdateDepth) {
			return true
		}
	}
	return false
}

// integrate advances every live particle's position by v*dt
// (spec.md §4.4 step 3d).
func (s *System) integrate(step Step) {
	pos := s.position.Slice()
	vel := s.velocity.Slice()
	for i := 0; i < s.count; i++ {
		pos[i] = Vec.Add(pos[i], Vec.Scale(vel[i], step.Dt))
	}
}

// applyLifetimes counts down the supplemented per-particle lifetime
// buffer (SPEC_FULL.md, from original_source's SetParticleLifetime)
// and marks expired particles zombie.
func (s *System) applyLifetimes(dt float64) {
	if s.lifetime == nil {
		return
	}
	fl := s.flags.Slice()
	for i := 0; i < s.count; i++ {
		if s.lifetime[i] <= 0 {
			continue
		}
		s.lifetime[i] -= dt
		if s.lifetime[i] <= 0 {
			s.setParticleFlags(i, fl[i]|FlagZombie)
		}
	}
}

// SetParticleLifetime sets particle i's remaining time to live; 0
// disables expiration.
func (s *System) SetParticleLifetime(i int, seconds float64) {
	s.ensureLifetime()
	s.lifetime[i] = seconds
}

// ParticleLifetime returns particle i's remaining time to live, or 0
// if it never expires on its own.
func (s *System) ParticleLifetime(i int) float64 {
	if s.lifetime == nil {
		return 0
	}
	return s.lifetime[i]
}

// computeWeight zeros and recomputes every particle's accumulated
// weight from the current contact sets (spec.md §4.4 "Weight").
func (s *System) computeWeight() {
	for i := 0; i < s.count; i++ {
		s.weight[i] = 0
	}
	for _, bc := range s.bodyContacts {
		s.weight[bc.Index] += bc.Weight
	}
	for _, c := range s.contacts {
		s.weight[c.A] += c.Weight
		s.weight[c.B] += c.Weight
	}
}

// computeDepth relaxes each solid group's per-particle depth toward
// the graph distance to the group's surface (spec.md §4.4 "Depth").
func (s *System) computeDepth() {
	s.ensureDepth()
	fl := s.flags.Slice()

	// The filtered solid-contact index list is O(contactCount) scratch
	// (spec.md §5/§9), allocated from the host's stack allocator and
	// freed in LIFO order before this call returns on every path.
	idxBuf := s.scratch.AllocateInts(len(s.contacts))
	defer s.scratch.FreeInts(idxBuf)
	n := 0
	for ci, c := range s.contacts {
		ga, gb := s.groupOf[c.A], s.groupOf[c.B]
		if ga == nil || ga != gb || !ga.flags.Has(GroupSolid) {
			continue
		}
		idxBuf[n] = ci
		n++
	}
	solidContacts := idxBuf[:n]

	for i := 0; i < s.count; i++ {
		if fl[i].Has(FlagZombie) {
			continue
		}
		if s.weight[i] < 0.8 {
			s.depth[i] = 0
		} else {
			s.depth[i] = math.Inf(1)
		}
	}

	iterations := int(math.Sqrt(float64(s.count)))
	for it := 0; it < iterations; it++ {
		updated := false
		for _, ci := range solidContacts {
			c := s.contacts[ci]
			rest := 1 - c.Weight
			if cand := s.depth[c.B] + rest; cand < s.depth[c.A] {
				s.depth[c.A] = cand
				updated = true
			}
			if cand := s.depth[c.A] + rest; cand < s.depth[c.B] {
				s.depth[c.B] = cand
				updated = true
			}
		}
		if !updated {
			break
		}
	}

	for i := 0; i < s.count; i++ {
		if math.IsInf(s.depth[i], 1) {
			s.depth[i] = 0
		} else {
			s.depth[i] *= s.diameter
		}
	}

	for g := s.groupList; g != nil; g = g.next {
		g.flags &^= GroupNeedsUpdateDepth
	}
}
