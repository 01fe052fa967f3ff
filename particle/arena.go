// Package particle implements the particle-based fluid/soft-body
// solver core: the arena of per-particle buffers, group lifecycle,
// spatial-hash broad-phase, SPH-style force kernels, and zombie
// compaction described end to end in spec.md.
//
// Grounded throughout on andewx-dieselsph/fluid's struct-of-arrays
// particle store and per-kernel-struct solver texture, generalized
// from a 3D pure-fluid simulation to the 2D fluid/rigid-body-coupled
// one this package implements.
package particle

import (
	"fmt"

	"diesel.com/particlesph/config"
	"diesel.com/particlesph/geometry"
	"diesel.com/particlesph/world"

	Vec "diesel.com/particlesph/vector"
)

const minInternalCapacity = 256

// System is the particle arena plus everything derived from it each
// step: proxies, contacts, pairs, triads, and the group list. It is
// the concrete type spec.md §6 calls "the core".
type System struct {
	cfg *config.Definition
	systemDeps

	count            int
	internalCapacity int
	maxCount         int

	flags    *Buffer[Flags]
	position *Buffer[Vec.Vec2]
	velocity *Buffer[Vec.Vec2]
	color    *Buffer[Color]
	userData *Buffer[interface{}]

	weight         []float64
	staticPressure []float64 // lazy
	accumulation   []float64
	accumulation2  []Vec.Vec2 // lazy
	depth          []float64  // lazy
	lifetime       []float64  // lazy, supplemented feature
	groupOf        []*Group

	proxies      []proxy
	contacts     []Contact
	bodyContacts []BodyContact
	pairs        []Pair
	triads       []Triad

	groupList *Group
	groupSeq  int

	allParticleFlags Flags
	allGroupFlags    GroupFlags
	flagsDirty       bool
	zombiePending    bool

	diameter    float64
	invDiameter float64
}

// NewSystem builds an empty particle system against the given host
// world and config. triadSource and listener may be nil; a nil
// triadSource falls back to geometry.BowyerWatson{}.
func NewSystem(cfg *config.Definition, w world.World, triadSource geometry.TriadSource, listener DestructionListener) *System {
	if triadSource == nil {
		triadSource = geometry.BowyerWatson{}
	}
	diameter := 2 * cfg.Radius
	s := &System{
		cfg: cfg,
		systemDeps: systemDeps{
			world:       w,
			triadSource: triadSource,
			listener:    listener,
			scratch:     world.NewScratch(),
		},
		maxCount:    cfg.MaxCount,
		flags:       NewInternalBuffer[Flags](),
		position:    NewInternalBuffer[Vec.Vec2](),
		velocity:    NewInternalBuffer[Vec.Vec2](),
		color:       NewInternalBuffer[Color](),
		userData:    NewInternalBuffer[interface{}](),
		diameter:    diameter,
		invDiameter: 1.0 / diameter,
	}
	return s
}

// Count returns the number of live particles.
func (s *System) Count() int { return s.count }

// Diameter returns 2*radius, the grid-cell side used by the broad-phase.
func (s *System) Diameter() float64 { return s.diameter }

// Flags, Positions, Velocities, Colors, UserData expose the live
// prefix of each per-particle buffer by reference (spec.md §6,
// "Accessor buffers ... by reference").
func (s *System) Flags() []Flags             { return s.flags.Slice()[:s.count] }
func (s *System) Positions() []Vec.Vec2       { return s.position.Slice()[:s.count] }
func (s *System) Velocities() []Vec.Vec2      { return s.velocity.Slice()[:s.count] }
func (s *System) Colors() []Color             { return s.color.Slice()[:s.count] }
func (s *System) UserDatas() []interface{}    { return s.userData.Slice()[:s.count] }
func (s *System) Groups() []*Group            { return s.groupOf[:s.count] }
func (s *System) Weights() []float64          { return s.weight[:s.count] }
func (s *System) GroupOf(i int) *Group        { return s.groupOf[i] }

// SetParticleFlagsBuffer, SetParticlePositionBuffer, etc. install a
// host-owned fixed-capacity buffer for the corresponding per-particle
// array (spec.md §4.1, "Buffer replacement"). The core never grows or
// frees the supplied slice; future internal growth is clamped to the
// minimum of all external capacities.
func (s *System) SetParticleFlagsBuffer(buf []Flags)          { s.flags.SetExternal(buf) }
func (s *System) SetParticlePositionBuffer(buf []Vec.Vec2)    { s.position.SetExternal(buf) }
func (s *System) SetParticleVelocityBuffer(buf []Vec.Vec2)    { s.velocity.SetExternal(buf) }
func (s *System) SetParticleColorBuffer(buf []Color)          { s.color.SetExternal(buf) }
func (s *System) SetParticleUserDataBuffer(buf []interface{}) { s.userData.SetExternal(buf) }

// SetMaxCount bounds the arena at n particles; 0 means unbounded
// (subject only to external buffer capacities).
func (s *System) SetMaxCount(n int) { s.maxCount = n }

// minExternalCap returns the smallest capacity among buffers that are
// currently externally owned, or -1 if none are.
func (s *System) minExternalCap() int {
	cap := -1
	track := func(b interface{ IsExternal() bool }, c int) {
		if b.IsExternal() {
			if cap == -1 || c < cap {
				cap = c
			}
		}
	}
	track(s.flags, s.flags.Cap())
	track(s.position, s.position.Cap())
	track(s.velocity, s.velocity.Cap())
	track(s.color, s.color.Cap())
	track(s.userData, s.userData.Cap())
	return cap
}

// growCapacityFor ensures every buffer (and the parallel internal
// slices) can hold at least n particles, honoring the minimum
// external capacity and maxCount (spec.md §4.1, §7 CapacityExhausted).
func (s *System) growCapacityFor(n int) error {
	if n <= s.internalCapacity {
		return nil
	}
	newCap := s.internalCapacity
	if newCap == 0 {
		newCap = s.cfg.MinParticleBufferCapacity
		if newCap <= 0 {
			newCap = minInternalCapacity
		}
	}
	for newCap < n {
		newCap *= 2
	}
	if extCap := s.minExternalCap(); extCap >= 0 && newCap > extCap {
		newCap = extCap
	}
	if s.maxCount > 0 && newCap > s.maxCount {
		newCap = s.maxCount
	}
	if newCap < n {
		return ErrCapacityExhausted
	}
	if err := s.flags.EnsureCapacity(newCap); err != nil {
		return err
	}
	if err := s.position.EnsureCapacity(newCap); err != nil {
		return err
	}
	if err := s.velocity.EnsureCapacity(newCap); err != nil {
		return err
	}
	if err := s.color.EnsureCapacity(newCap); err != nil {
		return err
	}
	if err := s.userData.EnsureCapacity(newCap); err != nil {
		return err
	}
	s.weight = growFloat(s.weight, newCap)
	s.accumulation = growFloat(s.accumulation, newCap)
	if s.staticPressure != nil {
		s.staticPressure = growFloat(s.staticPressure, newCap)
	}
	if s.accumulation2 != nil {
		s.accumulation2 = growVec(s.accumulation2, newCap)
	}
	if s.depth != nil {
		s.depth = growFloat(s.depth, newCap)
	}
	if s.lifetime != nil {
		s.lifetime = growFloat(s.lifetime, newCap)
	}
	s.groupOf = growGroupPtr(s.groupOf, newCap)
	if s.internalCapacity != newCap {
		Logf("particle: grew arena capacity to %d", newCap)
	}
	s.internalCapacity = newCap
	return nil
}

func growFloat(s []float64, n int) []float64 {
	if len(s) >= n {
		return s
	}
	grown := make([]float64, n)
	copy(grown, s)
	return grown
}

func growVec(s []Vec.Vec2, n int) []Vec.Vec2 {
	if len(s) >= n {
		return s
	}
	grown := make([]Vec.Vec2, n)
	copy(grown, s)
	return grown
}

func growGroupPtr(s []*Group, n int) []*Group {
	if len(s) >= n {
		return s
	}
	grown := make([]*Group, n)
	copy(grown, s)
	return grown
}

// ensureStaticPressure, ensureAccumulation2, ensureDepth, and
// ensureLifetime lazily allocate the optional buffers spec.md §3
// names: they are only materialized once something actually needs
// them, per §9's "Lazy buffer allocation" design note.
func (s *System) ensureStaticPressure() {
	if s.staticPressure == nil {
		s.staticPressure = make([]float64, s.internalCapacity)
	}
}

func (s *System) ensureAccumulation2() {
	if s.accumulation2 == nil {
		s.accumulation2 = make([]Vec.Vec2, s.internalCapacity)
	}
}

func (s *System) ensureDepth() {
	if s.depth == nil {
		s.depth = make([]float64, s.internalCapacity)
	}
}

func (s *System) ensureLifetime() {
	if s.lifetime == nil {
		s.lifetime = make([]float64, s.internalCapacity)
	}
}

// CreateParticle adds a particle to the arena and returns its index,
// or InvalidIndex if the arena cannot grow to fit it (spec.md §4.1).
func (s *System) CreateParticle(def ParticleDef) int {
	if s.world != nil && s.world.IsLocked() {
		return InvalidIndex
	}
	if err := s.growCapacityFor(s.count + 1); err != nil {
		return InvalidIndex
	}
	i := s.count
	s.count++

	s.flags.Slice()[i] = def.Flags
	s.position.Slice()[i] = def.Position
	s.velocity.Slice()[i] = def.Velocity
	s.weight[i] = 0
	s.accumulation[i] = 0
	if s.staticPressure != nil {
		s.staticPressure[i] = 0
	}
	if s.depth != nil {
		s.depth[i] = 0
	}
	s.groupOf[i] = def.group

	if def.Color != (Color{}) {
		s.ensureColorBuffer()
	}
	s.color.Slice()[i] = defaultIfZero(def.Color)

	if def.UserData != nil {
		s.userData.Slice()[i] = def.UserData
	}

	if def.Lifetime > 0 {
		s.ensureLifetime()
		s.lifetime[i] = def.Lifetime
	} else if s.lifetime != nil {
		s.lifetime[i] = 0
	}

	s.proxies = append(s.proxies, proxy{index: int32(i), tag: 0})

	s.setParticleFlags(i, def.Flags)
	return i
}

func defaultIfZero(c Color) Color {
	if c == (Color{}) {
		return DefaultColor
	}
	return c
}

// ensureColorBuffer fills already-live particles with the default
// color the first time any particle actually sets one, so reads
// before this point and after it agree on what an unset color means.
func (s *System) ensureColorBuffer() {
	sl := s.color.Slice()
	for i := 0; i < s.count; i++ {
		if sl[i] == (Color{}) {
			sl[i] = DefaultColor
		}
	}
}

// setParticleFlags applies newFlags to particle i, lazily allocating
// any buffer the new flags require (accumulation2 for tensile/elastic
// particles) and marking the union-flag cache dirty.
func (s *System) setParticleFlags(i int, newFlags Flags) {
	s.flags.Slice()[i] = newFlags
	if newFlags.Any(FlagTensile | FlagElastic) {
		s.ensureAccumulation2()
	}
	if newFlags.Has(FlagStaticPressure) {
		s.ensureStaticPressure()
	}
	if newFlags.Has(FlagZombie) {
		s.zombiePending = true
	}
	s.flagsDirty = true
}

// SetParticleFlags is the public form of setParticleFlags.
func (s *System) SetParticleFlags(i int, f Flags) { s.setParticleFlags(i, f) }

// DestroyParticle marks index i zombie; actual removal happens on the
// next Solve (spec.md §4.1).
func (s *System) DestroyParticle(i int, callListener bool) {
	if s.world != nil && s.world.IsLocked() {
		return
	}
	f := s.flags.Slice()[i] | FlagZombie
	if callListener {
		f |= FlagDestructionListener
	}
	s.setParticleFlags(i, f)
}

// DestroyParticlesInShape marks zombie every live particle whose
// position the shape (in world space via xf) contains, returning the
// count marked (spec.md §4.1).
func (s *System) DestroyParticlesInShape(shape geometry.Shape, xf geometry.Transform, callListener bool) int {
	if s.world != nil && s.world.IsLocked() {
		return 0
	}
	n := 0
	pos := s.position.Slice()
	fl := s.flags.Slice()
	for i := 0; i < s.count; i++ {
		if fl[i].Has(FlagZombie) {
			continue
		}
		if shape.TestPoint(xf, pos[i]) {
			s.DestroyParticle(i, callListener)
			n++
		}
	}
	return n
}

// GetParticleInvMass reproduces the original's hard-coded inverse
// mass constant bit for bit (spec.md §9): the source uses 1.777777
// (~16/9) rather than 1/(density*stride^2), and this is an
// intentionally preserved quirk, not a bug to fix.
func (s *System) GetParticleInvMass() float64 {
	return 1.777777
}

// String renders a short diagnostic summary, useful in test failures.
func (s *System) String() string {
	return fmt.Sprintf("particle.System{count=%d cap=%d}", s.count, s.internalCapacity)
}
