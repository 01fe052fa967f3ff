package particle

// Flags is the per-particle material/behavior bitfield (spec.md §3).
// The twelve bits below are the ones a host can set directly; the
// *Flags masks further down are derived compositions the solver
// checks internally, mirroring the same split in the original source
// (k_noPressureFlags, k_extraDampingFlags, k_pairFlags, k_triadFlags).
type Flags uint32

const (
	FlagWall Flags = 1 << iota
	FlagElastic
	FlagSpring
	FlagViscous
	FlagPowder
	FlagTensile
	FlagStaticPressure
	FlagColorMixing
	FlagBarrier
	FlagZombie
	FlagReserve
	FlagDestructionListener
	flagCount
)

// Has reports whether f has every bit of other set.
func (f Flags) Has(other Flags) bool { return f&other == other }

// Any reports whether f shares any bit with other.
func (f Flags) Any(other Flags) bool { return f&other != 0 }

const (
	// noPressureFlags names the particles SolvePressure zeroes out
	// ("ignores particles which have their own repulsive force" in
	// the original): powder and tensile particles generate their own
	// separation force and would double up with ordinary pressure.
	noPressureFlags = FlagPowder | FlagTensile

	// extraDampingFlags names the particles SolveExtraDamping runs
	// an unconditional damping pass on, beyond the normal velocity-
	// dependent SolveDamping: static-pressure particles, which would
	// otherwise ring at contact boundaries.
	extraDampingFlags = FlagStaticPressure

	// pairFlags names the particle flags that make a particle-particle
	// contact eligible for pair emission at group creation: spring
	// particles (SolveSpring) and barrier particles (SolveBarrier,
	// which predicts a third particle crossing the pair's segment).
	pairFlags = FlagSpring | FlagBarrier

	// triadFlags names the particle flags that make a Delaunay triple
	// eligible for triad emission at group creation: elastic particles
	// (SolveElastic).
	triadFlags = FlagElastic
)

// GroupFlags is the group-level behavior bitfield (spec.md §3).
type GroupFlags uint32

const (
	GroupSolid GroupFlags = 1 << iota
	GroupRigid
	GroupCanBeEmpty
	GroupWillBeDestroyed
	GroupNeedsUpdateDepth
)

func (f GroupFlags) Has(other GroupFlags) bool { return f&other == other }
func (f GroupFlags) Any(other GroupFlags) bool { return f&other != 0 }
