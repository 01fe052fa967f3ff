package particle

import (
	"diesel.com/particlesph/geometry"

	Vec "diesel.com/particlesph/vector"
)

// Group is a contiguous arena range of particles sharing strength and
// group-level behavior flags (spec.md §3). Groups are doubly linked
// into the system's groupList.
//
// Back-references from a particle to its Group (System.groupOf) are
// modeled as a plain pointer rather than a generational slab handle:
// DestroyGroup sets destroyed so any held pointer can still detect
// staleness (spec.md §9, "invalidate handles on group destruction so
// dangling access is detectable") without the extra indirection of a
// slab index a single-threaded, GC'd language doesn't need.
type Group struct {
	sys *System

	prev, next *Group

	firstIndex, lastIndex int

	flags    GroupFlags
	strength float64
	userData interface{}

	transform       geometry.Transform
	linearVelocity  Vec.Vec2
	angularVelocity float64

	id        int
	destroyed bool
}

// ID returns a per-system monotonically assigned group identifier,
// stable across compaction and rotation, useful for diagnostics
// export and host-side bookkeeping.
func (g *Group) ID() int { return g.id }

// Valid reports whether the group is still live. A pointer to a
// destroyed group remains safe to dereference (Go, not C++) but every
// field on it is stale.
func (g *Group) Valid() bool { return g != nil && !g.destroyed }

// FirstIndex, LastIndex bound the group's arena range [first, last).
func (g *Group) FirstIndex() int { return g.firstIndex }
func (g *Group) LastIndex() int  { return g.lastIndex }
func (g *Group) Count() int      { return g.lastIndex - g.firstIndex }
func (g *Group) Flags() GroupFlags { return g.flags }
func (g *Group) UserData() interface{} { return g.userData }

// ContainsParticle reports whether i falls within the group's range
// and is actually still assigned to it.
func (g *Group) ContainsParticle(i int) bool {
	return g.Valid() && i >= g.firstIndex && i < g.lastIndex && g.sys.groupOf[i] == g
}

// CreateParticleGroup stamps particles over def.Shape (and any
// explicit def.PositionData) and groups them (spec.md §4.2).
//
// Edge/chain shapes are stamped once per child edge; polygon/circle
// shapes are filled on a stride-aligned grid over the shape's AABB,
// keeping only grid points the shape actually contains, matching the
// teacher's BoxFluidSystem.Initialize stride-fill loop generalized to
// arbitrary geometry.Shape.TestPoint.
func (s *System) CreateParticleGroup(def GroupDef) *Group {
	if s.world != nil && s.world.IsLocked() {
		return nil
	}

	stride := def.Stride
	if stride <= 0 {
		stride = s.diameter * s.cfg.ParticleStride
	}

	first := s.count

	stampAt := func(p Vec.Vec2) {
		s.CreateParticle(ParticleDef{
			Flags:    def.Flags,
			Position: p,
			Velocity: def.LinearVelocity,
			Color:    def.Color,
			UserData: def.UserData,
		})
	}

	switch sh := def.Shape.(type) {
	case *geometry.ChainShape:
		for i := 0; i < sh.GetChildCount(); i++ {
			edge := sh.GetChildEdge(i)
			a, b := def.Xf.Apply(edge.Vertex1), def.Xf.Apply(edge.Vertex2)
			stampEdge(a, b, stride, stampAt)
		}
	case *geometry.EdgeShape:
		a, b := def.Xf.Apply(sh.Vertex1), def.Xf.Apply(sh.Vertex2)
		stampEdge(a, b, stride, stampAt)
	default:
		if def.Shape != nil {
			stampFill(def.Shape, def.Xf, stride, stampAt)
		}
	}

	for _, p := range def.PositionData {
		stampAt(p)
	}

	last := s.count
	g := &Group{
		sys:             s,
		firstIndex:      first,
		lastIndex:       last,
		flags:           def.GroupFlags,
		strength:        def.Strength,
		userData:        def.UserData,
		transform:       def.Xf,
		linearVelocity:  def.LinearVelocity,
		angularVelocity: def.AngularVelocity,
	}
	if g.strength == 0 {
		g.strength = 1
	}
	s.groupSeq++
	g.id = s.groupSeq
	s.linkGroup(g)
	for i := first; i < last; i++ {
		s.groupOf[i] = g
	}

	s.updateContacts(true)
	s.updatePairsAndTriads(first, last, g, g)

	if g.flags.Has(GroupSolid) {
		g.flags |= GroupNeedsUpdateDepth
	}
	return g
}

func stampEdge(a, b Vec.Vec2, stride float64, emit func(Vec.Vec2)) {
	length := Vec.Distance(a, b)
	if length == 0 {
		emit(a)
		return
	}
	n := int(length/stride) + 1
	dir := Vec.Scale(Vec.Sub(b, a), 1.0/float64(n))
	for i := 0; i <= n; i++ {
		emit(Vec.Add(a, Vec.Scale(dir, float64(i))))
	}
}

func stampFill(shape geometry.Shape, xf geometry.Transform, stride float64, emit func(Vec.Vec2)) {
	aabb := shape.ComputeAABB(xf, 0)
	for y := aabb.Min.Y; y <= aabb.Max.Y; y += stride {
		for x := aabb.Min.X; x <= aabb.Max.X; x += stride {
			p := Vec.New(x, y)
			if shape.TestPoint(xf, p) {
				emit(p)
			}
		}
	}
}

// linkGroup pushes g onto the head of the group list.
func (s *System) linkGroup(g *Group) {
	g.next = s.groupList
	if s.groupList != nil {
		s.groupList.prev = g
	}
	s.groupList = g
}

func (s *System) unlinkGroup(g *Group) {
	if g.prev != nil {
		g.prev.next = g.next
	} else {
		s.groupList = g.next
	}
	if g.next != nil {
		g.next.prev = g.prev
	}
	g.prev, g.next = nil, nil
}

// GroupList returns the head of the group list; follow Next to walk
// it head to tail.
func (s *System) GroupList() *Group { return s.groupList }

// Next returns the next group in the system's list, or nil at the tail.
func (g *Group) Next() *Group { return g.next }

// DestroyGroup notifies the destruction listener, clears every
// member's group back-reference, unlinks g, and releases it
// (spec.md §4.2).
func (s *System) DestroyGroup(g *Group, callListener bool) {
	if !g.Valid() {
		return
	}
	if callListener && s.listener != nil {
		s.listener.SayGoodbyeGroup(g)
	}
	for i := g.firstIndex; i < g.lastIndex; i++ {
		if s.groupOf[i] == g {
			s.groupOf[i] = nil
		}
	}
	s.unlinkGroup(g)
	g.destroyed = true
}

// JoinParticleGroups merges b into a: b's range is rotated adjacent to
// a's, flags merge, a's range extends to cover b's particles, and b is
// destroyed (spec.md §4.2).
func (s *System) JoinParticleGroups(a, b *Group) error {
	if !a.Valid() || !b.Valid() {
		return ErrInvalidGroup
	}
	if a == b {
		return ErrInvalidGroup
	}
	if s.world != nil && s.world.IsLocked() {
		return nil
	}

	// Bring b's range adjacent to a's via one rotation of the gap
	// between them (spec.md §4.2); rotateBuffer itself rewrites every
	// index-bearing structure, including both groups' ranges, through
	// the induced permutation, so a/b's fields already reflect the new
	// layout once it returns.
	if a.lastIndex < b.firstIndex {
		s.rotateBuffer(a.lastIndex, b.firstIndex, b.lastIndex)
	} else if b.lastIndex < a.firstIndex {
		s.rotateBuffer(b.lastIndex, a.firstIndex, a.lastIndex)
	}
	// else: already adjacent in either order, nothing to rotate.

	first := a.firstIndex
	last := b.lastIndex
	if b.firstIndex < a.firstIndex {
		first = b.firstIndex
		last = a.lastIndex
	}

	a.flags |= b.flags
	if b.strength < a.strength {
		a.strength = b.strength
	}
	a.firstIndex = first
	a.lastIndex = last

	for i := first; i < last; i++ {
		s.groupOf[i] = a
	}

	s.DestroyGroup(b, false)
	s.updateContacts(true)
	s.updatePairsAndTriads(first, last, a, a)

	if a.flags.Has(GroupSolid) {
		a.flags |= GroupNeedsUpdateDepth
	}
	return nil
}

// updatePairsAndTriads emits pairs and triads over [first,last) whose
// members all belong to A or B (spec.md §4.2). Both callers,
// CreateParticleGroup and JoinParticleGroups (after the merge), pass
// the same group as A and B.
func (s *System) updatePairsAndTriads(first, last int, A, B *Group) {
	for _, c := range s.contacts {
		if !(c.A >= first && c.A < last && c.B >= first && c.B < last) {
			continue
		}
		inA := A.ContainsParticle(c.A) || B.ContainsParticle(c.A)
		inB := A.ContainsParticle(c.B) || B.ContainsParticle(c.B)
		if !(inA && inB) {
			continue
		}
		if !c.Flags.Any(pairFlags) {
			continue
		}
		strength := A.strength
		if B.strength < strength {
			strength = B.strength
		}
		pos := s.position.Slice()
		s.pairs = append(s.pairs, Pair{
			A:        c.A,
			B:        c.B,
			Flags:    c.Flags & pairFlags,
			Strength: strength,
			Distance: Vec.Distance(pos[c.A], pos[c.B]),
		})
	}

	s.emitTriads(first, last, A, B)
}

// emitTriads triangulates the (non-zombie) positions in [first,last)
// and emits a Triad for every Delaunay triple whose members all carry
// triad-eligible flags and whose pairwise distances are all within
// maxTriadDistanceSquared*diameter^2 of each other (spec.md §4.2).
func (s *System) emitTriads(first, last int, A, B *Group) {
	pos := s.position.Slice()
	fl := s.flags.Slice()

	idx := make([]int, 0, last-first)
	pts := make([]Vec.Vec2, 0, last-first)
	for i := first; i < last; i++ {
		if fl[i].Has(FlagZombie) {
			continue
		}
		if !fl[i].Has(triadFlags) {
			continue
		}
		idx = append(idx, i)
		pts = append(pts, pos[i])
	}
	if len(pts) < 3 {
		return
	}

	triples := s.triadSource.Triangulate(pts)
	maxDistSq := s.cfg.MaxTriadDistanceSquared * s.diameter * s.diameter

	for _, t := range triples {
		a, b, c := idx[t.A], idx[t.B], idx[t.C]
		inA := A.ContainsParticle(a) || B.ContainsParticle(a)
		inB := A.ContainsParticle(b) || B.ContainsParticle(b)
		inC := A.ContainsParticle(c) || B.ContainsParticle(c)
		if !(inA && inB && inC) {
			continue
		}
		pa, pb, pc := pos[a], pos[b], pos[c]
		if Vec.DistanceSquared(pa, pb) >= maxDistSq ||
			Vec.DistanceSquared(pb, pc) >= maxDistSq ||
			Vec.DistanceSquared(pc, pa) >= maxDistSq {
			continue
		}

		mid := Vec.Scale(Vec.Add(Vec.Add(pa, pb), pc), 1.0/3.0)
		oa, ob, oc := Vec.Sub(pa, mid), Vec.Sub(pb, mid), Vec.Sub(pc, mid)

		strength := A.strength
		if B.strength < strength {
			strength = B.strength
		}

		s.triads = append(s.triads, Triad{
			A: a, B: b, C: c,
			Flags:    (fl[a] & fl[b] & fl[c]) & triadFlags,
			Strength: strength,
			Pa:       oa, Pb: ob, Pc: oc,
			Ka: Vec.Dot(Vec.Sub(pb, pc), oa),
			Kb: Vec.Dot(Vec.Sub(pc, pa), ob),
			Kc: Vec.Dot(Vec.Sub(pa, pb), oc),
			S:  Vec.Cross(Vec.Sub(pb, pa), Vec.Sub(pc, pa)),
		})
	}
}
