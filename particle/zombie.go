package particle

// permute is a pure oldIndex -> newIndex function, negative for
// indices that no longer exist. It is the single abstraction spec.md
// §9 calls "the single most error-prone pattern to reproduce": every
// index-bearing structure (proxies, contacts, body contacts, pairs,
// triads, group ranges) is rewritten through it in one pass.
type permute func(old int) int

// applyPermutation rewrites every index-bearing structure's indices
// through perm, dropping any entry that now references a removed
// index (perm(old) < 0). It does not touch group ranges: rotateBuffer
// and solveZombie need different remap rules for those (see
// remapGroupRangesMoved and remapGroupRangesCompacted below) and call
// whichever applies after this returns.
func (s *System) applyPermutation(perm permute) {
	proxies := s.proxies[:0]
	for _, p := range s.proxies {
		if ni := perm(int(p.index)); ni >= 0 {
			p.index = int32(ni)
			proxies = append(proxies, p)
		}
	}
	s.proxies = proxies

	contacts := s.contacts[:0]
	for _, c := range s.contacts {
		na, nb := perm(c.A), perm(c.B)
		if na < 0 || nb < 0 {
			continue
		}
		c.A, c.B = na, nb
		if c.A > c.B {
			c.A, c.B = c.B, c.A
		}
		contacts = append(contacts, c)
	}
	s.contacts = contacts

	bodyContacts := s.bodyContacts[:0]
	for _, bc := range s.bodyContacts {
		if ni := perm(bc.Index); ni >= 0 {
			bc.Index = ni
			bodyContacts = append(bodyContacts, bc)
		}
	}
	s.bodyContacts = bodyContacts

	pairs := s.pairs[:0]
	for _, p := range s.pairs {
		na, nb := perm(p.A), perm(p.B)
		if na < 0 || nb < 0 {
			continue
		}
		p.A, p.B = na, nb
		pairs = append(pairs, p)
	}
	s.pairs = pairs

	triads := s.triads[:0]
	for _, t := range s.triads {
		na, nb, nc := perm(t.A), perm(t.B), perm(t.C)
		if na < 0 || nb < 0 || nc < 0 {
			continue
		}
		t.A, t.B, t.C = na, nb, nc
		triads = append(triads, t)
	}
	s.triads = triads
}

// remapGroupRangesMoved remaps every group's [firstIndex,lastIndex)
// through perm by mapping just its two endpoints. Correct only when
// perm moves particles around without removing any, i.e. for
// rotateBuffer's block swap, which preserves relative order within
// each block and never drops an index.
func (s *System) remapGroupRangesMoved(perm permute) {
	for g := s.groupList; g != nil; g = g.next {
		if g.lastIndex <= g.firstIndex {
			continue
		}
		nf, nl := perm(g.firstIndex), perm(g.lastIndex-1)
		if nf < 0 || nl < 0 {
			g.firstIndex, g.lastIndex = 0, 0
			continue
		}
		g.firstIndex, g.lastIndex = nf, nl+1
	}
}

// remapGroupRangesCompacted remaps every group's [firstIndex,lastIndex)
// to [min,max+1) over the new indices of its surviving original
// members, per spec.md §4.5 ("recompute firstIndex = min(newIndex[i]),
// lastIndex = max(newIndex[i])+1 over its original range"). Unlike
// remapGroupRangesMoved, this tolerates a group losing its first or
// last member to zombie removal without wrongly emptying the group;
// it empties a group only when none of its members survived.
func (s *System) remapGroupRangesCompacted(newIndex []int) {
	for g := s.groupList; g != nil; g = g.next {
		if g.lastIndex <= g.firstIndex {
			continue
		}
		lo, hi := -1, -1
		for old := g.firstIndex; old < g.lastIndex; old++ {
			ni := newIndex[old]
			if ni < 0 {
				continue
			}
			if lo < 0 || ni < lo {
				lo = ni
			}
			if ni > hi {
				hi = ni
			}
		}
		if lo < 0 {
			g.firstIndex, g.lastIndex = 0, 0
			continue
		}
		g.firstIndex, g.lastIndex = lo, hi+1
	}
}

// rotateBuffer rotates the two subranges [start,mid) and [mid,end) so
// the second precedes the first, applying the induced permutation to
// every per-particle buffer and every index-bearing structure
// (spec.md §4.5, §9).
func (s *System) rotateBuffer(start, mid, end int) {
	if start >= mid || mid >= end {
		return
	}
	leftLen := mid - start
	rightLen := end - mid

	perm := func(old int) int {
		switch {
		case old < start || old >= end:
			return old
		case old < mid:
			return old + rightLen
		default:
			return old - leftLen
		}
	}

	permuteSlice(s.flags.Slice(), start, end, perm)
	permuteSlice(s.position.Slice(), start, end, perm)
	permuteSlice(s.velocity.Slice(), start, end, perm)
	permuteSlice(s.color.Slice(), start, end, perm)
	permuteSlice(s.userData.Slice(), start, end, perm)
	permuteSlice(s.weight, start, end, perm)
	permuteSlice(s.accumulation, start, end, perm)
	if s.staticPressure != nil {
		permuteSlice(s.staticPressure, start, end, perm)
	}
	if s.accumulation2 != nil {
		permuteSlice(s.accumulation2, start, end, perm)
	}
	if s.depth != nil {
		permuteSlice(s.depth, start, end, perm)
	}
	if s.lifetime != nil {
		permuteSlice(s.lifetime, start, end, perm)
	}
	permuteSlice(s.groupOf, start, end, perm)

	s.applyPermutation(perm)
	s.remapGroupRangesMoved(perm)
}

// permuteSlice moves data[start:end] into the positions perm assigns,
// leaving everything outside [start,end) untouched.
func permuteSlice[T any](data []T, start, end int, perm permute) {
	if end > len(data) {
		end = len(data)
	}
	tmp := make([]T, end-start)
	for old := start; old < end; old++ {
		tmp[perm(old)-start] = data[old]
	}
	copy(data[start:end], tmp)
}

// solveZombie compacts out every zombie-flagged particle, rewriting
// every index-bearing structure through the resulting dense
// oldIndex->newIndex map, then destroys any group left empty without
// canBeEmpty (spec.md §4.5).
//
// Splitting a group into disconnected subgroups on compaction is not
// implemented, matching the source's own TODO ("flag to split if
// needed") per spec.md §9's explicit instruction to preserve that
// omission.
func (s *System) solveZombie() {
	fl := s.flags.Slice()
	// newIndex is O(count) scratch (spec.md §5/§9), allocated from the
	// host's stack allocator and freed in LIFO order on every exit path,
	// including the early idempotent return below.
	newIndex := s.scratch.AllocateInts(s.count)
	defer s.scratch.FreeInts(newIndex)
	dst := 0
	for i := 0; i < s.count; i++ {
		if fl[i].Has(FlagZombie) {
			if fl[i].Has(FlagDestructionListener) && s.listener != nil {
				s.listener.SayGoodbyeParticle(i)
			}
			newIndex[i] = -1
			continue
		}
		newIndex[i] = dst
		dst++
	}

	if dst == s.count {
		return // nothing to do; idempotent (spec.md §8 property 8)
	}

	permuteCompact(s.flags.Slice(), newIndex, s.count)
	permuteCompact(s.position.Slice(), newIndex, s.count)
	permuteCompact(s.velocity.Slice(), newIndex, s.count)
	permuteCompact(s.color.Slice(), newIndex, s.count)
	permuteCompact(s.userData.Slice(), newIndex, s.count)
	permuteCompact(s.weight, newIndex, s.count)
	permuteCompact(s.accumulation, newIndex, s.count)
	if s.staticPressure != nil {
		permuteCompact(s.staticPressure, newIndex, s.count)
	}
	if s.accumulation2 != nil {
		permuteCompact(s.accumulation2, newIndex, s.count)
	}
	if s.depth != nil {
		permuteCompact(s.depth, newIndex, s.count)
	}
	if s.lifetime != nil {
		permuteCompact(s.lifetime, newIndex, s.count)
	}
	permuteCompact(s.groupOf, newIndex, s.count)

	perm := permute(func(old int) int {
		if old < 0 || old >= len(newIndex) {
			return -1
		}
		return newIndex[old]
	})
	s.applyPermutation(perm)
	s.remapGroupRangesCompacted(newIndex)

	s.count = dst

	var destroyed []*Group
	for g := s.groupList; g != nil; g = g.next {
		if g.lastIndex < g.firstIndex {
			g.lastIndex = g.firstIndex
		}
		if g.lastIndex == g.firstIndex && !g.flags.Has(GroupCanBeEmpty) {
			g.flags |= GroupWillBeDestroyed
			destroyed = append(destroyed, g)
		} else if g.flags.Has(GroupSolid) {
			g.flags |= GroupNeedsUpdateDepth
		}
	}
	for _, g := range destroyed {
		s.DestroyGroup(g, true)
	}
}

// permuteCompact moves surviving entries (newIndex[old] >= 0) down to
// their dense destination, in place, for old in [0, count).
func permuteCompact[T any](data []T, newIndex []int, count int) {
	for old := 0; old < count; old++ {
		if ni := newIndex[old]; ni >= 0 {
			data[ni] = data[old]
		}
	}
}
