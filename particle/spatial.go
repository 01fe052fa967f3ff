package particle

import (
	"math"
	"sort"

	Vec "diesel.com/particlesph/vector"
)

// Tag bit layout, confirmed bit-for-bit against
// original_source/liquidfun's b2ParticleSystem::computeTag (see
// SPEC_FULL.md's SUPPLEMENTED FEATURES): 12 truncation bits per axis,
// y in the high bits, x in the low bits, with x carrying extra
// sub-cell resolution via xScale so proxies sort into stable
// cache-friendly rows.
const (
	tagBits    = 32
	xTruncBits = 12
	yTruncBits = 12
	yShift     = tagBits - yTruncBits
	xShift     = tagBits - yTruncBits - xTruncBits
	xScale     = 1 << xShift
	xOffset    = xScale * (1 << (xTruncBits - 1))
	yOffset    = 1 << (yTruncBits - 1)
)

// proxy is a {tag, index} entry enabling the spatial hash / binary
// search broad-phase (spec.md §3, §4.3).
type proxy struct {
	tag   uint32
	index int32
}

// computeTag maps a world-space position to its grid-cell tag,
// converting it to diameter units with invDiameter first.
func computeTag(invDiameter, x, y float64) uint32 {
	gx := x * invDiameter
	gy := y * invDiameter
	return uint32(int32(gy)+yOffset)<<yShift + uint32(int32(xScale*gx)+xOffset)
}

func rightTag(tag uint32) uint32      { return tag + (1 << xShift) }
func bottomLeftTag(tag uint32) uint32 { return tag + (1 << yShift) - (1 << xShift) }
func bottomRightTag(tag uint32) uint32 {
	return tag + (1 << yShift) + (1 << xShift)
}

// updateContacts rebuilds the proxy tags, sorts them, and re-derives
// the particle-particle contact list (spec.md §4.3). When
// exceptZombie is true, contacts touching a zombie particle are
// dropped.
func (s *System) updateContacts(exceptZombie bool) {
	pos := s.position.Slice()
	fl := s.flags.Slice()

	for i := range s.proxies {
		p := pos[s.proxies[i].index]
		s.proxies[i].tag = computeTag(s.invDiameter, p.X, p.Y)
	}
	sort.Slice(s.proxies, func(i, j int) bool {
		if s.proxies[i].tag != s.proxies[j].tag {
			return s.proxies[i].tag < s.proxies[j].tag
		}
		return s.proxies[i].index < s.proxies[j].index
	})

	s.contacts = s.contacts[:0]
	n := len(s.proxies)
	diameterSq := s.diameter * s.diameter

	c := 0
	for a := 0; a < n; a++ {
		pa := s.proxies[a]
		rTag := rightTag(pa.tag)
		for b := a + 1; b < n && s.proxies[b].tag <= rTag; b++ {
			s.tryAddContact(pa.index, s.proxies[b].index, pos, diameterSq)
		}

		blTag := bottomLeftTag(pa.tag)
		for c < n && s.proxies[c].tag < blTag {
			c++
		}
		brTag := bottomRightTag(pa.tag)
		for cc := c; cc < n && s.proxies[cc].tag <= brTag; cc++ {
			if s.proxies[cc].index == pa.index {
				continue
			}
			s.tryAddContact(pa.index, s.proxies[cc].index, pos, diameterSq)
		}
	}

	if exceptZombie {
		kept := s.contacts[:0]
		for _, ct := range s.contacts {
			if (fl[ct.A] | fl[ct.B]).Has(FlagZombie) {
				continue
			}
			kept = append(kept, ct)
		}
		s.contacts = kept
	}
}

// tryAddContact appends a Contact for (ia, ib) if they are within one
// diameter of each other (spec.md §4.3 step 4). Always orders the
// contact with the smaller index first.
func (s *System) tryAddContact(ia, ib int32, pos []Vec.Vec2, diameterSq float64) {
	a, b := int(ia), int(ib)
	if a == b {
		return
	}
	if a > b {
		a, b = b, a
	}
	delta := Vec.Sub(pos[b], pos[a])
	distSq := Vec.LengthSquared(delta)
	if distSq >= diameterSq {
		return
	}
	dist := 0.0
	if distSq > 0 {
		dist = math.Sqrt(distSq)
	}
	var normal Vec.Vec2
	if dist > 0 {
		normal = Vec.Scale(delta, 1.0/dist)
	}
	fl := s.flags.Slice()
	s.contacts = append(s.contacts, Contact{
		A:      a,
		B:      b,
		Flags:  fl[a] | fl[b],
		Weight: 1 - dist/s.diameter,
		Normal: normal,
	})
}
