package geometry

import (
	"sort"

	Vec "diesel.com/particlesph/vector"
)

// DelaunayTriple is one triangle of a planar Delaunay triangulation,
// given as indices into the point set that was triangulated.
type DelaunayTriple struct {
	A, B, C int
}

// TriadSource is the external collaborator spec.md §1/§4.2 calls out:
// "the Voronoi diagram generator used once at group-creation". The
// particle package depends on this interface rather than a concrete
// type so a host can swap in a more sophisticated implementation
// (e.g. a true Fortune's-algorithm Voronoi/Delaunay dual); Delaunay
// is what the particle package actually consumes, since spec.md's
// triad emission walks "Delaunay triple[s]" of the point set.
type TriadSource interface {
	// Triangulate returns the Delaunay triangulation of points. Points
	// with duplicate or near-duplicate positions may be skipped.
	Triangulate(points []Vec.Vec2) []DelaunayTriple
}

// BowyerWatson is a reference TriadSource implementation using the
// classic incremental Bowyer-Watson algorithm. It favors clarity over
// performance, appropriate for the modest particle counts (tens to a
// few hundred) a single group is stamped with at creation time.
type BowyerWatson struct{}

type bwTriangle struct {
	a, b, c int // indices into the augmented point list (including super-triangle corners)
}

// Triangulate implements TriadSource.
func (BowyerWatson) Triangulate(points []Vec.Vec2) []DelaunayTriple {
	n := len(points)
	if n < 3 {
		return nil
	}

	// Build a bounding super-triangle comfortably enclosing every point.
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = min64(minX, p.X)
		minY = min64(minY, p.Y)
		maxX = max64(maxX, p.X)
		maxY = max64(maxY, p.Y)
	}
	dx := maxX - minX
	dy := maxY - minY
	deltaMax := max64(dx, dy)
	if deltaMax == 0 {
		deltaMax = 1
	}
	midX := (minX + maxX) / 2
	midY := (minY + maxY) / 2

	augmented := make([]Vec.Vec2, n, n+3)
	copy(augmented, points)
	superA := Vec.New(midX-20*deltaMax, midY-deltaMax)
	superB := Vec.New(midX, midY+20*deltaMax)
	superC := Vec.New(midX+20*deltaMax, midY-deltaMax)
	augmented = append(augmented, superA, superB, superC)
	superIdx := [3]int{n, n + 1, n + 2}

	triangles := []bwTriangle{{superIdx[0], superIdx[1], superIdx[2]}}

	for pi := 0; pi < n; pi++ {
		p := augmented[pi]

		var bad []bwTriangle
		var keep []bwTriangle
		for _, tri := range triangles {
			if circumcircleContains(augmented, tri, p) {
				bad = append(bad, tri)
			} else {
				keep = append(keep, tri)
			}
		}

		type edge struct{ u, v int }
		edgeCount := map[edge]int{}
		normalize := func(u, v int) edge {
			if u > v {
				u, v = v, u
			}
			return edge{u, v}
		}
		for _, tri := range bad {
			edgeCount[normalize(tri.a, tri.b)]++
			edgeCount[normalize(tri.b, tri.c)]++
			edgeCount[normalize(tri.c, tri.a)]++
		}

		triangles = keep
		for e, count := range edgeCount {
			if count == 1 {
				triangles = append(triangles, bwTriangle{e.u, e.v, pi})
			}
		}
	}

	result := make([]DelaunayTriple, 0, len(triangles))
	for _, tri := range triangles {
		if tri.a >= n || tri.b >= n || tri.c >= n {
			continue // touches a super-triangle corner
		}
		result = append(result, DelaunayTriple{A: tri.a, B: tri.b, C: tri.c})
	}

	// Stable order makes triad emission deterministic for tests.
	sort.Slice(result, func(i, j int) bool {
		if result[i].A != result[j].A {
			return result[i].A < result[j].A
		}
		if result[i].B != result[j].B {
			return result[i].B < result[j].B
		}
		return result[i].C < result[j].C
	})

	return result
}

// circumcircleContains reports whether p lies within the circumcircle
// of triangle tri.
func circumcircleContains(points []Vec.Vec2, tri bwTriangle, p Vec.Vec2) bool {
	a, b, c := points[tri.a], points[tri.b], points[tri.c]

	ax, ay := a.X-p.X, a.Y-p.Y
	bx, by := b.X-p.X, b.Y-p.Y
	cx, cy := c.X-p.X, c.Y-p.Y

	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)

	// Orientation of a,b,c determines the sign convention: for a CCW
	// triangle, det > 0 means p is inside the circumcircle.
	orient := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	if orient < 0 {
		det = -det
	}
	return det > 0
}
