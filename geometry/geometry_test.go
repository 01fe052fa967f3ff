package geometry

import (
	"testing"

	Vec "diesel.com/particlesph/vector"
)

func TestAABBOverlaps(t *testing.T) {
	a := NewAABB(Vec.New(0, 0), Vec.New(1, 1))
	b := NewAABB(Vec.New(0.5, 0.5), Vec.New(2, 2))
	c := NewAABB(Vec.New(5, 5), Vec.New(6, 6))

	if !a.Overlaps(b) {
		t.Errorf("expected a and b to overlap")
	}
	if a.Overlaps(c) {
		t.Errorf("expected a and c to not overlap")
	}
}

func TestAABBExpand(t *testing.T) {
	a := NewAABB(Vec.New(0, 0), Vec.New(1, 1))
	e := a.Expand(0.5)

	if e.Min.X != -0.5 || e.Max.X != 1.5 {
		t.Errorf("expand failed, got min %v max %v", e.Min, e.Max)
	}
}

func TestCircleTestPoint(t *testing.T) {
	c := NewCircleShape(2.0)
	xf := Transform{Position: Vec.New(10, 10)}

	if !c.TestPoint(xf, Vec.New(11, 10)) {
		t.Errorf("expected point inside circle radius")
	}
	if c.TestPoint(xf, Vec.New(13, 10)) {
		t.Errorf("expected point outside circle radius")
	}
}

func TestPolygonTestPoint(t *testing.T) {
	square := NewPolygonShape([]Vec.Vec2{
		{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1},
	})
	xf := Identity()

	if !square.TestPoint(xf, Vec.New(0, 0)) {
		t.Errorf("expected origin inside unit square")
	}
	if square.TestPoint(xf, Vec.New(2, 2)) {
		t.Errorf("expected (2,2) outside unit square")
	}
}

func TestChainChildEdges(t *testing.T) {
	chain := &ChainShape{Vertices: []Vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}}

	if chain.GetChildCount() != 2 {
		t.Errorf("expected 2 child edges, got %d", chain.GetChildCount())
	}
	e := chain.GetChildEdge(1)
	if e.Vertex1 != (Vec.Vec2{X: 1, Y: 0}) || e.Vertex2 != (Vec.Vec2{X: 1, Y: 1}) {
		t.Errorf("unexpected child edge %v", e)
	}
}

func TestBowyerWatsonTriangle(t *testing.T) {
	bw := BowyerWatson{}
	pts := []Vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}

	tris := bw.Triangulate(pts)
	if len(tris) != 1 {
		t.Fatalf("expected exactly one triangle for 3 points, got %d", len(tris))
	}
}

func TestBowyerWatsonSquareGrid(t *testing.T) {
	bw := BowyerWatson{}
	var pts []Vec.Vec2
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			pts = append(pts, Vec.New(float64(i), float64(j)))
		}
	}

	tris := bw.Triangulate(pts)
	if len(tris) == 0 {
		t.Fatalf("expected a non-empty triangulation for a 3x3 grid")
	}
	for _, tri := range tris {
		if tri.A == tri.B || tri.B == tri.C || tri.A == tri.C {
			t.Errorf("degenerate triangle %v", tri)
		}
	}
}
