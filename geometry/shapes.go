// Package geometry holds the 2D shape and AABB primitives the particle
// package needs to stamp groups and to describe collider boundaries.
// Rigid body fixtures themselves belong to the host world (see the
// world package); this package only describes shape geometry.
package geometry

import (
	Vec "diesel.com/particlesph/vector"
)

const epsilon = 0.00001

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec.Vec2
}

// NewAABB builds an AABB from its corners.
func NewAABB(min, max Vec.Vec2) AABB {
	return AABB{Min: min, Max: max}
}

// Overlaps reports whether aabb and other intersect.
func (aabb AABB) Overlaps(other AABB) bool {
	return aabb.Min.X <= other.Max.X && aabb.Max.X >= other.Min.X &&
		aabb.Min.Y <= other.Max.Y && aabb.Max.Y >= other.Min.Y
}

// Contains reports whether point lies within the box, inclusive.
func (aabb AABB) Contains(point Vec.Vec2) bool {
	return point.X >= aabb.Min.X && point.X <= aabb.Max.X &&
		point.Y >= aabb.Min.Y && point.Y <= aabb.Max.Y
}

// Expand returns aabb grown by margin on every side.
func (aabb AABB) Expand(margin float64) AABB {
	m := Vec.Splat(margin)
	return AABB{Min: Vec.Sub(aabb.Min, m), Max: Vec.Add(aabb.Max, m)}
}

// Center returns the midpoint of the box.
func (aabb AABB) Center() Vec.Vec2 {
	return Vec.Scale(Vec.Add(aabb.Min, aabb.Max), 0.5)
}

// Union returns the smallest AABB containing both boxes.
func Union(a, b AABB) AABB {
	return AABB{
		Min: Vec.New(min64(a.Min.X, b.Min.X), min64(a.Min.Y, b.Min.Y)),
		Max: Vec.New(max64(a.Max.X, b.Max.X), max64(a.Max.Y, b.Max.Y)),
	}
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// ShapeType enumerates the concrete shape kinds a host world can hand
// the particle package. Mirrors spec.md's §6 shape surface
// (GetType/GetChildCount/ComputeAABB/TestPoint, plus the chain/edge
// vertex accessors).
type ShapeType int

const (
	ShapeTypeCircle ShapeType = iota
	ShapeTypePolygon
	ShapeTypeEdge
	ShapeTypeChain
)

// Shape is the geometry surface the particle package consumes when
// stamping a group (CreateParticleGroup) or destroying particles in a
// region (DestroyParticlesInShape). Concrete rigid-body fixtures in
// the host world are expected to expose their collision shape through
// this interface.
type Shape interface {
	GetType() ShapeType
	GetChildCount() int
	ComputeAABB(xf Transform, child int) AABB
	TestPoint(xf Transform, point Vec.Vec2) bool
}

// Transform is a rigid 2D transform: rotation then translation.
type Transform struct {
	Position Vec.Vec2
	Angle    float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{}
}

// Apply maps a local-space point into world space.
func (t Transform) Apply(p Vec.Vec2) Vec.Vec2 {
	return Vec.Add(Vec.Rotate(p, t.Angle), t.Position)
}

// ApplyInverse maps a world-space point into local space.
func (t Transform) ApplyInverse(p Vec.Vec2) Vec.Vec2 {
	return Vec.Rotate(Vec.Sub(p, t.Position), -t.Angle)
}

// CircleShape is a solid disc of the given radius, centered at the
// shape's local origin.
type CircleShape struct {
	Radius float64
}

func NewCircleShape(radius float64) *CircleShape {
	return &CircleShape{Radius: radius}
}

func (c *CircleShape) GetType() ShapeType { return ShapeTypeCircle }
func (c *CircleShape) GetChildCount() int { return 1 }

func (c *CircleShape) ComputeAABB(xf Transform, _ int) AABB {
	center := xf.Apply(Vec.Zero())
	r := Vec.Splat(c.Radius)
	return AABB{Min: Vec.Sub(center, r), Max: Vec.Add(center, r)}
}

func (c *CircleShape) TestPoint(xf Transform, point Vec.Vec2) bool {
	local := xf.ApplyInverse(point)
	return Vec.LengthSquared(local) <= c.Radius*c.Radius
}

// PolygonShape is a convex polygon given by counter-clockwise vertices
// in local space.
type PolygonShape struct {
	Vertices []Vec.Vec2
}

func NewPolygonShape(vertices []Vec.Vec2) *PolygonShape {
	return &PolygonShape{Vertices: vertices}
}

func (p *PolygonShape) GetType() ShapeType { return ShapeTypePolygon }
func (p *PolygonShape) GetChildCount() int { return 1 }

func (p *PolygonShape) ComputeAABB(xf Transform, _ int) AABB {
	lo := xf.Apply(p.Vertices[0])
	hi := lo
	for _, v := range p.Vertices[1:] {
		w := xf.Apply(v)
		lo = Vec.New(min64(lo.X, w.X), min64(lo.Y, w.Y))
		hi = Vec.New(max64(hi.X, w.X), max64(hi.Y, w.Y))
	}
	return AABB{Min: lo, Max: hi}
}

// TestPoint uses the standard winding/half-plane test: a point is
// inside a CCW convex polygon iff it is left of every edge.
func (p *PolygonShape) TestPoint(xf Transform, point Vec.Vec2) bool {
	local := xf.ApplyInverse(point)
	n := len(p.Vertices)
	for i := 0; i < n; i++ {
		a := p.Vertices[i]
		b := p.Vertices[(i+1)%n]
		edge := Vec.Sub(b, a)
		toPoint := Vec.Sub(local, a)
		if Vec.Cross(edge, toPoint) < -epsilon {
			return false
		}
	}
	return true
}

// EdgeShape is a single line segment. Never contains a test point;
// only used for boundary stamping and child-edge queries on chains.
type EdgeShape struct {
	Vertex1, Vertex2 Vec.Vec2
}

func (e *EdgeShape) GetType() ShapeType { return ShapeTypeEdge }
func (e *EdgeShape) GetChildCount() int { return 1 }

func (e *EdgeShape) ComputeAABB(xf Transform, _ int) AABB {
	a, b := xf.Apply(e.Vertex1), xf.Apply(e.Vertex2)
	return AABB{
		Min: Vec.New(min64(a.X, b.X), min64(a.Y, b.Y)),
		Max: Vec.New(max64(a.X, b.X), max64(a.Y, b.Y)),
	}
}

func (e *EdgeShape) TestPoint(Transform, Vec.Vec2) bool { return false }

// ChainShape is an open polyline of connected edges, used for solid
// group boundary stamping (spec.md §4.2: "For each child edge of the
// def's shape at stride s, stamp a particle along the edge").
type ChainShape struct {
	Vertices []Vec.Vec2
}

func (c *ChainShape) GetType() ShapeType { return ShapeTypeChain }
func (c *ChainShape) GetChildCount() int {
	if len(c.Vertices) < 2 {
		return 0
	}
	return len(c.Vertices) - 1
}

// GetChildEdge returns the i'th edge of the chain as an EdgeShape.
func (c *ChainShape) GetChildEdge(i int) EdgeShape {
	return EdgeShape{Vertex1: c.Vertices[i], Vertex2: c.Vertices[i+1]}
}

func (c *ChainShape) ComputeAABB(xf Transform, i int) AABB {
	edge := c.GetChildEdge(i)
	return (&edge).ComputeAABB(xf, 0)
}

func (c *ChainShape) TestPoint(Transform, Vec.Vec2) bool { return false }
