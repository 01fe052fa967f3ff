package particle_test

import (
	"diesel.com/particlesph/geometry"
	"diesel.com/particlesph/world"

	Vec "diesel.com/particlesph/vector"
)

// fakeWorld is a minimal world.World good enough to drive the
// particle package's tests without a real rigid-body engine: gravity
// is fixed, locking is togglable, and fixtures are whatever the test
// registers.
type fakeWorld struct {
	gravity  Vec.Vec2
	locked   bool
	fixtures []*fakeFixture
}

func newFakeWorld(gravity Vec.Vec2) *fakeWorld {
	return &fakeWorld{gravity: gravity}
}

func (w *fakeWorld) QueryAABB(cb world.AABBQueryCallback, aabb geometry.AABB) {
	for _, f := range w.fixtures {
		if !f.GetAABB(0).Overlaps(aabb) {
			continue
		}
		if !cb.ReportFixture(f) {
			return
		}
	}
}

func (w *fakeWorld) RayCast(cb world.RayCastCallback, p1, p2 Vec.Vec2) {
	for _, f := range w.fixtures {
		fraction, normal, hit := f.RayCast(p1, p2, 0)
		if !hit {
			continue
		}
		cb.ReportFixture(f, Vec.Add(p1, Vec.Scale(Vec.Sub(p2, p1), fraction)), normal, fraction)
	}
}

func (w *fakeWorld) IsLocked() bool  { return w.locked }
func (w *fakeWorld) Gravity() Vec.Vec2 { return w.gravity }

// fakeBody is a minimal world.Body: a static or kinematic body with
// constant mass/inertia and settable velocity.
type fakeBody struct {
	center          Vec.Vec2
	mass, inertia   float64
	linear          Vec.Vec2
	angular         float64
	appliedImpulses []Vec.Vec2
}

func (b *fakeBody) GetWorldCenter() Vec.Vec2 { return b.center }
func (b *fakeBody) GetLocalCenter() Vec.Vec2 { return Vec.Zero() }
func (b *fakeBody) GetMass() float64         { return b.mass }
func (b *fakeBody) GetInertia() float64      { return b.inertia }
func (b *fakeBody) GetLinearVelocity() Vec.Vec2   { return b.linear }
func (b *fakeBody) GetAngularVelocity() float64   { return b.angular }
func (b *fakeBody) GetLinearVelocityFromWorldPoint(p Vec.Vec2) Vec.Vec2 {
	r := Vec.Sub(p, b.center)
	return Vec.Add(b.linear, Vec.CrossScalar(b.angular, r))
}
func (b *fakeBody) ApplyLinearImpulse(impulse, point Vec.Vec2, wake bool) {
	b.appliedImpulses = append(b.appliedImpulses, impulse)
	if b.mass > 0 {
		b.linear = Vec.Add(b.linear, Vec.Scale(impulse, 1.0/b.mass))
	}
}
func (b *fakeBody) SetLinearVelocity(v Vec.Vec2) { b.linear = v }
func (b *fakeBody) SetAngularVelocity(w float64) { b.angular = w }
func (b *fakeBody) Transform() geometry.Transform     { return geometry.Identity() }
func (b *fakeBody) PrevTransform() geometry.Transform { return geometry.Identity() }

// fakeFixture is a box-shaped static fixture for body-contact and
// ray-cast tests.
type fakeFixture struct {
	body     *fakeBody
	shape    geometry.Shape
	xf       geometry.Transform
	density  float64
	isSensor bool
}

func (f *fakeFixture) IsSensor() bool           { return f.isSensor }
func (f *fakeFixture) GetShape() geometry.Shape { return f.shape }
func (f *fakeFixture) GetBody() world.Body      { return f.body }
func (f *fakeFixture) GetAABB(child int) geometry.AABB {
	return f.shape.ComputeAABB(f.xf, child)
}
func (f *fakeFixture) GetDensity() float64 { return f.density }
func (f *fakeFixture) TestPoint(p Vec.Vec2) bool {
	return f.shape.TestPoint(f.xf, p)
}

// RayCast treats the fixture as its AABB's top edge (a flat floor),
// sufficient for the collision-kernel tests that exercise it.
func (f *fakeFixture) RayCast(p1, p2 Vec.Vec2, child int) (float64, Vec.Vec2, bool) {
	aabb := f.GetAABB(child)
	top := aabb.Max.Y
	if p1.Y <= top || p2.Y > top {
		return 0, Vec.Vec2{}, false
	}
	fraction := (p1.Y - top) / (p1.Y - p2.Y)
	if fraction < 0 || fraction > 1 {
		return 0, Vec.Vec2{}, false
	}
	x := p1.X + (p2.X-p1.X)*fraction
	if x < aabb.Min.X || x > aabb.Max.X {
		return 0, Vec.Vec2{}, false
	}
	return fraction, Vec.New(0, 1), true
}

// ComputeDistance returns the unsigned distance from p to the line of
// the fixture AABB's top face, always with the +Y normal (the top
// face only, enough for a flat floor).
func (f *fakeFixture) ComputeDistance(p Vec.Vec2, child int) (float64, Vec.Vec2) {
	aabb := f.GetAABB(child)
	if p.Y >= aabb.Max.Y {
		return p.Y - aabb.Max.Y, Vec.New(0, 1)
	}
	return aabb.Max.Y - p.Y, Vec.New(0, 1)
}

func floorFixture(body *fakeBody, minX, maxX, topY float64) *fakeFixture {
	return &fakeFixture{
		body:    body,
		shape:   geometry.NewPolygonShape([]Vec.Vec2{{X: minX, Y: topY - 1}, {X: maxX, Y: topY - 1}, {X: maxX, Y: topY}, {X: minX, Y: topY}}),
		xf:      geometry.Identity(),
		density: 1,
	}
}
