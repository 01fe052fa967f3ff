// Package world declares the external-collaborator surface the
// particle package consumes from a host rigid-body physics world.
// Nothing in this package is owned by the particle core: fixtures,
// bodies, and the world itself belong to and are driven by the host.
// The interfaces here exist so the particle package can be built,
// tested, and reasoned about without a concrete rigid-body engine.
//
// Grounded on the Box2D/LiquidFun callback shape
// (B2ContactListenerInterface, B2DestructionListenerInterface,
// B2RaycastCallback) and on jakecoffman-cp's Space "locked" state.
package world

import (
	"diesel.com/particlesph/geometry"
	Vec "diesel.com/particlesph/vector"
)

// World is the host rigid-body world the particle core queries each
// step for broad-phase candidates and against which it ray-casts for
// rigid-body collision.
type World interface {
	// QueryAABB invokes cb.ReportFixture for every fixture whose AABB
	// overlaps aabb. Iteration stops early if ReportFixture returns
	// false.
	QueryAABB(cb AABBQueryCallback, aabb geometry.AABB)

	// RayCast invokes cb.ReportFixture for every fixture hit by the
	// segment p1->p2, in an order the host chooses.
	RayCast(cb RayCastCallback, p1, p2 Vec.Vec2)

	// IsLocked reports whether the world is mid-step. Mutating calls
	// (CreateParticle, DestroyParticle, CreateParticleGroup, ...) must
	// no-op rather than mutate state while this is true (spec.md §7,
	// the WorldLocked condition).
	IsLocked() bool

	// Gravity returns the world's current gravity vector.
	Gravity() Vec.Vec2
}

// AABBQueryCallback is the visitor spec.md §9 prefers over a bare
// closure: "explicit visitor structs with an interface limited to
// reportFixture / reportParticle ... for clarity and to make the
// iteration order testable."
type AABBQueryCallback interface {
	ReportFixture(fixture Fixture) bool
}

// RayCastCallback mirrors B2RaycastCallback's contract: -1 ignores
// the fixture and continues, 0 terminates the cast, a fraction in
// (0,1] clips the ray to that point and continues with the clipped
// segment.
type RayCastCallback interface {
	ReportFixture(fixture Fixture, point, normal Vec.Vec2, fraction float64) float64
}

// Fixture is a single collidable attached to a Body.
type Fixture interface {
	IsSensor() bool
	GetShape() geometry.Shape
	GetBody() Body
	GetAABB(child int) geometry.AABB
	GetDensity() float64

	TestPoint(point Vec.Vec2) bool
	// RayCast returns (fraction, normal, hit). fraction is the
	// fraction along p1->p2 at which the ray first touches child.
	RayCast(p1, p2 Vec.Vec2, child int) (fraction float64, normal Vec.Vec2, hit bool)
	// ComputeDistance returns the signed distance from p to the
	// fixture's child shape boundary and the outward normal at the
	// closest point.
	ComputeDistance(p Vec.Vec2, child int) (distance float64, normal Vec.Vec2)
}

// Body is a single rigid body that may own many fixtures.
type Body interface {
	GetWorldCenter() Vec.Vec2
	GetLocalCenter() Vec.Vec2
	GetMass() float64
	GetInertia() float64
	GetLinearVelocity() Vec.Vec2
	GetAngularVelocity() float64
	GetLinearVelocityFromWorldPoint(point Vec.Vec2) Vec.Vec2

	ApplyLinearImpulse(impulse, point Vec.Vec2, wake bool)
	SetLinearVelocity(v Vec.Vec2)
	SetAngularVelocity(w float64)

	// Transform and PrevTransform return the body's current and
	// previous-substep transforms (m_xf / m_xf0 in the original). The
	// particle package's collision kernel does not read them; it
	// ray-casts against the fixtures where they are now.
	Transform() geometry.Transform
	PrevTransform() geometry.Transform
}
