package particle

import (
	"diesel.com/particlesph/geometry"
	"diesel.com/particlesph/world"

	Vec "diesel.com/particlesph/vector"
)

// InvalidIndex is returned by CreateParticle when the arena cannot
// grow to accommodate a new particle (spec.md §7, CapacityExhausted).
const InvalidIndex = -1

// Color is a packed RGBA color. The color buffer is allocated and
// grown together with the other per-particle buffers, not lazily;
// particles created without a color hold DefaultColor.
type Color struct {
	R, G, B, A uint8
}

// DefaultColor is white, opaque.
var DefaultColor = Color{255, 255, 255, 255}

// ParticleDef describes a single particle to CreateParticle.
type ParticleDef struct {
	Flags    Flags
	Position Vec.Vec2
	Velocity Vec.Vec2

	// Color and UserData are optional. Both buffers always exist for
	// the whole arena; a zero Color stores DefaultColor and a nil
	// UserData leaves the slot untouched.
	Color    Color
	UserData interface{}

	// Lifetime is the supplemented particle-expiration feature
	// (SPEC_FULL.md, from original_source's SetParticleLifetime).
	// Zero means the particle never expires on its own.
	Lifetime float64

	group *Group // set internally when stamped by CreateParticleGroup
}

// GroupDef describes a particle group to CreateParticleGroup.
type GroupDef struct {
	Flags      Flags
	GroupFlags GroupFlags

	Shape geometry.Shape
	Xf    geometry.Transform

	// Stride is the spacing between stamped particles; defaults to
	// 2*radius*config.ParticleStride when zero.
	Stride float64

	LinearVelocity  Vec.Vec2
	AngularVelocity float64
	Strength        float64
	Color           Color
	UserData        interface{}

	// PositionData stamps additional explicit particles into the
	// group alongside whatever the shape fills (spec.md §4.2).
	PositionData []Vec.Vec2
}

// DestructionListener is the optional host hook notified when a
// particle or group is destroyed with notification requested
// (spec.md §6).
type DestructionListener interface {
	SayGoodbyeParticle(index int)
	SayGoodbyeGroup(g *Group)
}

// systemDeps bundles the external collaborators a System is built
// with; kept as a separate struct so System's zero value stays inert
// and tests can swap collaborators without a long constructor.
type systemDeps struct {
	world       world.World
	triadSource geometry.TriadSource
	listener    DestructionListener
	scratch     *world.Scratch
}
