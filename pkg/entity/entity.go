// pkg/entity/entity.go
package entity

import (
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// ID is a unique identifier for an entity
type ID uint64

// Kind identifies the concrete type behind an Entity.
type Kind int

const (
	KindBlackHole Kind = iota
	KindAsteroid
	KindCrystal
	KindShip
	KindDrone
)

var kindNames = [...]string{"black_hole", "asteroid", "crystal", "ship", "drone"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Entity is the closed set of simulated objects. Only the types in this
// package implement it; callers dispatch with a type switch.
type Entity interface {
	GetID() ID
	Kind() Kind
	Core() *Body
	Render(r Renderer)
	sealed()
}

// IDSource hands out entity IDs for one world. The zero value starts at 1.
type IDSource struct {
	last ID
}

// Next returns a fresh ID
func (s *IDSource) Next() ID {
	s.last++
	return s.last
}

// Model is a display handle. A body may only be built from a ready model.
type Model interface {
	Ready() bool
}

// ModelRef names a model owned by the renderer.
type ModelRef string

// Ready reports whether the reference names a model.
func (m ModelRef) Ready() bool {
	return m != ""
}

// Model names for the bodies without meshes.
const (
	ModelBlackHole ModelRef = "black_hole"
	ModelCrystal   ModelRef = "crystal"
	ModelShip      ModelRef = "ship"
	ModelDrone     ModelRef = "drone"
)

// Body is the state shared by every simulated object.
type Body struct {
	ID       ID
	Frame    physics.Frame
	Velocity physics.Vec3
	Mass     float64
	Radius   float64
	Scale    float64
	Model    Model
}

// NewBody creates a body at position with the default orientation.
func NewBody(id ID, position, velocity physics.Vec3, mass, radius, scale float64, model Model) Body {
	b := Body{
		ID:       id,
		Frame:    physics.NewFrame(position),
		Velocity: velocity,
		Mass:     mass,
		Radius:   radius,
		Scale:    scale,
		Model:    model,
	}
	b.assertInvariant()
	return b
}

// GetID returns the entity's unique identifier
func (b *Body) GetID() ID { return b.ID }

// Core returns the body itself.
func (b *Body) Core() *Body { return b }

// Position returns the body's world position.
func (b *Body) Position() physics.Vec3 { return b.Frame.Position }

// Forward returns the body's forward axis.
func (b *Body) Forward() physics.Vec3 { return b.Frame.Forward }

// Up returns the body's up axis.
func (b *Body) Up() physics.Vec3 { return b.Frame.Up }

// Right returns the body's right axis.
func (b *Body) Right() physics.Vec3 { return b.Frame.Right }

// Speed returns the magnitude of the velocity.
func (b *Body) Speed() float64 { return b.Velocity.Len() }

// Sphere returns the bounding sphere used for the first collision tier.
func (b *Body) Sphere() physics.Sphere {
	return physics.Sphere{Center: b.Frame.Position, Radius: b.Radius}
}

// Integrate applies gravity from source for dt seconds and then moves the
// body along its velocity. A zero dt leaves the body unchanged.
func (b *Body) Integrate(dt float64, source *Body) {
	physics.Assert(dt >= 0, "Integrate: negative dt %v", dt)
	if dt == 0 {
		return
	}

	accel := physics.GravityAcceleration(b.Frame.Position, source.Frame.Position, source.Mass)
	b.Velocity = b.Velocity.Add(accel.Mul(dt))
	b.Frame.Translate(b.Velocity.Mul(dt))
}

// AddVelocity changes the velocity by delta.
func (b *Body) AddVelocity(delta physics.Vec3) {
	b.Velocity = b.Velocity.Add(delta)
}

func (b *Body) assertInvariant() {
	physics.Assert(b.Mass > 0, "body %d: mass %v must be positive", b.ID, b.Mass)
	physics.Assert(b.Radius >= 0, "body %d: radius %v must not be negative", b.ID, b.Radius)
	physics.Assert(b.Scale > 0, "body %d: scale %v must be positive", b.ID, b.Scale)
	physics.Assert(b.Model != nil && b.Model.Ready(), "body %d: model not ready", b.ID)
}

// Spin is a constant rotation about a fixed world axis.
type Spin struct {
	Axis physics.Vec3
	Rate float64 // radians per second
}

// Apply rotates frame by the spin for dt seconds.
func (s Spin) Apply(frame *physics.Frame, dt float64) {
	if s.Rate == 0 || dt == 0 {
		return
	}
	frame.RotateAround(s.Axis, s.Rate*dt)
}

// BlackHole is the single gravity source at the centre of the world.
type BlackHole struct {
	Body
	DiskRadius float64
}

// Black hole defaults.
const (
	BlackHoleMass       = 5.0e16
	BlackHoleRadius     = 50.0
	BlackHoleDiskRadius = 10000.0
)

// NewBlackHole creates a black hole at position.
func NewBlackHole(id ID, position physics.Vec3, mass, diskRadius float64) *BlackHole {
	physics.Assert(diskRadius > 0, "black hole disk radius %v must be positive", diskRadius)
	return &BlackHole{
		Body:       NewBody(id, position, physics.Zero, mass, BlackHoleRadius, BlackHoleRadius, ModelBlackHole),
		DiskRadius: diskRadius,
	}
}

// Kind returns KindBlackHole
func (h *BlackHole) Kind() Kind { return KindBlackHole }

// Render draws the black hole
func (h *BlackHole) Render(r Renderer) { r.RenderBlackHole(h) }

func (h *BlackHole) sealed() {}

// CircularSpeed returns the orbital speed of a circular orbit at distance.
func (h *BlackHole) CircularSpeed(distance float64) float64 {
	return physics.CircularOrbitSpeed(h.Mass, distance)
}
