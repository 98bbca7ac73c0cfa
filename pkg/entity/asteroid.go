// pkg/entity/asteroid.go
package entity

import (
	"math"

	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// Asteroid constants
const (
	AsteroidDensity   = 2710.0 // kg/m^3, type S
	MaxAsteroidSpin   = 0.25   // rad/s
	NoiseOffsetExtent = 1.0e4
)

// AsteroidParams describes an asteroid before its random features are drawn.
type AsteroidParams struct {
	Position physics.Vec3
	Velocity physics.Vec3
	Inner    float64
	Outer    float64
}

// Asteroid is an irregular rocky body. Its surface lies between the inner and
// outer radius, shaped by a coherent noise field.
type Asteroid struct {
	Body
	Inner       float64
	NoiseOffset physics.Vec3
	Spin        Spin
	HasCrystals bool
	Mesh        *Mesh

	noise physics.NoiseField
}

// AsteroidMass returns the mass of an asteroid with the given radii.
func AsteroidMass(inner, outer float64) float64 {
	physics.Assert(inner >= 0 && inner <= outer, "AsteroidMass: need 0 <= inner <= outer, got %v, %v", inner, outer)
	return math.Pi * outer * outer * inner * AsteroidDensity / 6
}

// NewAsteroid creates an asteroid with random orientation, spin and surface.
// base must be a unit sphere; the displaced copy becomes the asteroid's mesh.
func NewAsteroid(id ID, p AsteroidParams, rng physics.Rand, noise physics.NoiseField, base *Mesh) *Asteroid {
	physics.Assert(p.Inner >= 0 && p.Inner <= p.Outer, "asteroid radii: need 0 <= inner <= outer, got %v, %v", p.Inner, p.Outer)
	physics.Assert(p.Outer > 0, "asteroid outer radius %v must be positive", p.Outer)
	physics.Assert(base.IsUnitSphere(), "asteroid base mesh is not a unit sphere")

	a := &Asteroid{
		Inner:       p.Inner,
		NoiseOffset: physics.RandomInSphere(rng).Mul(NoiseOffsetExtent),
		HasCrystals: true,
		noise:       noise,
	}

	a.Body = Body{
		ID:       id,
		Frame:    physics.NewFrame(p.Position),
		Velocity: p.Velocity,
		Mass:     AsteroidMass(p.Inner, p.Outer),
		Radius:   p.Outer,
		Scale:    1,
	}
	a.Mesh = base.Displaced(func(v physics.Vec3) float64 {
		return a.radiusAt(v)
	})
	a.Model = a.Mesh
	lo, hi := a.Mesh.Bounds()
	slack := 1e-9 * p.Outer
	physics.Assert(lo >= p.Inner-slack && hi <= p.Outer+slack,
		"asteroid surface [%v, %v] outside radii [%v, %v]", lo, hi, p.Inner, p.Outer)

	a.Spin = Spin{
		Axis: physics.RandomUnitVector(rng),
		Rate: math.Min(rng.Float64(), rng.Float64()) * MaxAsteroidSpin,
	}

	for i := 0; i < 2; i++ {
		a.Frame.RotateAroundForward(rng.Float64() * 2 * math.Pi)
		a.Frame.RotateAroundUp(rng.Float64() * 2 * math.Pi)
		a.Frame.RotateAroundRight(rng.Float64() * 2 * math.Pi)
	}

	a.assertInvariant()
	return a
}

// Kind returns KindAsteroid
func (a *Asteroid) Kind() Kind { return KindAsteroid }

// Render draws the asteroid
func (a *Asteroid) Render(r Renderer) { r.RenderAsteroid(a) }

func (a *Asteroid) sealed() {}

// Outer returns the outer radius.
func (a *Asteroid) Outer() float64 { return a.Radius }

// AverageRadius returns the midpoint between the inner and outer radius.
func (a *Asteroid) AverageRadius() float64 { return (a.Radius + a.Inner) / 2 }

// HalfRange returns half the distance between the inner and outer radius.
func (a *Asteroid) HalfRange() float64 { return (a.Radius - a.Inner) / 2 }

// RadiusInDirection returns the distance from the centre to the surface
// along a world direction. A zero direction gives the average radius.
func (a *Asteroid) RadiusInDirection(dir physics.Vec3) float64 {
	if physics.IsZero(dir) {
		return a.AverageRadius()
	}
	local := a.Frame.WorldToLocal(dir.Normalize())
	return a.radiusAt(local)
}

// radiusAt evaluates the surface at a local unit direction.
func (a *Asteroid) radiusAt(local physics.Vec3) float64 {
	n := a.noise.Eval(local.Add(a.NoiseOffset))
	return a.AverageRadius() + n*a.HalfRange()
}

// SurfaceDistance returns the distance from point to the asteroid surface
// measured along the line to the centre. It is negative inside the surface.
func (a *Asteroid) SurfaceDistance(point physics.Vec3) float64 {
	local := a.Frame.WorldToLocalPoint(point)
	if physics.IsZero(local) {
		return -a.AverageRadius()
	}
	return local.Len() - a.radiusAt(local.Normalize())
}

// RemoveCrystals marks the asteroid as mined out.
func (a *Asteroid) RemoveCrystals() {
	a.HasCrystals = false
}

// Update integrates the asteroid and applies its spin.
func (a *Asteroid) Update(dt float64, source *Body) {
	a.Integrate(dt, source)
	a.Spin.Apply(&a.Frame, dt)
}
