// pkg/entity/ship.go
package entity

import (
	"math"

	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// Axis selects one of a frame's local axes.
type Axis int

const (
	AxisForward Axis = iota
	AxisUp
	AxisRight
)

// Path prediction step divisors: step = sqrt(distance to source) / divisor.
const (
	ShipPathDivisor  = 25.0
	DronePathDivisor = 256.0
)

// ShipParams contains the physical properties of a piloted body
type ShipParams struct {
	Position      physics.Vec3
	Velocity      physics.Vec3
	Mass          float64
	Radius        float64
	MainAccel     float64
	ManeuverAccel float64
	TurnRate      float64
}

// Ship represents the player's spaceship
type Ship struct {
	Body
	Alive         bool
	MainAccel     float64
	ManeuverAccel float64
	TurnRate      float64
}

// NewShip creates a live ship from params
func NewShip(id ID, p ShipParams) *Ship {
	return newShip(id, p, ModelShip)
}

func newShip(id ID, p ShipParams, model Model) *Ship {
	physics.Assert(p.Radius > 0, "ship radius %v must be positive", p.Radius)
	physics.Assert(p.MainAccel > 0, "ship main acceleration %v must be positive", p.MainAccel)
	physics.Assert(p.ManeuverAccel > 0, "ship maneuver acceleration %v must be positive", p.ManeuverAccel)
	physics.Assert(p.TurnRate > 0, "ship turn rate %v must be positive", p.TurnRate)

	return &Ship{
		Body:          NewBody(id, p.Position, p.Velocity, p.Mass, p.Radius, p.Radius, model),
		Alive:         true,
		MainAccel:     p.MainAccel,
		ManeuverAccel: p.ManeuverAccel,
		TurnRate:      p.TurnRate,
	}
}

// Kind returns KindShip
func (s *Ship) Kind() Kind { return KindShip }

// Render draws the ship
func (s *Ship) Render(r Renderer) { r.RenderShip(s) }

func (s *Ship) sealed() {}

// ThrustMain accelerates along the forward axis.
func (s *Ship) ThrustMain(dt float64) {
	physics.Assert(dt >= 0, "ThrustMain: negative dt %v", dt)
	s.AddVelocity(s.Forward().Mul(s.MainAccel * dt))
}

// Brake fires the main engine in reverse.
func (s *Ship) Brake(dt float64) {
	physics.Assert(dt >= 0, "Brake: negative dt %v", dt)
	s.AddVelocity(s.Forward().Mul(-s.MainAccel * dt))
}

// ThrustManeuver accelerates along a unit world direction with the
// maneuvering thrusters.
func (s *Ship) ThrustManeuver(dt float64, dir physics.Vec3) {
	physics.Assert(dt >= 0, "ThrustManeuver: negative dt %v", dt)
	physics.Assert(physics.IsUnit(dir), "ThrustManeuver: direction %v is not unit length", dir)
	s.AddVelocity(dir.Mul(s.ManeuverAccel * dt))
}

// Rotate turns the ship around one of its own axes at its turn rate.
func (s *Ship) Rotate(axis Axis, dt float64, backwards bool) {
	angle := s.TurnRate * dt
	if backwards {
		angle = -angle
	}
	switch axis {
	case AxisForward:
		s.Frame.RotateAroundForward(angle)
	case AxisUp:
		s.Frame.RotateAroundUp(angle)
	case AxisRight:
		s.Frame.RotateAroundRight(angle)
	}
}

// TurnToward rotates the forward axis toward dir by at most maxRadians.
func (s *Ship) TurnToward(dir physics.Vec3, maxRadians float64) {
	s.Frame.RotateToward(dir, maxRadians)
}

// EscortPoint returns the world position of a formation slot.
func (s *Ship) EscortPoint(slot int) physics.Vec3 {
	return s.Position().Add(s.Frame.LocalToWorld(SlotOffset(slot)))
}

// Default chase camera offsets, in metres.
const (
	FollowCameraBack = 20.0
	FollowCameraUp   = 5.0
)

// FollowCamera returns a frame behind and above the ship with its orientation.
func (s *Ship) FollowCamera(back, up float64) physics.Frame {
	camera := s.Frame
	camera.Position = s.Frame.LocalToWorldPoint(physics.Vec3{-back, up, 0})
	return camera
}

// FuturePath predicts n positions of the ship under gravity from source,
// starting with the current one.
func (s *Ship) FuturePath(source *Body, n int) []physics.Vec3 {
	return predictPath(s.Body, source, n, ShipPathDivisor)
}

// MarkDead destroys the ship. It cannot be undone.
func (s *Ship) MarkDead() {
	s.Alive = false
}

func predictPath(body Body, source *Body, n int, divisor float64) []physics.Vec3 {
	if n <= 0 {
		return nil
	}
	path := make([]physics.Vec3, 0, n)
	path = append(path, body.Position())

	step := math.Sqrt(physics.Distance(body.Position(), source.Position())) / divisor
	if step == 0 {
		return path
	}
	for i := 1; i < n; i++ {
		body.Integrate(step, source)
		path = append(path, body.Position())
	}
	return path
}
