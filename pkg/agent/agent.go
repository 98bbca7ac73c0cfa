// pkg/agent/agent.go
package agent

import (
	"math"

	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// Avoidance envelope: safe = |v_drone - v_asteroid|/AvoidSpeedDivisor + r_a + r_d + AvoidMargin.
const (
	AvoidSpeedDivisor = 25.0
	AvoidMargin       = 50.0
)

// Speed envelope factors applied to the intercept time.
const (
	FarEnvelope  = 250.0
	NearEnvelope = 25.0
)

// None marks an unset hazard or target index
const None = -1

// Params tunes the steering behaviours
type Params struct {
	EscortFarDistance float64 // metres (250 km default); beyond this escorts use the main engine
	PursueFarDistance float64 // metres (500 km default); beyond this the pursuer uses the main engine
	TurnLimit         float64 // radians per tick
	Jitter            float64 // half-width of the escort direction noise
}

// DefaultParams returns the standard drone tuning
func DefaultParams() Params {
	return Params{
		EscortFarDistance: 250e3,
		PursueFarDistance: 500e3,
		TurnLimit:         1.0,
		Jitter:            0.05,
	}
}

// View is the part of the world the drones react to
type View struct {
	Leader    *entity.Ship
	Drones    []*entity.Drone
	Asteroids []*entity.Asteroid
	Crystals  []*entity.Crystal
}

// Decision is one drone's behaviour for a tick. Hazard and Target are slice
// indexes into the view, or None.
type Decision struct {
	Mode   entity.Mode
	Hazard int
	Target int
}

// SafeDistance returns the distance inside which a drone must avoid an
// asteroid.
func SafeDistance(d *entity.Drone, a *entity.Asteroid) float64 {
	relative := d.Velocity.Sub(a.Velocity).Len()
	return relative/AvoidSpeedDivisor + a.Radius + d.Radius + AvoidMargin
}

// InterceptTime estimates the time to close distKm kilometres at speed,
// scaled by the step dt.
func InterceptTime(speed, distKm, dt float64) float64 {
	return (math.Sqrt(speed*speed+500*distKm) - speed) * dt / 250
}

// Classify decides a mode for every drone in a single pass. Avoid beats
// Pursue, which beats Escort. Only the last live drone in slot order
// pursues, and it chases the last crystal still in play.
func Classify(v View) []Decision {
	decisions := make([]Decision, len(v.Drones))

	target := None
	for i, c := range v.Crystals {
		if !c.Collected {
			target = i
		}
	}

	pursuer := None
	for i, d := range v.Drones {
		if d.Alive {
			pursuer = i
		}
	}

	for i, d := range v.Drones {
		dec := Decision{Mode: entity.ModeEscort, Hazard: None, Target: None}
		if !d.Alive {
			dec.Mode = entity.ModeDead
			decisions[i] = dec
			continue
		}

		if i == pursuer && target != None {
			dec.Mode = entity.ModePursue
			dec.Target = target
		}

		nearest := math.Inf(1)
		for ai, a := range v.Asteroids {
			safe := SafeDistance(d, a)
			safeSq := safe * safe
			if physics.DistanceSquared(d.Position(), a.Position()) > safeSq {
				continue
			}
			if safeSq < nearest {
				nearest = safeSq
				dec.Hazard = ai
			}
		}
		if dec.Hazard != None {
			dec.Mode = entity.ModeAvoid
		}

		decisions[i] = dec
	}
	return decisions
}
