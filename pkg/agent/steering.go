// pkg/agent/steering.go
package agent

import (
	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// Controller applies steering for drone decisions
type Controller struct {
	params Params
	rng    physics.Rand
}

// NewController creates a controller. rng drives the escort jitter.
func NewController(params Params, rng physics.Rand) *Controller {
	physics.Assert(params.TurnLimit >= 0, "agent turn limit %v must not be negative", params.TurnLimit)
	physics.Assert(params.Jitter >= 0, "agent jitter %v must not be negative", params.Jitter)
	return &Controller{params: params, rng: rng}
}

// Params returns the controller's tuning
func (c *Controller) Params() Params {
	return c.params
}

// Steer applies the behaviour chosen for d. Dead drones are ignored.
func (c *Controller) Steer(d *entity.Drone, dec Decision, v View, dt float64) {
	switch dec.Mode {
	case entity.ModeAvoid:
		Avoid(d, v.Asteroids[dec.Hazard], c.params.TurnLimit, dt)
	case entity.ModePursue:
		c.Pursue(d, v.Crystals[dec.Target], dt)
	case entity.ModeEscort:
		c.Escort(d, v.Leader, dt)
	}
}

// Escort flies d toward its formation slot beside leader. Far from the slot
// it turns and uses the main engine; close in it uses the maneuvering
// thrusters and finally matches the leader's velocity.
func (c *Controller) Escort(d *entity.Drone, leader *entity.Ship, dt float64) {
	goal := leader.EscortPoint(d.Slot)
	toGoal := goal.Sub(d.Position())
	distance := toGoal.Len()
	dir := physics.SafeNormalize(toGoal.Add(c.jitter()), d.Forward())

	s := leader.Speed()
	t := InterceptTime(s, distance/1000, dt)
	speed := d.Speed()

	if distance >= c.params.EscortFarDistance {
		c.mainEngineApproach(d, dir, speed, s+FarEnvelope*t, dt)
		return
	}

	if speed < s+NearEnvelope*t {
		d.ThrustManeuver(dt, dir)
	} else {
		d.Velocity = toGoal.Add(leader.Velocity)
	}
}

// Pursue flies d toward crystal the same way Escort approaches a slot,
// with a wider speed envelope close in.
func (c *Controller) Pursue(d *entity.Drone, crystal *entity.Crystal, dt float64) {
	toTarget := crystal.Position().Sub(d.Position())
	distance := toTarget.Len()
	dir := physics.SafeNormalize(toTarget, d.Forward())

	s := crystal.Speed()
	t := InterceptTime(s, distance/1000, dt)
	speed := d.Speed()
	envelope := s + FarEnvelope*t

	if distance >= c.params.PursueFarDistance {
		c.mainEngineApproach(d, dir, speed, envelope, dt)
		return
	}

	switch {
	case speed < envelope && distance > 0:
		d.ThrustManeuver(dt, dir)
	case speed >= envelope:
		d.Velocity = toTarget.Add(crystal.Velocity)
	}
}

// Avoid turns d away from hazard and burns the main engine.
func Avoid(d *entity.Drone, hazard *entity.Asteroid, turnLimit, dt float64) {
	away := physics.SafeNormalize(d.Position().Sub(hazard.Position()), d.Forward())
	d.TurnToward(away, turnLimit)
	d.ThrustMain(dt)
}

func (c *Controller) mainEngineApproach(d *entity.Drone, dir physics.Vec3, speed, limit, dt float64) {
	d.TurnToward(dir, c.params.TurnLimit)
	if speed <= limit {
		d.ThrustMain(dt)
	} else {
		d.Brake(dt)
	}
}

func (c *Controller) jitter() physics.Vec3 {
	if c.params.Jitter == 0 {
		return physics.Zero
	}
	j := c.params.Jitter
	return physics.Vec3{
		physics.RandomRange(c.rng, -j, j),
		physics.RandomRange(c.rng, -j, j),
		physics.RandomRange(c.rng, -j, j),
	}
}
