// pkg/engine/tick.go
package engine

import (
	"context"

	"github.com/opd-ai/go-blackhole/pkg/agent"
	"github.com/opd-ai/go-blackhole/pkg/collision"
	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/event"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// Tick advances the world by dt seconds under the player's commands.
// While paused the bodies do not move, but the player can still turn.
func (w *World) Tick(dt float64, cmds Commands) {
	physics.Assert(dt >= 0, "Tick: negative dt %v", dt)

	w.applyActions(cmds)
	effective := w.effectiveDT(dt, cmds)
	w.handleInput(dt, effective, cmds)

	if effective <= 0 {
		return
	}

	w.integrateBodies(effective)
	w.updateDrones(effective)
	w.resolveCollisions()
	w.Ticks++
}

// applyActions runs the one-shot commands.
func (w *World) applyActions(cmds Commands) {
	if cmds.Has(CmdReset) {
		w.Reset(w.rng)
	}
	if cmds.Has(CmdKnockOff) {
		w.KnockOffCrystals()
	}
	if cmds.Has(CmdTogglePause) {
		w.Paused = !w.Paused
		w.bus.Publish(event.NewToggleEvent(event.PauseToggled, w, w.Paused))
	}
	if cmds.Has(CmdToggleDebug) {
		w.Debug = !w.Debug
		w.logger.Debug(context.Background(), "debug display toggled", "on", w.Debug)
	}
}

// effectiveDT substitutes zero while paused and scales for fast-forward.
func (w *World) effectiveDT(dt float64, cmds Commands) float64 {
	if w.Paused {
		return 0
	}
	if cmds.Has(CmdFastForward) {
		return dt * w.cfg.Simulation.FastFactor
	}
	return dt
}

// handleInput applies thrust for the effective dt and rotation for the
// fixed step, so turning is independent of the physics rate.
func (w *World) handleInput(step, dt float64, cmds Commands) {
	p := w.Player
	if !p.Alive {
		return
	}

	if dt > 0 {
		if cmds.Has(CmdThrustMain) {
			p.ThrustMain(dt)
		}
		maneuvers := []struct {
			cmd Commands
			dir physics.Vec3
		}{
			{CmdManeuverForward, p.Forward()},
			{CmdManeuverBack, p.Forward().Mul(-1)},
			{CmdManeuverUp, p.Up()},
			{CmdManeuverDown, p.Up().Mul(-1)},
			{CmdManeuverRight, p.Right()},
			{CmdManeuverLeft, p.Right().Mul(-1)},
		}
		for _, m := range maneuvers {
			if cmds.Has(m.cmd) {
				p.ThrustManeuver(dt, m.dir)
			}
		}
	}

	rotations := []struct {
		cmd       Commands
		axis      entity.Axis
		backwards bool
	}{
		{CmdRollRight, entity.AxisForward, true},
		{CmdRollLeft, entity.AxisForward, false},
		{CmdPitchDown, entity.AxisRight, false},
		{CmdPitchUp, entity.AxisRight, true},
		{CmdYawLeft, entity.AxisUp, false},
		{CmdYawRight, entity.AxisUp, true},
	}
	for _, r := range rotations {
		if cmds.Has(r.cmd) {
			p.Rotate(r.axis, step, r.backwards)
		}
	}
}

// integrateBodies moves every passive body and the player.
func (w *World) integrateBodies(dt float64) {
	source := w.Hole.Core()
	for _, a := range w.Asteroids {
		a.Update(dt, source)
	}
	for _, c := range w.Crystals {
		if !c.Collected {
			c.Update(dt, source)
		}
	}
	if w.Player.Alive {
		w.Player.Integrate(dt, source)
	}
}

// updateDrones classifies every drone once, then steers and integrates the
// live ones in slot order.
func (w *World) updateDrones(dt float64) {
	v := w.view()
	decisions := agent.Classify(v)
	source := w.Hole.Core()

	for i, d := range w.Drones {
		dec := decisions[i]
		if dec.Mode != d.Mode {
			from := d.Mode
			d.Mode = dec.Mode
			w.bus.Publish(event.NewModeEvent(w, uint64(d.ID), from.String(), dec.Mode.String()))
		}
		if !d.Alive {
			continue
		}
		w.controller.Steer(d, dec, v, dt)
		d.Integrate(dt, source)
	}
}

// resolveCollisions tests every interacting pair against the positions left
// by this tick's integration. Responses change velocities only.
func (w *World) resolveCollisions() {
	w.collectCrystals()

	index := collision.NewIndex(w.Asteroids)
	w.collideAsteroids(index)
	w.collideCrystals(index)
	w.collideShips(index)
}

// collectCrystals hands each crystal to the first live ship touching it.
func (w *World) collectCrystals() {
	for _, c := range w.Crystals {
		if c.Collected {
			continue
		}
		if w.Player.Alive && collision.IsCollision(w.Player, c) {
			w.collect(c, w.Player)
			continue
		}
		for _, d := range w.Drones {
			if d.Alive && collision.IsCollision(d, c) {
				w.collect(c, d)
				break
			}
		}
	}
}

// collect marks c collected. The event Kind names the collector.
func (w *World) collect(c *entity.Crystal, by entity.Entity) {
	c.MarkCollected()
	w.Collected++
	w.bus.Publish(event.NewBodyEvent(event.CrystalCollected, w, uint64(c.ID), by.Kind().String()))
}

func (w *World) collideAsteroids(index *collision.Index) {
	for i, a := range w.Asteroids {
		for _, j := range index.Near(a.Position(), a.Radius) {
			if j <= i {
				continue
			}
			b := w.Asteroids[j]
			if !collision.IsCollision(a, b) {
				continue
			}
			va, vb := a.Velocity, b.Velocity
			collision.Elastic(a.Core(), b.Core())
			if a.Velocity != va || b.Velocity != vb {
				w.bus.Publish(event.NewCollisionEvent(event.AsteroidCollision, w, uint64(a.ID), uint64(b.ID)))
			}
		}
	}
}

func (w *World) collideCrystals(index *collision.Index) {
	bounce := w.cfg.Simulation.CrystalResponse == config.ResponseBounce
	for _, c := range w.Crystals {
		if c.Collected {
			continue
		}
		for _, j := range index.Near(c.Position(), c.Radius) {
			a := w.Asteroids[j]
			if !collision.IsCollision(c, a) {
				continue
			}
			vc := c.Velocity
			if bounce {
				collision.BounceOff(c.Core(), a.Core())
			} else {
				collision.Elastic(c.Core(), a.Core())
			}
			if c.Velocity != vc {
				w.bus.Publish(event.NewCollisionEvent(event.CrystalBounce, w, uint64(c.ID), uint64(a.ID)))
			}
		}
	}
}

// collideShips destroys the player or a drone on contact with an asteroid.
func (w *World) collideShips(index *collision.Index) {
	if w.Player.Alive && w.hitsAsteroid(index, w.Player) {
		w.Player.MarkDead()
		w.logger.Info(context.Background(), "player destroyed", "tick", w.Ticks)
		w.bus.Publish(event.NewBodyEvent(event.PlayerDestroyed, w, uint64(w.Player.ID), entity.KindShip.String()))
	}

	for _, d := range w.Drones {
		if !d.Alive || !w.hitsAsteroid(index, d) {
			continue
		}
		from := d.Mode
		d.MarkDead()
		w.LiveDrones--
		w.logger.Info(context.Background(), "drone destroyed", "slot", d.Slot, "tick", w.Ticks)
		w.bus.Publish(event.NewBodyEvent(event.DroneDestroyed, w, uint64(d.ID), entity.KindDrone.String()))
		w.bus.Publish(event.NewModeEvent(w, uint64(d.ID), from.String(), d.Mode.String()))
	}
}

func (w *World) hitsAsteroid(index *collision.Index, e entity.Entity) bool {
	body := e.Core()
	for _, j := range index.Near(body.Position(), body.Radius) {
		if collision.IsCollision(e, w.Asteroids[j]) {
			return true
		}
	}
	return false
}
