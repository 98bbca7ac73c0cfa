// pkg/engine/world.go
package engine

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/opd-ai/go-blackhole/pkg/agent"
	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/event"
	"github.com/opd-ai/go-blackhole/pkg/logging"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// Scripted colliders placed ahead of the player so a collision is visible
// shortly after every reset.
var (
	colliderPositions = [2]physics.Vec3{
		{1500, 1000, 500},
		{1500, 1000, -500},
	}
	colliderSpeedFactors = [2]float64{-0.9, 1.1}
)

// World holds every simulated body and the session counters. It is owned by
// a single goroutine; other goroutines read it through Snapshot.
type World struct {
	Hole      *entity.BlackHole
	Asteroids []*entity.Asteroid
	Crystals  []*entity.Crystal
	Player    *entity.Ship
	Drones    []*entity.Drone

	Collected  int
	LiveDrones int
	Ticks      uint64
	Paused     bool
	Debug      bool

	cfg        *config.Config
	bus        *event.Bus
	logger     *logging.Logger
	ids        entity.IDSource
	rng        *rand.Rand
	noise      physics.NoiseField
	mesh       *entity.Mesh
	controller *agent.Controller
}

// NewWorld creates a world from cfg and populates it with Reset.
func NewWorld(cfg *config.Config, rng *rand.Rand, noise physics.NoiseField, bus *event.Bus, logger *logging.Logger) *World {
	physics.Assert(cfg != nil, "NewWorld: nil config")
	physics.Assert(rng != nil, "NewWorld: nil random source")
	physics.Assert(noise != nil, "NewWorld: nil noise field")

	if bus == nil {
		bus = event.NewEventBus()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	w := &World{
		cfg:    cfg,
		bus:    bus,
		logger: logger.With("component", "world"),
		noise:  noise,
		mesh:   entity.UnitSphere(cfg.Population.MeshStacks, cfg.Population.MeshSlices),
	}
	w.Reset(rng)
	return w
}

// Bus returns the event bus the world publishes on
func (w *World) Bus() *event.Bus {
	return w.bus
}

// Config returns the world's configuration
func (w *World) Config() *config.Config {
	return w.cfg
}

// Reset discards every body and rebuilds the world from the population
// settings. rng becomes the world's random source.
func (w *World) Reset(rng *rand.Rand) {
	physics.Assert(rng != nil, "Reset: nil random source")
	pop := &w.cfg.Population

	w.rng = rng
	w.ids = entity.IDSource{}
	w.controller = agent.NewController(agentParams(w.cfg.Agent), rng)

	w.Hole = entity.NewBlackHole(w.ids.Next(), physics.Zero, pop.BlackHoleMass, pop.DiskRadius)
	w.initAsteroids()
	w.Crystals = nil
	w.initPlayer()
	w.initDrones()

	w.Collected = 0
	w.LiveDrones = len(w.Drones)
	w.Ticks = 0
	w.Paused = false

	w.logger.Info(context.Background(), "world reset",
		"asteroids", len(w.Asteroids),
		"drones", len(w.Drones))
	w.bus.Publish(&event.BaseEvent{EventType: event.WorldReset, Source: w})
}

func agentParams(c config.AgentConfig) agent.Params {
	return agent.Params{
		EscortFarDistance: c.EscortFarDistance,
		PursueFarDistance: c.PursueFarDistance,
		TurnLimit:         c.TurnLimit,
		Jitter:            c.Jitter,
	}
}

// initAsteroids creates the two scripted colliders followed by randomly
// orbiting asteroids in a thick shell around the black hole.
func (w *World) initAsteroids() {
	pop := &w.cfg.Population
	w.Asteroids = make([]*entity.Asteroid, 0, pop.Asteroids)

	colliders := [2]struct{ inner, outer float64 }{
		{pop.OuterRadiusMax * pop.InnerFractionMin, pop.OuterRadiusMax},
		{pop.OuterRadiusMin * pop.InnerFractionMax, pop.OuterRadiusMin},
	}
	for i, pos := range colliderPositions {
		speed := w.Hole.CircularSpeed(pos.Len()) * colliderSpeedFactors[i]
		w.addAsteroid(entity.AsteroidParams{
			Position: pos,
			Velocity: physics.Vec3{0, 0, speed},
			Inner:    colliders[i].inner,
			Outer:    colliders[i].outer,
		})
	}

	for len(w.Asteroids) < pop.Asteroids {
		w.addAsteroid(w.randomAsteroid())
	}
}

func (w *World) randomAsteroid() entity.AsteroidParams {
	pop := &w.cfg.Population

	distance := physics.RandomRange(w.rng, pop.OrbitMin, pop.OrbitMax) * pop.DiskRadius
	position := physics.RandomUnitVector(w.rng).Mul(distance)

	speed := w.Hole.CircularSpeed(distance) * physics.RandomRange(w.rng, pop.SpeedFactorMin, pop.SpeedFactorMax)
	tangent := physics.Rejection(physics.RandomUnitVector(w.rng), position)
	for physics.IsZero(tangent) {
		tangent = physics.Rejection(physics.RandomUnitVector(w.rng), position)
	}

	// mostly smaller asteroids
	outer := math.Min(
		physics.RandomRange(w.rng, pop.OuterRadiusMin, pop.OuterRadiusMax),
		physics.RandomRange(w.rng, pop.OuterRadiusMin, pop.OuterRadiusMax))
	inner := outer * physics.RandomRange(w.rng, pop.InnerFractionMin, pop.InnerFractionMax)

	return entity.AsteroidParams{
		Position: position,
		Velocity: physics.WithLength(tangent, speed),
		Inner:    inner,
		Outer:    outer,
	}
}

func (w *World) addAsteroid(p entity.AsteroidParams) {
	w.Asteroids = append(w.Asteroids, entity.NewAsteroid(w.ids.Next(), p, w.rng, w.noise, w.mesh))
}

// initPlayer places the player above the black hole on a circular orbit.
func (w *World) initPlayer() {
	pop := &w.cfg.Population
	position := physics.Vec3{0, pop.PlayerDistance, 0}
	velocity := physics.Vec3{w.Hole.CircularSpeed(pop.PlayerDistance), 0, 0}
	w.Player = entity.NewShip(w.ids.Next(), shipParams(pop.Player, position, velocity))
}

// initDrones places one drone in each formation slot, moving with the player.
func (w *World) initDrones() {
	pop := &w.cfg.Population
	w.Drones = make([]*entity.Drone, 0, pop.Drones)
	for slot := 0; slot < pop.Drones; slot++ {
		position := w.Player.Position().Add(entity.SlotOffset(slot))
		p := shipParams(pop.Drone, position, w.Player.Velocity)
		w.Drones = append(w.Drones, entity.NewDrone(w.ids.Next(), slot, p))
	}
}

func shipParams(c config.ShipConfig, position, velocity physics.Vec3) entity.ShipParams {
	return entity.ShipParams{
		Position:      position,
		Velocity:      velocity,
		Mass:          c.Mass,
		Radius:        c.Radius,
		MainAccel:     c.MainAccel,
		ManeuverAccel: c.ManeuverAccel,
		TurnRate:      c.TurnRate,
	}
}

// KnockOffCrystals releases the crystals of every asteroid whose surface is
// within the knock-off distance of the player. It returns the number of
// asteroids mined.
func (w *World) KnockOffCrystals() int {
	pop := &w.cfg.Population
	if !w.Player.Alive {
		return 0
	}

	mined := 0
	for _, a := range w.Asteroids {
		if !a.HasCrystals {
			continue
		}

		if a.SurfaceDistance(w.Player.Position()) >= pop.KnockOffDistance {
			continue
		}

		toPlayer := w.Player.Position().Sub(a.Position())
		radius := a.RadiusInDirection(toPlayer)
		origin := a.Position().Add(physics.WithLength(toPlayer, 2*radius))
		for i := 0; i < pop.CrystalsPerAsteroid; i++ {
			w.addCrystal(origin, a.Velocity)
		}
		a.RemoveCrystals()
		mined++

		w.bus.Publish(event.NewReleaseEvent(w, uint64(a.ID), pop.CrystalsPerAsteroid))
	}
	return mined
}

// CrystalKnockOffSpeed is the speed of a released crystal relative to its
// asteroid.
const CrystalKnockOffSpeed = 10.0

func (w *World) addCrystal(position, asteroidVelocity physics.Vec3) {
	velocity := asteroidVelocity.Add(physics.RandomUnitVector(w.rng).Mul(CrystalKnockOffSpeed))
	w.Crystals = append(w.Crystals, entity.NewCrystal(w.ids.Next(), position, velocity, w.rng))
}

// view returns what the drones react to this tick
func (w *World) view() agent.View {
	return agent.View{
		Leader:    w.Player,
		Drones:    w.Drones,
		Asteroids: w.Asteroids,
		Crystals:  w.Crystals,
	}
}

// LiveCrystals returns the number of crystals still in play
func (w *World) LiveCrystals() int {
	n := 0
	for _, c := range w.Crystals {
		if !c.Collected {
			n++
		}
	}
	return n
}
