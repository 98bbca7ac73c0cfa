// pkg/agent/agent_test.go
package agent

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

func droneParams(pos, vel physics.Vec3) entity.ShipParams {
	return entity.ShipParams{
		Position:      pos,
		Velocity:      vel,
		Mass:          100,
		Radius:        2,
		MainAccel:     250,
		ManeuverAccel: 25,
		TurnRate:      1,
	}
}

func leaderAt(pos, vel physics.Vec3) *entity.Ship {
	return entity.NewShip(100, entity.ShipParams{
		Position: pos, Velocity: vel, Mass: 1000, Radius: 4,
		MainAccel: 500, ManeuverAccel: 50, TurnRate: 3,
	})
}

func formation(n int, spacing float64) []*entity.Drone {
	drones := make([]*entity.Drone, n)
	for i := range drones {
		drones[i] = entity.NewDrone(entity.ID(i+1), i, droneParams(physics.Vec3{float64(i) * spacing, 0, 0}, physics.Zero))
	}
	return drones
}

func rock(pos physics.Vec3, outer float64) *entity.Asteroid {
	rng := rand.New(rand.NewPCG(1, 1))
	return entity.NewAsteroid(200, entity.AsteroidParams{Position: pos, Inner: outer / 2, Outer: outer}, rng, physics.ConstantField(0), entity.UnitSphere(3, 4))
}

func crystalAt(pos physics.Vec3) *entity.Crystal {
	return entity.NewCrystal(300, pos, physics.Zero, rand.New(rand.NewPCG(2, 2)))
}

func modes(decisions []Decision) []entity.Mode {
	out := make([]entity.Mode, len(decisions))
	for i, d := range decisions {
		out[i] = d.Mode
	}
	return out
}

func TestInterceptTime(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		distKm   float64
		dt       float64
		expected float64
	}{
		{"at_rest", 0, 0.5, 1, math.Sqrt(250) / 250},
		{"no_distance", 40, 0, 1.0 / 60, 0},
		{"moving", 10, 1, 0.5, (math.Sqrt(600) - 10) * 0.5 / 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, InterceptTime(tt.speed, tt.distKm, tt.dt), 1e-12)
		})
	}
}

func TestSafeDistance(t *testing.T) {
	d := entity.NewDrone(1, 0, droneParams(physics.Zero, physics.Vec3{100, 0, 0}))
	a := rock(physics.Vec3{1000, 0, 0}, 80)
	a.Velocity = physics.Vec3{-150, 0, 0}

	// 250/25 + 80 + 2 + 50
	assert.InDelta(t, 142.0, SafeDistance(d, a), 1e-12)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		setup    func() View
		expected []entity.Mode
	}{
		{
			name: "all_escort_without_crystals",
			setup: func() View {
				return View{Drones: formation(5, 10)}
			},
			expected: []entity.Mode{entity.ModeEscort, entity.ModeEscort, entity.ModeEscort, entity.ModeEscort, entity.ModeEscort},
		},
		{
			name: "last_live_drone_pursues",
			setup: func() View {
				drones := formation(5, 10)
				drones[4].MarkDead()
				return View{Drones: drones, Crystals: []*entity.Crystal{crystalAt(physics.Vec3{0, 500, 0})}}
			},
			expected: []entity.Mode{entity.ModeEscort, entity.ModeEscort, entity.ModeEscort, entity.ModePursue, entity.ModeDead},
		},
		{
			name: "collected_crystals_ignored",
			setup: func() View {
				c := crystalAt(physics.Vec3{0, 500, 0})
				c.MarkCollected()
				return View{Drones: formation(2, 10), Crystals: []*entity.Crystal{c}}
			},
			expected: []entity.Mode{entity.ModeEscort, entity.ModeEscort},
		},
		{
			name: "avoid_overrides_pursue",
			setup: func() View {
				drones := formation(2, 1000)
				return View{
					Drones:    drones,
					Crystals:  []*entity.Crystal{crystalAt(physics.Vec3{0, 500, 0})},
					Asteroids: []*entity.Asteroid{rock(physics.Vec3{1080, 0, 0}, 40)},
				}
			},
			expected: []entity.Mode{entity.ModeEscort, entity.ModeAvoid},
		},
		{
			name: "avoid_overrides_escort",
			setup: func() View {
				return View{
					Drones:    formation(2, 1000),
					Asteroids: []*entity.Asteroid{rock(physics.Vec3{0, 60, 0}, 40)},
				}
			},
			expected: []entity.Mode{entity.ModeAvoid, entity.ModeEscort},
		},
		{
			name: "dead_drone_never_avoids",
			setup: func() View {
				drones := formation(1, 0)
				drones[0].MarkDead()
				return View{Drones: drones, Asteroids: []*entity.Asteroid{rock(physics.Zero, 40)}}
			},
			expected: []entity.Mode{entity.ModeDead},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := modes(Classify(tt.setup()))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClassify_TargetStaysDesignatedWhileAvoiding(t *testing.T) {
	drones := formation(1, 0)
	crystals := []*entity.Crystal{crystalAt(physics.Vec3{0, 500, 0}), crystalAt(physics.Vec3{0, -500, 0})}
	view := View{Drones: drones, Crystals: crystals, Asteroids: []*entity.Asteroid{rock(physics.Vec3{50, 0, 0}, 20)}}

	dec := Classify(view)[0]
	assert.Equal(t, entity.ModeAvoid, dec.Mode)
	assert.Equal(t, 0, dec.Hazard)

	view.Asteroids = nil
	dec = Classify(view)[0]
	assert.Equal(t, entity.ModePursue, dec.Mode)
	assert.Equal(t, 1, dec.Target, "the last crystal in play is the target")
}

func TestClassify_HazardHasSmallestSafeDistance(t *testing.T) {
	drones := formation(1, 0)
	big := rock(physics.Vec3{100, 0, 0}, 90)
	small := rock(physics.Vec3{0, 50, 0}, 10)

	dec := Classify(View{Drones: drones, Asteroids: []*entity.Asteroid{big, small}})[0]
	require.Equal(t, entity.ModeAvoid, dec.Mode)
	assert.Equal(t, 1, dec.Hazard)
}

func TestController_Escort(t *testing.T) {
	params := DefaultParams()
	params.Jitter = 0

	t.Run("far_turns_and_thrusts", func(t *testing.T) {
		c := NewController(params, rand.New(rand.NewPCG(1, 1)))
		leader := leaderAt(physics.Vec3{0, 300e3, 0}, physics.Zero)
		d := entity.NewDrone(1, 0, droneParams(physics.Vec3{0, 0, 0}, physics.Zero))

		c.Escort(d, leader, 0.1)

		goalDir := leader.EscortPoint(0).Sub(d.Position()).Normalize()
		assert.Less(t, physics.AngleBetween(d.Forward(), goalDir), physics.AngleBetween(physics.DefaultForward, goalDir))
		assert.InDelta(t, 25.0, d.Speed(), 1e-9, "main engine for 0.1 s")
		assert.True(t, physics.SameHemisphere(d.Velocity, d.Forward()))
	})

	t.Run("far_brakes_when_too_fast", func(t *testing.T) {
		c := NewController(params, rand.New(rand.NewPCG(1, 1)))
		leader := leaderAt(physics.Vec3{300e3, 0, 0}, physics.Zero)
		d := entity.NewDrone(1, 3, droneParams(physics.Zero, physics.Vec3{500, 0, 0}))

		c.Escort(d, leader, 0.1)
		assert.Less(t, d.Speed(), 500.0)
	})

	t.Run("near_maneuvers_toward_slot", func(t *testing.T) {
		c := NewController(params, rand.New(rand.NewPCG(1, 1)))
		leader := leaderAt(physics.Zero, physics.Vec3{0, 0, 0})
		d := entity.NewDrone(1, 0, droneParams(physics.Vec3{3, 4, 100}, physics.Zero))

		c.Escort(d, leader, 0.1)
		assert.True(t, physics.NearlyEqual(d.Velocity, physics.Vec3{0, 0, -2.5}, 1e-9), "Velocity = %v", d.Velocity)
		assert.Equal(t, physics.DefaultForward, d.Forward(), "near mode does not turn")
	})

	t.Run("one_km_out_stays_near", func(t *testing.T) {
		c := NewController(params, rand.New(rand.NewPCG(1, 1)))
		leader := leaderAt(physics.Zero, physics.Zero)
		d := entity.NewDrone(1, 0, droneParams(physics.Vec3{3, 4, 1000}, physics.Zero))

		c.Escort(d, leader, 1.0/60)
		assert.Equal(t, physics.DefaultForward, d.Forward(), "near mode does not turn")
		assert.InDelta(t, 25.0/60, d.Speed(), 1e-9, "maneuver thrust only")
	})

	t.Run("near_clamps_velocity", func(t *testing.T) {
		c := NewController(params, rand.New(rand.NewPCG(1, 1)))
		leader := leaderAt(physics.Zero, physics.Vec3{0, 0, 7})
		d := entity.NewDrone(1, 0, droneParams(physics.Vec3{3, 4, 10}, physics.Vec3{0, 0, 100}))

		c.Escort(d, leader, 0.1)
		assert.True(t, physics.NearlyEqual(d.Velocity, physics.Vec3{0, 0, -3}, 1e-9), "Velocity = %v", d.Velocity)
	})

	t.Run("at_slot_never_nan", func(t *testing.T) {
		c := NewController(params, rand.New(rand.NewPCG(1, 1)))
		leader := leaderAt(physics.Zero, physics.Zero)
		d := entity.NewDrone(1, 0, droneParams(leader.EscortPoint(0), physics.Zero))

		c.Escort(d, leader, 0.1)
		for i := 0; i < 3; i++ {
			assert.False(t, math.IsNaN(d.Velocity[i]))
			assert.False(t, math.IsNaN(d.Forward()[i]))
		}
	})
}

func TestController_EscortJitterBounded(t *testing.T) {
	c := NewController(DefaultParams(), rand.New(rand.NewPCG(9, 9)))
	for i := 0; i < 1000; i++ {
		j := c.jitter()
		for k := 0; k < 3; k++ {
			assert.LessOrEqual(t, math.Abs(j[k]), 0.05)
		}
	}
}

func TestController_Pursue(t *testing.T) {
	c := NewController(DefaultParams(), rand.New(rand.NewPCG(1, 1)))

	t.Run("far_uses_main_engine", func(t *testing.T) {
		d := entity.NewDrone(1, 0, droneParams(physics.Zero, physics.Zero))
		crystal := crystalAt(physics.Vec3{0, 0, 600e3})

		c.Pursue(d, crystal, 0.1)
		assert.InDelta(t, 1.0, physics.AngleBetween(physics.DefaultForward, d.Forward()), 1e-9, "turn limited to one radian")
		assert.InDelta(t, 25.0, d.Speed(), 1e-9)
	})

	t.Run("hundred_km_out_stays_near", func(t *testing.T) {
		d := entity.NewDrone(1, 0, droneParams(physics.Zero, physics.Zero))
		crystal := crystalAt(physics.Vec3{0, 100e3, 0})

		c.Pursue(d, crystal, 0.1)
		assert.Equal(t, physics.DefaultForward, d.Forward())
		assert.InDelta(t, 2.5, d.Speed(), 1e-9)
	})

	t.Run("near_maneuvers", func(t *testing.T) {
		d := entity.NewDrone(1, 0, droneParams(physics.Zero, physics.Zero))
		crystal := crystalAt(physics.Vec3{0, 100, 0})

		c.Pursue(d, crystal, 0.1)
		assert.True(t, physics.NearlyEqual(d.Velocity, physics.Vec3{0, 2.5, 0}, 1e-9), "Velocity = %v", d.Velocity)
	})

	t.Run("on_target_holds", func(t *testing.T) {
		d := entity.NewDrone(1, 0, droneParams(physics.Vec3{5, 5, 5}, physics.Zero))
		crystal := crystalAt(physics.Vec3{5, 5, 5})

		c.Pursue(d, crystal, 0.1)
		assert.Equal(t, physics.Zero, d.Velocity)
	})
}

func TestAvoid(t *testing.T) {
	d := entity.NewDrone(1, 0, droneParams(physics.Zero, physics.Zero))
	hazard := rock(physics.Vec3{-100, 0, 0}, 40)

	Avoid(d, hazard, 1.0, 0.1)
	assert.Equal(t, physics.DefaultForward, d.Forward(), "already facing away")
	assert.True(t, physics.NearlyEqual(d.Velocity, physics.Vec3{25, 0, 0}, 1e-9), "Velocity = %v", d.Velocity)

	coincident := entity.NewDrone(2, 1, droneParams(physics.Vec3{-100, 0, 0}, physics.Zero))
	Avoid(coincident, hazard, 1.0, 0.1)
	assert.Equal(t, physics.DefaultForward, coincident.Forward(), "zero direction keeps forward")
}

func TestController_Steer(t *testing.T) {
	c := NewController(DefaultParams(), rand.New(rand.NewPCG(1, 1)))
	leader := leaderAt(physics.Vec3{0, 1000, 0}, physics.Zero)
	drones := formation(2, 0)
	view := View{
		Leader:    leader,
		Drones:    drones,
		Asteroids: []*entity.Asteroid{rock(physics.Vec3{-60, 0, 0}, 10)},
	}

	decisions := Classify(view)
	require.Equal(t, entity.ModeAvoid, decisions[0].Mode)
	for i, d := range drones {
		c.Steer(d, decisions[i], view, 0.1)
	}
	assert.True(t, physics.NearlyEqual(drones[0].Velocity, physics.Vec3{25, 0, 0}, 1e-9))

	dead := entity.NewDrone(9, 2, droneParams(physics.Zero, physics.Zero))
	dead.MarkDead()
	c.Steer(dead, Decision{Mode: entity.ModeDead, Hazard: None, Target: None}, view, 0.1)
	assert.Equal(t, physics.Zero, dead.Velocity)
}
