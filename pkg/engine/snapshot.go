// pkg/engine/snapshot.go
package engine

import (
	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// State represents an immutable snapshot of the world. It is safe to hand
// to other goroutines.
type State struct {
	Tick       uint64          `json:"tick"`
	Paused     bool            `json:"paused"`
	Collected  int             `json:"collected"`
	LiveDrones int             `json:"live_drones"`
	Hole       HoleState       `json:"hole"`
	Asteroids  []AsteroidState `json:"asteroids"`
	Crystals   []CrystalState  `json:"crystals"`
	Player     ShipState       `json:"player"`
	Drones     []DroneState    `json:"drones"`
}

// BodyState represents a snapshot of the fields every body shares
type BodyState struct {
	ID       entity.ID    `json:"id"`
	Position physics.Vec3 `json:"position"`
	Velocity physics.Vec3 `json:"velocity"`
	Forward  physics.Vec3 `json:"forward"`
	Up       physics.Vec3 `json:"up"`
	Mass     float64      `json:"mass"`
	Radius   float64      `json:"radius"`
}

// HoleState represents a snapshot of the black hole
type HoleState struct {
	BodyState
	DiskRadius float64 `json:"disk_radius"`
}

// AsteroidState represents a snapshot of an asteroid
type AsteroidState struct {
	BodyState
	Inner       float64 `json:"inner"`
	HasCrystals bool    `json:"has_crystals"`
}

// CrystalState represents a snapshot of a crystal still in play
type CrystalState struct {
	BodyState
}

// ShipState represents a snapshot of the player's ship
type ShipState struct {
	BodyState
	Alive bool `json:"alive"`
}

// DroneState represents a snapshot of a drone
type DroneState struct {
	ShipState
	Slot int    `json:"slot"`
	Mode string `json:"mode"`
}

// Snapshot returns a copy of the world's current state. Collected crystals
// are left out.
func (w *World) Snapshot() *State {
	return &State{
		Tick:       w.Ticks,
		Paused:     w.Paused,
		Collected:  w.Collected,
		LiveDrones: w.LiveDrones,
		Hole: HoleState{
			BodyState:  bodyState(w.Hole.Core()),
			DiskRadius: w.Hole.DiskRadius,
		},
		Asteroids: w.asteroidStates(),
		Crystals:  w.crystalStates(),
		Player:    shipState(w.Player),
		Drones:    w.droneStates(),
	}
}

func bodyState(b *entity.Body) BodyState {
	return BodyState{
		ID:       b.ID,
		Position: b.Position(),
		Velocity: b.Velocity,
		Forward:  b.Forward(),
		Up:       b.Up(),
		Mass:     b.Mass,
		Radius:   b.Radius,
	}
}

func shipState(s *entity.Ship) ShipState {
	return ShipState{BodyState: bodyState(s.Core()), Alive: s.Alive}
}

func (w *World) asteroidStates() []AsteroidState {
	states := make([]AsteroidState, 0, len(w.Asteroids))
	for _, a := range w.Asteroids {
		states = append(states, AsteroidState{
			BodyState:   bodyState(a.Core()),
			Inner:       a.Inner,
			HasCrystals: a.HasCrystals,
		})
	}
	return states
}

func (w *World) crystalStates() []CrystalState {
	states := make([]CrystalState, 0, len(w.Crystals))
	for _, c := range w.Crystals {
		if !c.Collected {
			states = append(states, CrystalState{BodyState: bodyState(c.Core())})
		}
	}
	return states
}

func (w *World) droneStates() []DroneState {
	states := make([]DroneState, 0, len(w.Drones))
	for _, d := range w.Drones {
		states = append(states, DroneState{
			ShipState: shipState(&d.Ship),
			Slot:      d.Slot,
			Mode:      d.Mode.String(),
		})
	}
	return states
}

// Render draws every body still in play, then presents the frame.
func (w *World) Render(r entity.Renderer) {
	r.Clear()
	w.Hole.Render(r)
	for _, a := range w.Asteroids {
		a.Render(r)
	}
	for _, c := range w.Crystals {
		if !c.Collected {
			c.Render(r)
		}
	}
	if w.Player.Alive {
		w.Player.Render(r)
	}
	for _, d := range w.Drones {
		if d.Alive {
			d.Render(r)
		}
	}
	r.Present()
}
