// pkg/entity/drone.go
package entity

import (
	"fmt"

	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// DroneCount is the number of formation slots.
const DroneCount = 5

// slotOffsets are the formation positions in the leader's local frame.
var slotOffsets = [DroneCount]physics.Vec3{
	{3, 4, 0},
	{0, 8, -6},
	{0, 8, 6},
	{0, -5, 0},
	{0, 10, 0},
}

// SlotOffset returns the local offset of a formation slot.
func SlotOffset(slot int) physics.Vec3 {
	physics.Assert(slot >= 0 && slot < DroneCount, "formation slot %d out of range", slot)
	return slotOffsets[slot]
}

// Mode is a drone's behaviour for the current tick.
type Mode int

const (
	ModeDead Mode = iota
	ModeEscort
	ModePursue
	ModeAvoid
)

func (m Mode) String() string {
	switch m {
	case ModeDead:
		return "dead"
	case ModeEscort:
		return "escort"
	case ModePursue:
		return "pursue"
	case ModeAvoid:
		return "avoid"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Drone is an escort ship flying in the player's formation.
type Drone struct {
	Ship
	Slot int
	Mode Mode
}

// NewDrone creates a live drone for a formation slot.
func NewDrone(id ID, slot int, p ShipParams) *Drone {
	physics.Assert(slot >= 0 && slot < DroneCount, "formation slot %d out of range", slot)
	return &Drone{
		Ship: *newShip(id, p, ModelDrone),
		Slot: slot,
		Mode: ModeEscort,
	}
}

// Kind returns KindDrone
func (d *Drone) Kind() Kind { return KindDrone }

// Render draws the drone
func (d *Drone) Render(r Renderer) { r.RenderDrone(d) }

func (d *Drone) sealed() {}

// MarkDead destroys the drone. It cannot be undone.
func (d *Drone) MarkDead() {
	d.Alive = false
	d.Mode = ModeDead
}

// FuturePath predicts n positions of the drone with the finer drone step.
func (d *Drone) FuturePath(source *Body, n int) []physics.Vec3 {
	return predictPath(d.Body, source, n, DronePathDivisor)
}
