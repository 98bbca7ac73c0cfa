// pkg/entity/crystal.go
package entity

import (
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// Crystal constants
const (
	CrystalRadius  = 2.0
	CrystalMass    = 1.0
	CrystalScale   = 3 * CrystalRadius / 0.7
	MaxCrystalSpin = 6.0 // rad/s
)

// Crystal is a collectible released from an asteroid.
type Crystal struct {
	Body
	Spin      Spin
	Collected bool
}

// NewCrystal creates a crystal with a random spin.
func NewCrystal(id ID, position, velocity physics.Vec3, rng physics.Rand) *Crystal {
	return &Crystal{
		Body: NewBody(id, position, velocity, CrystalMass, CrystalRadius, CrystalScale, ModelCrystal),
		Spin: Spin{
			Axis: physics.RandomUnitVector(rng),
			Rate: rng.Float64() * MaxCrystalSpin,
		},
	}
}

// Kind returns KindCrystal
func (c *Crystal) Kind() Kind { return KindCrystal }

// Render draws the crystal
func (c *Crystal) Render(r Renderer) { r.RenderCrystal(c) }

func (c *Crystal) sealed() {}

// MarkCollected removes the crystal from play. It cannot be undone.
func (c *Crystal) MarkCollected() {
	c.Collected = true
}

// Update integrates the crystal and applies its spin.
func (c *Crystal) Update(dt float64, source *Body) {
	c.Integrate(dt, source)
	c.Spin.Apply(&c.Frame, dt)
}
