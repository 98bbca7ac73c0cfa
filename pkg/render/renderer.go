// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/logging"
)

// NullRenderer is a headless implementation of entity.Renderer that logs
// every draw at debug level.
type NullRenderer struct {
	logger *logging.Logger
}

// NewNullRenderer creates a new NullRenderer. A nil logger discards.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NullRenderer{
		logger: logger.With("component", "null_renderer"),
	}
}

// Clear implements entity.Renderer.
func (d *NullRenderer) Clear() {
	d.logger.Debug(context.Background(), "Clear called")
}

// Present implements entity.Renderer.
func (d *NullRenderer) Present() {
	d.logger.Debug(context.Background(), "Present called")
}

// RenderBlackHole implements entity.Renderer.
func (d *NullRenderer) RenderBlackHole(hole *entity.BlackHole) {
	ctx := context.Background()
	if hole == nil {
		d.logger.Debug(ctx, "RenderBlackHole called with nil black hole")
		return
	}
	d.logger.Debug(ctx, "RenderBlackHole called",
		"body_id", hole.ID,
		"disk_radius", hole.DiskRadius,
	)
}

// RenderAsteroid implements entity.Renderer.
func (d *NullRenderer) RenderAsteroid(asteroid *entity.Asteroid) {
	ctx := context.Background()
	if asteroid == nil {
		d.logger.Debug(ctx, "RenderAsteroid called with nil asteroid")
		return
	}
	d.logger.Debug(ctx, "RenderAsteroid called",
		"body_id", asteroid.ID,
		"radius", asteroid.Radius,
		"has_crystals", asteroid.HasCrystals,
	)
}

// RenderCrystal implements entity.Renderer.
func (d *NullRenderer) RenderCrystal(crystal *entity.Crystal) {
	ctx := context.Background()
	if crystal == nil {
		d.logger.Debug(ctx, "RenderCrystal called with nil crystal")
		return
	}
	d.logger.Debug(ctx, "RenderCrystal called", "body_id", crystal.ID)
}

// RenderShip implements entity.Renderer.
func (d *NullRenderer) RenderShip(ship *entity.Ship) {
	ctx := context.Background()
	if ship == nil {
		d.logger.Debug(ctx, "RenderShip called with nil ship")
		return
	}
	d.logger.Debug(ctx, "RenderShip called",
		"body_id", ship.ID,
		"alive", ship.Alive,
	)
}

// RenderDrone implements entity.Renderer.
func (d *NullRenderer) RenderDrone(drone *entity.Drone) {
	ctx := context.Background()
	if drone == nil {
		d.logger.Debug(ctx, "RenderDrone called with nil drone")
		return
	}
	d.logger.Debug(ctx, "RenderDrone called",
		"body_id", drone.ID,
		"slot", drone.Slot,
		"mode", drone.Mode.String(),
	)
}
