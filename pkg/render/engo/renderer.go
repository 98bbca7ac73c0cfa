// pkg/render/engo/renderer.go
package engo

import (
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// MinSpriteSize keeps small bodies visible, in pixels.
const MinSpriteSize = 4

// spriteSink is the part of common.RenderSystem the renderer uses
type spriteSink interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
	Remove(basic ecs.BasicEntity)
}

// sprite is one ECS entity drawn for a body
type sprite struct {
	basic  ecs.BasicEntity
	render common.RenderComponent
	space  common.SpaceComponent
	seen   bool
}

// EngoRenderer implements entity.Renderer by keeping one engo sprite per
// body, looked up by body ID. Sprites of bodies not drawn in a frame are
// removed when the frame is presented.
type EngoRenderer struct {
	sink   spriteSink
	assets *AssetManager
	scale  float64 // pixels per metre

	sprites map[entity.ID]*sprite
	path    []*sprite
	pathLen int

	// predicted paths, drawn while debugging
	debug      bool
	pathPoints int
	source     *entity.Body
}

// NewEngoRenderer creates a renderer adding sprites to sink. scale converts
// metres to pixels.
func NewEngoRenderer(sink spriteSink, assets *AssetManager, scale float64) *EngoRenderer {
	physics.Assert(scale > 0, "engo renderer scale %v must be positive", scale)
	return &EngoRenderer{
		sink:    sink,
		assets:  assets,
		scale:   scale,
		sprites: make(map[entity.ID]*sprite),
	}
}

// SetDebug turns predicted path drawing on or off. Each ship and drone gets
// points dots.
func (r *EngoRenderer) SetDebug(on bool, points int) {
	r.debug = on
	r.pathPoints = points
}

// WorldToPixels projects a world position onto the X/Z plane in pixels
func (r *EngoRenderer) WorldToPixels(pos physics.Vec3) engo.Point {
	return engo.Point{
		X: float32(pos.X() * r.scale),
		Y: float32(pos.Z() * r.scale),
	}
}

// Clear implements entity.Renderer
func (r *EngoRenderer) Clear() {
	for _, s := range r.sprites {
		s.seen = false
	}
	r.pathLen = 0
}

// Present implements entity.Renderer. It drops the sprites of bodies that
// were not drawn since Clear.
func (r *EngoRenderer) Present() {
	for id, s := range r.sprites {
		if !s.seen {
			r.sink.Remove(s.basic)
			delete(r.sprites, id)
		}
	}
	for _, s := range r.path[r.pathLen:] {
		r.sink.Remove(s.basic)
	}
	r.path = r.path[:r.pathLen]
}

// RenderBlackHole implements entity.Renderer. The sprite spans the
// accretion disk.
func (r *EngoRenderer) RenderBlackHole(hole *entity.BlackHole) {
	r.source = &hole.Body
	r.place(hole.ID, entity.KindBlackHole, hole.Position(), hole.DiskRadius, 0,
		BodyColor(entity.KindBlackHole, entity.ModeDead, false))
}

// RenderAsteroid implements entity.Renderer
func (r *EngoRenderer) RenderAsteroid(asteroid *entity.Asteroid) {
	r.place(asteroid.ID, entity.KindAsteroid, asteroid.Position(), asteroid.Radius, 0,
		BodyColor(entity.KindAsteroid, entity.ModeDead, asteroid.HasCrystals))
}

// RenderCrystal implements entity.Renderer
func (r *EngoRenderer) RenderCrystal(crystal *entity.Crystal) {
	if crystal.Collected {
		return
	}
	r.place(crystal.ID, entity.KindCrystal, crystal.Position(), crystal.Radius, 0,
		BodyColor(entity.KindCrystal, entity.ModeDead, false))
}

// RenderShip implements entity.Renderer
func (r *EngoRenderer) RenderShip(ship *entity.Ship) {
	if !ship.Alive {
		return
	}
	r.place(ship.ID, entity.KindShip, ship.Position(), ship.Radius, heading(ship.Forward()),
		BodyColor(entity.KindShip, entity.ModeDead, false))
	if r.debug && r.source != nil {
		r.RenderPath(ship.FuturePath(r.source, r.pathPoints))
	}
}

// RenderDrone implements entity.Renderer
func (r *EngoRenderer) RenderDrone(drone *entity.Drone) {
	if !drone.Alive {
		return
	}
	r.place(drone.ID, entity.KindDrone, drone.Position(), drone.Radius, heading(drone.Forward()),
		BodyColor(entity.KindDrone, drone.Mode, false))
	if r.debug && r.source != nil {
		r.RenderPath(drone.FuturePath(r.source, r.pathPoints))
	}
}

// RenderPath draws a predicted path as a trail of dots. Call it between
// Clear and Present.
func (r *EngoRenderer) RenderPath(points []physics.Vec3) {
	for _, p := range points {
		var s *sprite
		if r.pathLen < len(r.path) {
			s = r.path[r.pathLen]
		} else {
			s = r.newSprite(common.Circle{}, colorPath)
			r.path = append(r.path, s)
		}
		r.pathLen++
		r.setBounds(s, r.WorldToPixels(p), MinSpriteSize/2, 0)
	}
}

// Len returns the number of body sprites
func (r *EngoRenderer) Len() int {
	return len(r.sprites)
}

// PathLen returns the number of path dots in the last frame
func (r *EngoRenderer) PathLen() int {
	return len(r.path)
}

// place updates or creates the sprite for a body
func (r *EngoRenderer) place(id entity.ID, kind entity.Kind, pos physics.Vec3, radius float64, rotation float32, tint color.Color) {
	s, exists := r.sprites[id]
	if !exists {
		s = r.newSprite(r.assets.Sprite(kind), tint)
		r.sprites[id] = s
	}
	s.seen = true
	s.render.Color = tint

	size := float32(2 * radius * r.scale)
	r.setBounds(s, r.WorldToPixels(pos), size, rotation)
}

func (r *EngoRenderer) newSprite(drawable common.Drawable, tint color.Color) *sprite {
	s := &sprite{basic: ecs.NewBasic()}
	s.render = common.RenderComponent{Drawable: drawable, Color: tint}
	r.sink.Add(&s.basic, &s.render, &s.space)
	return s
}

// setBounds centres a sprite of the given diameter on center
func (r *EngoRenderer) setBounds(s *sprite, center engo.Point, size, rotation float32) {
	if size < MinSpriteSize {
		size = MinSpriteSize
	}
	s.space.Width = size
	s.space.Height = size
	s.space.Position = engo.Point{X: center.X - size/2, Y: center.Y - size/2}
	s.space.Rotation = rotation
}

// heading returns the on-screen rotation in degrees of a forward vector
// projected onto the X/Z plane, clockwise from up.
func heading(forward physics.Vec3) float32 {
	if physics.IsZero(physics.Vec3{forward.X(), 0, forward.Z()}) {
		return 0
	}
	return float32(math.Atan2(forward.X(), -forward.Z()) * 180 / math.Pi)
}
