// pkg/render/terminal.go
package render

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

var (
	styleDefault  = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleHUD      = styleDefault.Foreground(tcell.ColorAqua).Bold(true)
	stylePaused   = styleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleHole     = styleDefault.Foreground(tcell.ColorPurple).Bold(true)
	styleDisk     = styleDefault.Foreground(tcell.ColorDarkGray)
	styleAsteroid = styleDefault.Foreground(tcell.ColorSilver)
	styleCrystal  = styleDefault.Foreground(tcell.ColorLime).Bold(true)
	stylePlayer   = styleDefault.Foreground(tcell.ColorYellow).Bold(true)

	droneStyles = map[entity.Mode]tcell.Style{
		entity.ModeEscort: styleDefault.Foreground(tcell.ColorSkyblue),
		entity.ModePursue: styleDefault.Foreground(tcell.ColorSpringGreen),
		entity.ModeAvoid:  styleDefault.Foreground(tcell.ColorOrangeRed),
	}
)

// Glyphs used on the map
const (
	GlyphHole          = '@'
	GlyphDisk          = '.'
	GlyphAsteroid      = 'O'
	GlyphSmallAsteroid = 'o'
	GlyphCrystal       = '*'
	GlyphPlayer        = 'A'
)

// TerminalRenderer draws a top-down view of the X/Z plane on a tcell
// screen, centred on a point the caller moves with the player. The first
// row holds the HUD.
type TerminalRenderer struct {
	screen    tcell.Screen
	width     int
	height    int
	scale     float64 // metres per cell row
	centerPos physics.Vec3
	status    Status
}

// NewTerminalRenderer creates a renderer on an initialised screen. scale is
// the number of metres covered by one cell row.
func NewTerminalRenderer(screen tcell.Screen, scale float64) *TerminalRenderer {
	physics.Assert(scale > 0, "terminal scale %v must be positive", scale)
	width, height := screen.Size()
	return &TerminalRenderer{
		screen: screen,
		width:  width,
		height: height,
		scale:  scale,
	}
}

// SetCenter sets the center position of the view
func (r *TerminalRenderer) SetCenter(pos physics.Vec3) {
	r.centerPos = pos
}

// SetStatus sets the HUD drawn by the next Present
func (r *TerminalRenderer) SetStatus(s Status) {
	r.status = s
}

// worldToScreen projects pos onto the X/Z plane. Cells are about twice as
// tall as they are wide, so a column covers half the distance of a row.
func (r *TerminalRenderer) worldToScreen(pos physics.Vec3) (int, int) {
	rel := pos.Sub(r.centerPos)
	screenX := int(math.Floor(2*rel.X()/r.scale)) + r.width/2
	screenY := int(math.Floor(rel.Z()/r.scale)) + 1 + (r.height-1)/2
	return screenX, screenY
}

func (r *TerminalRenderer) onMap(x, y int) bool {
	return x >= 0 && x < r.width && y >= 1 && y < r.height
}

func (r *TerminalRenderer) plot(pos physics.Vec3, ch rune, style tcell.Style) {
	x, y := r.worldToScreen(pos)
	if r.onMap(x, y) {
		r.screen.SetContent(x, y, ch, nil, style)
	}
}

// Clear implements entity.Renderer. It also picks up a resized screen.
func (r *TerminalRenderer) Clear() {
	r.width, r.height = r.screen.Size()
	r.screen.Clear()
}

// Present implements entity.Renderer
func (r *TerminalRenderer) Present() {
	style := styleHUD
	if r.status.Paused {
		style = stylePaused
	}
	x := 0
	for _, ch := range r.status.String() {
		if x >= r.width {
			break
		}
		r.screen.SetContent(x, 0, ch, nil, style)
		x++
	}
	r.screen.Show()
}

// RenderBlackHole implements entity.Renderer. The accretion disk is drawn as
// a ring of dots.
func (r *TerminalRenderer) RenderBlackHole(hole *entity.BlackHole) {
	center := hole.Position()
	cells := 2 * math.Pi * hole.DiskRadius / r.scale * 2
	// a multiple of four puts dots on both axes
	steps := 4 * int(math.Ceil(math.Min(math.Max(cells, 16), 720)/4))
	for i := 0; i < steps; i++ {
		angle := 2 * math.Pi * float64(i) / float64(steps)
		offset := physics.Vec3{math.Cos(angle), 0, math.Sin(angle)}.Mul(hole.DiskRadius)
		r.plot(center.Add(offset), GlyphDisk, styleDisk)
	}
	r.plot(center, GlyphHole, styleHole)
}

// RenderAsteroid implements entity.Renderer. Asteroids wider than a cell use
// the large glyph; asteroids still holding crystals take the crystal colour.
func (r *TerminalRenderer) RenderAsteroid(asteroid *entity.Asteroid) {
	glyph := GlyphSmallAsteroid
	if asteroid.Radius >= r.scale {
		glyph = GlyphAsteroid
	}
	style := styleAsteroid
	if asteroid.HasCrystals {
		style = styleCrystal
	}
	r.plot(asteroid.Position(), glyph, style)
}

// RenderCrystal implements entity.Renderer
func (r *TerminalRenderer) RenderCrystal(crystal *entity.Crystal) {
	if crystal.Collected {
		return
	}
	r.plot(crystal.Position(), GlyphCrystal, styleCrystal)
}

// RenderShip implements entity.Renderer
func (r *TerminalRenderer) RenderShip(ship *entity.Ship) {
	if !ship.Alive {
		return
	}
	r.plot(ship.Position(), GlyphPlayer, stylePlayer)
}

// RenderDrone implements entity.Renderer. Drones are numbered by formation
// slot and coloured by mode.
func (r *TerminalRenderer) RenderDrone(drone *entity.Drone) {
	if !drone.Alive {
		return
	}
	style, ok := droneStyles[drone.Mode]
	if !ok {
		style = styleDefault
	}
	r.plot(drone.Position(), rune('1'+drone.Slot), style)
}
