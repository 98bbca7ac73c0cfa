package render

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/engine"
	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

func newScreen(t *testing.T, width, height int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(width, height)
	t.Cleanup(s.Fini)
	return s
}

func rowText(s tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		ch, _, _, _ := s.GetContent(x, y)
		b.WriteRune(ch)
	}
	return b.String()
}

func cell(s tcell.Screen, x, y int) (rune, tcell.Style) {
	ch, _, style, _ := s.GetContent(x, y)
	return ch, style
}

func testShip(pos physics.Vec3) entity.ShipParams {
	return entity.ShipParams{
		Position:      pos,
		Mass:          100,
		Radius:        2,
		MainAccel:     500,
		ManeuverAccel: 50,
		TurnRate:      3,
	}
}

func testAsteroid(t *testing.T, pos physics.Vec3, outer float64) *entity.Asteroid {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))
	return entity.NewAsteroid(1, entity.AsteroidParams{Position: pos, Inner: outer / 4, Outer: outer},
		rng, physics.ConstantField(0), entity.UnitSphere(4, 6))
}

func TestTerminalRenderer_WorldToScreen(t *testing.T) {
	tests := []struct {
		name   string
		center physics.Vec3
		pos    physics.Vec3
		wantX  int
		wantY  int
	}{
		{"origin", physics.Zero, physics.Zero, 20, 11},
		{"east", physics.Zero, physics.Vec3{100, 0, 0}, 22, 11},
		{"south", physics.Zero, physics.Vec3{0, 0, 100}, 20, 12},
		{"west rounds down", physics.Zero, physics.Vec3{-50, 0, 0}, 19, 11},
		{"height ignored", physics.Zero, physics.Vec3{0, 5000, 0}, 20, 11},
		{"moved center", physics.Vec3{300, 0, -200}, physics.Vec3{300, 0, -200}, 20, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewTerminalRenderer(newScreen(t, 40, 21), 100)
			r.SetCenter(tt.center)

			x, y := r.worldToScreen(tt.pos)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestNewTerminalRenderer_RejectsBadScale(t *testing.T) {
	s := newScreen(t, 10, 10)
	assert.Panics(t, func() { NewTerminalRenderer(s, 0) })
}

func TestTerminalRenderer_RenderShip(t *testing.T) {
	s := newScreen(t, 40, 21)
	r := NewTerminalRenderer(s, 100)
	ship := entity.NewShip(1, testShip(physics.Zero))

	r.Clear()
	r.RenderShip(ship)
	ch, style := cell(s, 20, 11)
	assert.Equal(t, GlyphPlayer, ch)
	assert.Equal(t, stylePlayer, style)

	ship.MarkDead()
	r.Clear()
	r.RenderShip(ship)
	ch, _ = cell(s, 20, 11)
	assert.Equal(t, ' ', ch, "dead ships are not drawn")
}

func TestTerminalRenderer_RenderDrone(t *testing.T) {
	s := newScreen(t, 40, 21)
	r := NewTerminalRenderer(s, 100)
	drone := entity.NewDrone(7, 2, testShip(physics.Vec3{0, 0, 100}))
	drone.Mode = entity.ModeAvoid

	r.Clear()
	r.RenderDrone(drone)

	ch, style := cell(s, 20, 12)
	assert.Equal(t, '3', ch, "drones are numbered from one")
	assert.Equal(t, droneStyles[entity.ModeAvoid], style)
}

func TestTerminalRenderer_RenderAsteroid(t *testing.T) {
	tests := []struct {
		name        string
		outer       float64
		hasCrystals bool
		wantGlyph   rune
		wantStyle   tcell.Style
	}{
		{"large with crystals", 400, true, GlyphAsteroid, styleCrystal},
		{"large mined", 400, false, GlyphAsteroid, styleAsteroid},
		{"small", 50, false, GlyphSmallAsteroid, styleAsteroid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScreen(t, 40, 21)
			r := NewTerminalRenderer(s, 100)
			a := testAsteroid(t, physics.Zero, tt.outer)
			if !tt.hasCrystals {
				a.RemoveCrystals()
			}

			r.Clear()
			r.RenderAsteroid(a)

			ch, style := cell(s, 20, 11)
			assert.Equal(t, tt.wantGlyph, ch)
			assert.Equal(t, tt.wantStyle, style)
		})
	}
}

func TestTerminalRenderer_RenderCrystal(t *testing.T) {
	s := newScreen(t, 40, 21)
	r := NewTerminalRenderer(s, 100)
	c := entity.NewCrystal(3, physics.Vec3{200, 0, 0}, physics.Zero, rand.New(rand.NewPCG(3, 4)))

	r.Clear()
	r.RenderCrystal(c)
	ch, _ := cell(s, 24, 11)
	assert.Equal(t, GlyphCrystal, ch)

	c.MarkCollected()
	r.Clear()
	r.RenderCrystal(c)
	ch, _ = cell(s, 24, 11)
	assert.Equal(t, ' ', ch)
}

func TestTerminalRenderer_RenderBlackHole(t *testing.T) {
	s := newScreen(t, 40, 21)
	r := NewTerminalRenderer(s, 100)
	hole := entity.NewBlackHole(1, physics.Zero, entity.BlackHoleMass, 500)

	r.Clear()
	r.RenderBlackHole(hole)

	ch, style := cell(s, 20, 11)
	assert.Equal(t, GlyphHole, ch)
	assert.Equal(t, styleHole, style)

	ch, _ = cell(s, 30, 11)
	assert.Equal(t, GlyphDisk, ch, "the disk edge lies on the +X axis")
	ch, _ = cell(s, 20, 16)
	assert.Equal(t, GlyphDisk, ch, "the disk edge lies on the +Z axis")
}

func TestTerminalRenderer_ClipsOffMap(t *testing.T) {
	s := newScreen(t, 40, 21)
	r := NewTerminalRenderer(s, 100)

	r.Clear()
	r.SetStatus(Status{Tick: 1})
	r.RenderShip(entity.NewShip(1, testShip(physics.Vec3{0, 0, -1100})))
	r.RenderShip(entity.NewShip(2, testShip(physics.Vec3{5000, 0, 0})))
	r.RenderShip(entity.NewShip(3, testShip(physics.Vec3{0, 0, 5000})))

	for y := 1; y < 21; y++ {
		assert.NotContains(t, rowText(s, y, 40), string(GlyphPlayer), "row %d", y)
	}
	ch, _ := cell(s, 20, 0)
	assert.NotEqual(t, GlyphPlayer, ch, "bodies never overwrite the HUD row")
}

func TestTerminalRenderer_PresentDrawsStatus(t *testing.T) {
	s := newScreen(t, 60, 10)
	r := NewTerminalRenderer(s, 100)

	r.Clear()
	r.SetStatus(Status{Collected: 3, LiveDrones: 4, Drones: 5, Tick: 120, Paused: true})
	r.Present()

	hud := rowText(s, 0, 60)
	assert.True(t, strings.HasPrefix(hud, "crystals 3  drones 4/5  tick 120"), hud)
	assert.Contains(t, hud, "PAUSED")
	_, style := cell(s, 0, 0)
	assert.Equal(t, stylePaused, style)
}

func TestTerminalRenderer_ClearFollowsResize(t *testing.T) {
	s := newScreen(t, 40, 21)
	r := NewTerminalRenderer(s, 100)

	s.SetSize(60, 31)
	r.Clear()

	x, y := r.worldToScreen(physics.Zero)
	assert.Equal(t, 30, x)
	assert.Equal(t, 16, y)
}

func TestTerminalRenderer_RendersWorld(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Population.Asteroids = 4
	cfg.Population.MeshStacks = 4
	cfg.Population.MeshSlices = 6
	w := engine.NewWorld(cfg, rand.New(rand.NewPCG(5, 6)), physics.ConstantField(0), nil, nil)
	stepper := engine.NewStepper(w)

	s := newScreen(t, 80, 25)
	r := NewTerminalRenderer(s, cfg.Render.Zoom)
	r.SetCenter(w.Player.Position())
	r.SetStatus(StatusOf(stepper))
	w.Render(r)

	// the formation is smaller than a cell; the last drone drawn tops it
	ch, style := cell(s, 40, 13)
	assert.Equal(t, '5', ch)
	assert.Equal(t, droneStyles[entity.ModeEscort], style)
	assert.Contains(t, rowText(s, 0, 80), "drones 5/5")
}

func TestInputFromKey(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		ch   rune
		want engine.Commands
	}{
		{"space thrusts", tcell.KeyRune, ' ', engine.CmdThrustMain},
		{"shifted comma rolls", tcell.KeyRune, '<', engine.CmdRollLeft},
		{"upper case folds", tcell.KeyRune, 'W', engine.CmdManeuverUp},
		{"quote maneuvers forward", tcell.KeyRune, '"', engine.CmdManeuverForward},
		{"knock off", tcell.KeyRune, 'k', engine.CmdKnockOff},
		{"pause", tcell.KeyRune, 'p', engine.CmdTogglePause},
		{"fast forward", tcell.KeyRune, 'g', engine.CmdFastForward},
		{"arrow up pitches down", tcell.KeyUp, 0, engine.CmdPitchDown},
		{"arrow right yaws", tcell.KeyRight, 0, engine.CmdYawRight},
		{"end resets", tcell.KeyEnd, 0, engine.CmdReset},
		{"unbound rune", tcell.KeyRune, 'x', 0},
		{"unbound key", tcell.KeyF1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tcell.NewEventKey(tt.key, tt.ch, tcell.ModNone)
			assert.Equal(t, tt.want, InputFromKey(ev))
		})
	}
}

func TestIsQuit(t *testing.T) {
	assert.True(t, IsQuit(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.True(t, IsQuit(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)))
	assert.False(t, IsQuit(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
}
