// pkg/render/engo/renderer_test.go
package engo

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/engine"
	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// fakeSink records the entities a renderer adds, standing in for
// common.RenderSystem.
type fakeSink struct {
	render map[uint64]*common.RenderComponent
	space  map[uint64]*common.SpaceComponent
	adds   int
	drops  int
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		render: make(map[uint64]*common.RenderComponent),
		space:  make(map[uint64]*common.SpaceComponent),
	}
}

func (s *fakeSink) Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent) {
	s.render[basic.ID()] = render
	s.space[basic.ID()] = space
	s.adds++
}

func (s *fakeSink) Remove(basic ecs.BasicEntity) {
	delete(s.render, basic.ID())
	delete(s.space, basic.ID())
	s.drops++
}

func testParams(pos physics.Vec3) entity.ShipParams {
	return entity.ShipParams{
		Position:      pos,
		Mass:          1000,
		Radius:        5,
		MainAccel:     10,
		ManeuverAccel: 5,
		TurnRate:      1,
	}
}

// spriteOf returns the sprite drawn for a body
func spriteOf(t *testing.T, r *EngoRenderer, id entity.ID) *sprite {
	t.Helper()
	s, ok := r.sprites[id]
	if !ok {
		t.Fatalf("No sprite for body %d", id)
	}
	return s
}

func TestNewEngoRenderer_BadScalePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic for a zero scale")
		}
	}()
	NewEngoRenderer(newFakeSink(), NewAssetManager(), 0)
}

func TestEngoRenderer_WorldToPixels(t *testing.T) {
	r := NewEngoRenderer(newFakeSink(), NewAssetManager(), 0.5)

	tests := []struct {
		name     string
		pos      physics.Vec3
		expected engo.Point
	}{
		{"Origin", physics.Vec3{0, 0, 0}, engo.Point{X: 0, Y: 0}},
		{"HeightIgnored", physics.Vec3{0, 1000, 0}, engo.Point{X: 0, Y: 0}},
		{"XAndZ", physics.Vec3{100, 7, -40}, engo.Point{X: 50, Y: -20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.WorldToPixels(tt.pos); got != tt.expected {
				t.Errorf("WorldToPixels(%v) = %v, expected %v", tt.pos, got, tt.expected)
			}
		})
	}
}

func TestEngoRenderer_PlacesSprites(t *testing.T) {
	sink := newFakeSink()
	r := NewEngoRenderer(sink, NewAssetManager(), 2)

	ship := entity.NewShip(1, testParams(physics.Vec3{10, 0, 20}))
	r.Clear()
	r.RenderShip(ship)
	r.Present()

	s := spriteOf(t, r, ship.ID)
	if s.space.Width != 20 || s.space.Height != 20 {
		t.Errorf("Expected a 20px sprite, got %vx%v", s.space.Width, s.space.Height)
	}
	if s.space.Position != (engo.Point{X: 10, Y: 30}) {
		t.Errorf("Expected sprite corner {10 30}, got %v", s.space.Position)
	}
	if s.render.Color != colorShip {
		t.Errorf("Expected ship colour, got %v", s.render.Color)
	}
	if sink.adds != 1 {
		t.Errorf("Expected 1 entity added, got %d", sink.adds)
	}
}

func TestEngoRenderer_MinimumSize(t *testing.T) {
	r := NewEngoRenderer(newFakeSink(), NewAssetManager(), 0.01)
	ship := entity.NewShip(1, testParams(physics.Zero))

	r.Clear()
	r.RenderShip(ship)
	r.Present()

	s := spriteOf(t, r, ship.ID)
	if s.space.Width != MinSpriteSize {
		t.Errorf("Expected width clamped to %d, got %v", MinSpriteSize, s.space.Width)
	}
}

func TestEngoRenderer_ReusesSprites(t *testing.T) {
	sink := newFakeSink()
	r := NewEngoRenderer(sink, NewAssetManager(), 1)
	ship := entity.NewShip(1, testParams(physics.Zero))

	for i := 0; i < 3; i++ {
		ship.Frame.Translate(physics.Vec3{10, 0, 0})
		r.Clear()
		r.RenderShip(ship)
		r.Present()
	}

	if sink.adds != 1 {
		t.Errorf("Expected the sprite to be reused, got %d adds", sink.adds)
	}
	if got := spriteOf(t, r, ship.ID).space.Position.X; got != 25 {
		t.Errorf("Expected sprite to follow the ship to x=25, got %v", got)
	}
}

func TestEngoRenderer_PresentDropsUnseen(t *testing.T) {
	sink := newFakeSink()
	r := NewEngoRenderer(sink, NewAssetManager(), 1)
	ship := entity.NewShip(1, testParams(physics.Zero))
	drone := entity.NewDrone(2, 0, testParams(physics.Zero))

	r.Clear()
	r.RenderShip(ship)
	r.RenderDrone(drone)
	r.Present()
	if r.Len() != 2 {
		t.Fatalf("Expected 2 sprites, got %d", r.Len())
	}

	drone.MarkDead()
	r.Clear()
	r.RenderShip(ship)
	r.RenderDrone(drone)
	r.Present()

	if r.Len() != 1 {
		t.Errorf("Expected the dead drone's sprite to go, got %d sprites", r.Len())
	}
	if sink.drops != 1 || len(sink.render) != 1 {
		t.Errorf("Expected 1 entity removed from the sink, got %d removed and %d left", sink.drops, len(sink.render))
	}
}

func TestEngoRenderer_Colours(t *testing.T) {
	r := NewEngoRenderer(newFakeSink(), NewAssetManager(), 1)
	rng := rand.New(rand.NewPCG(1, 2))

	hole := entity.NewBlackHole(1, physics.Zero, entity.BlackHoleMass, 300)
	drone := entity.NewDrone(2, 1, testParams(physics.Zero))
	drone.Mode = entity.ModeAvoid
	crystal := entity.NewCrystal(3, physics.Vec3{50, 0, 0}, physics.Zero, rng)
	collected := entity.NewCrystal(4, physics.Vec3{60, 0, 0}, physics.Zero, rng)
	collected.MarkCollected()

	r.Clear()
	r.RenderBlackHole(hole)
	r.RenderDrone(drone)
	r.RenderCrystal(crystal)
	r.RenderCrystal(collected)
	r.Present()

	if s := spriteOf(t, r, hole.ID); s.space.Width != 600 {
		t.Errorf("Expected the hole sprite to span the disk, got %v", s.space.Width)
	}
	if c := spriteOf(t, r, drone.ID).render.Color; c != modeColors[entity.ModeAvoid] {
		t.Errorf("Expected avoid colour for drone, got %v", c)
	}
	if c := spriteOf(t, r, crystal.ID).render.Color; c != colorCrystal {
		t.Errorf("Expected crystal colour, got %v", c)
	}
	if _, ok := r.sprites[collected.ID]; ok {
		t.Error("Collected crystal should not be drawn")
	}
}

func TestHeading(t *testing.T) {
	tests := []struct {
		name     string
		forward  physics.Vec3
		expected float64
	}{
		{"Up", physics.Vec3{0, 0, -1}, 0},
		{"Right", physics.Vec3{1, 0, 0}, 90},
		{"Down", physics.Vec3{0, 0, 1}, 180},
		{"Left", physics.Vec3{-1, 0, 0}, -90},
		{"Vertical", physics.Vec3{0, 1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := float64(heading(tt.forward)); math.Abs(got-tt.expected) > 1e-4 {
				t.Errorf("heading(%v) = %v, expected %v", tt.forward, got, tt.expected)
			}
		})
	}
}

func TestEngoRenderer_DebugPaths(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Population.Asteroids = 2
	cfg.Population.MeshStacks = 4
	cfg.Population.MeshSlices = 6
	w := engine.NewWorld(cfg, rand.New(rand.NewPCG(3, 4)), physics.ConstantField(0), nil, nil)

	sink := newFakeSink()
	r := NewEngoRenderer(sink, NewAssetManager(), 0.1)

	w.Render(r)
	if r.PathLen() != 0 {
		t.Fatalf("Expected no path dots outside debug, got %d", r.PathLen())
	}

	r.SetDebug(true, 10)
	w.Render(r)
	ships := 1 + len(w.Drones)
	if r.PathLen() != 10*ships {
		t.Errorf("Expected %d path dots, got %d", 10*ships, r.PathLen())
	}

	r.SetDebug(false, 10)
	w.Render(r)
	if r.PathLen() != 0 {
		t.Errorf("Expected path dots removed after debug, got %d", r.PathLen())
	}
	if len(sink.render) != r.Len() {
		t.Errorf("Sink holds %d entities, renderer %d sprites", len(sink.render), r.Len())
	}
}
