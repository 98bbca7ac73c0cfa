// pkg/render/engo/scene.go
package engo

import (
	"context"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/engine"
	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/logging"
	"github.com/opd-ai/go-blackhole/pkg/render"
)

// cameraBound limits how far the engo camera may travel, in pixels
const cameraBound = 1e7

// PixelsPerMetre returns the window scale for cfg. The terminal zoom is in
// metres per cell and a cell is ten pixels wide.
func PixelsPerMetre(cfg *config.Config) float64 {
	return 10 / cfg.Render.Zoom
}

// GameScene represents the main game scene in Engo
type GameScene struct {
	world *ecs.World

	// Simulation
	stepper *engine.Stepper
	logger  *logging.Logger
	frame   func(steps int)

	// Rendering components
	assets   *AssetManager
	renderer *EngoRenderer
	camera   *CameraSystem
	input    *InputSystem
	hud      *HUDSystem
}

// NewGameScene creates a scene that drives stepper from the engo loop
func NewGameScene(stepper *engine.Stepper, logger *logging.Logger) *GameScene {
	if logger == nil {
		logger = logging.Discard()
	}
	return &GameScene{
		stepper: stepper,
		logger:  logger.With("component", "engo_scene"),
		world:   &ecs.World{},
		assets:  NewAssetManager(),
	}
}

// SetFrameHook sets a function called after every frame's updates with the
// number of steps taken.
func (scene *GameScene) SetFrameHook(frame func(steps int)) {
	scene.frame = frame
}

// Type returns the scene type (required by Engo)
func (scene *GameScene) Type() string {
	return "GameScene"
}

// Preload is called before the scene starts (required by Engo)
func (scene *GameScene) Preload() {}

// Setup is called when the scene starts (required by Engo)
func (scene *GameScene) Setup(u engo.Updater) {
	scene.world = u.(*ecs.World)
	common.SetBackground(colorSpace)
	common.CameraBounds = engo.AABB{
		Min: engo.Point{X: -cameraBound, Y: -cameraBound},
		Max: engo.Point{X: cameraBound, Y: cameraBound},
	}

	renderSystem := &common.RenderSystem{}
	scene.world.AddSystem(renderSystem)

	if err := scene.assets.LoadAssets(); err != nil {
		scene.logger.Error(context.Background(), "Failed to load assets", err)
	}
	SetupInputBindings()
	scene.build(renderSystem)

	scene.world.AddSystem(scene.input)
	scene.world.AddSystem(&SimulationSystem{scene: scene, now: time.Now, exit: engo.Exit})
	scene.world.AddSystem(scene.camera)
	scene.world.AddSystem(scene.hud)

	scene.logger.Info(context.Background(), "Engo scene ready",
		"pixels_per_metre", scene.renderer.scale,
		"asteroids", len(scene.stepper.World.Asteroids))
}

// build creates the scene's systems around sink
func (scene *GameScene) build(sink spriteSink) {
	scene.renderer = NewEngoRenderer(sink, scene.assets, PixelsPerMetre(scene.stepper.World.Config()))
	scene.input = NewInputSystem()
	scene.camera = NewCameraSystem()
	scene.hud = NewHUDSystem(sink)
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *GameScene) Exit() {
	scene.logger.Info(context.Background(), "Engo scene exiting", "tick", scene.stepper.World.Ticks)
}

// updateFrame advances the simulation by one frame and redraws it
func (scene *GameScene) updateFrame(now time.Time, cmds engine.Commands) int {
	steps := scene.stepper.Advance(now, cmds)
	w := scene.stepper.World

	scene.renderer.SetDebug(w.Debug, w.Config().Render.PathPoints)
	w.Render(scene.renderer)

	if w.Player.Alive {
		chase := w.Player.FollowCamera(entity.FollowCameraBack, entity.FollowCameraUp)
		scene.camera.SetTarget(scene.renderer.WorldToPixels(chase.Position))
	}

	modes := make([]entity.Mode, len(w.Drones))
	for i, d := range w.Drones {
		modes[i] = d.Mode
	}
	scene.hud.UpdateStatus(render.StatusOf(scene.stepper), modes)

	if scene.frame != nil {
		scene.frame(steps)
	}
	return steps
}

// SimulationSystem runs the stepper once per engo frame. It sits between
// input and the camera so the camera follows this frame's positions.
type SimulationSystem struct {
	scene *GameScene
	now   func() time.Time
	exit  func()
}

// Priority runs the simulation after input
func (ss *SimulationSystem) Priority() int { return 50 }

// Remove satisfies the ecs.System interface
func (ss *SimulationSystem) Remove(basic ecs.BasicEntity) {}

// Update advances the world with the sampled commands
func (ss *SimulationSystem) Update(dt float32) {
	if ss.scene.input.QuitRequested() {
		ss.exit()
		return
	}
	ss.scene.updateFrame(ss.now(), ss.scene.input.Commands())
}

// Run opens the engo window for cfg and blocks until it closes
func Run(cfg *config.Config, scene *GameScene) {
	engo.Run(engo.RunOptions{
		Title:      Title(render.StatusOf(scene.stepper)),
		Width:      cfg.Render.Width,
		Height:     cfg.Render.Height,
		Fullscreen: cfg.Render.Fullscreen,
	}, scene)
}
