// cmd/blackhole/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/EngoEngine/engo"
	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/engine"
	"github.com/opd-ai/go-blackhole/pkg/event"
	"github.com/opd-ai/go-blackhole/pkg/health"
	"github.com/opd-ai/go-blackhole/pkg/logging"
	"github.com/opd-ai/go-blackhole/pkg/network"
	"github.com/opd-ai/go-blackhole/pkg/physics"
	"github.com/opd-ai/go-blackhole/pkg/recorder"
	"github.com/opd-ai/go-blackhole/pkg/render"
	rengo "github.com/opd-ai/go-blackhole/pkg/render/engo"
	"github.com/opd-ai/go-blackhole/pkg/resource"
	"github.com/opd-ai/go-blackhole/pkg/telemetry"
)

// session holds the services wired around one world
type session struct {
	cfg     *config.Config
	logger  *logging.Logger
	stepper *engine.Stepper

	resources *resource.ResourceManager
	recorder  *recorder.Recorder
	spectator *network.SpectatorServer
	health    *health.Server
	simCheck  *health.SimulationHealthCheck
}

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file and exit")
	renderer := flag.String("renderer", "", "Viewer: headless, terminal or engo")
	record := flag.Bool("record", false, "Record the session to the configured database")
	spectate := flag.Bool("spectate", false, "Serve the session to spectators")
	seed := flag.Int64("seed", 0, "World seed (0 picks one from the clock)")
	ticks := flag.Uint64("ticks", 0, "Stop a headless session after this many ticks (0 runs until interrupted)")
	logPath := flag.String("log", "", "Write logs to this file instead of stderr")
	flag.Parse()

	ctx := context.Background()
	bootLogger := logging.NewLogger()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			bootLogger.Error(ctx, "Failed to create default configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
		bootLogger.Info(ctx, "Created default configuration file", "config_path", *configPath)
		return
	}

	path := *configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		bootLogger.Info(ctx, "Configuration file not found, using defaults", "config_path", path)
		path = ""
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		bootLogger.Error(ctx, "Failed to load configuration", err, "config_path", path)
		os.Exit(1)
	}

	if *renderer != "" {
		cfg.Render.Mode = *renderer
	}
	cfg.Recorder.Enabled = cfg.Recorder.Enabled || *record
	cfg.Spectator.Enabled = cfg.Spectator.Enabled || *spectate
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		bootLogger.Error(ctx, "Invalid configuration", err)
		os.Exit(1)
	}

	out, closeLog, err := logOutput(*logPath, cfg.Render.Mode)
	if err != nil {
		bootLogger.Error(ctx, "Failed to open log file", err, "log_path", *logPath)
		os.Exit(1)
	}
	defer closeLog()
	logger := logging.NewLoggerWithLevel(out, logging.ParseLevel(cfg.LogLevel))

	if err := run(cfg, logger, *ticks); err != nil {
		logger.Error(ctx, "Session failed", err)
		closeLog()
		os.Exit(1)
	}
}

// logOutput picks the log destination. The terminal viewer owns the screen,
// so without a log file its logs are dropped.
func logOutput(path, mode string) (io.Writer, func(), error) {
	if path == "" {
		if mode == config.RenderTerminal {
			return io.Discard, func() {}, nil
		}
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// run builds the world and its services, then drives it with the configured
// viewer until interrupted.
func run(cfg *config.Config, logger *logging.Logger, maxTicks uint64) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seed := cfg.Simulation.Seed
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	bus := event.NewEventBus()

	instruments, err := telemetry.New(bus)
	if err != nil {
		return err
	}
	defer instruments.Close()

	world := engine.NewWorld(cfg, rng, physics.NewSimplexField(seed), bus, logger)
	s := &session{
		cfg:       cfg,
		logger:    logger,
		stepper:   engine.NewStepper(world),
		resources: resource.NewResourceManager(cfg.Resources, logger),
	}
	if err := s.start(); err != nil {
		s.stop()
		return err
	}
	defer s.stop()

	logger.Info(ctx, "Session started",
		"seed", seed,
		"renderer", cfg.Render.Mode,
		"asteroids", len(world.Asteroids),
		"drones", len(world.Drones),
	)

	switch cfg.Render.Mode {
	case config.RenderTerminal:
		err = s.runTerminal(ctx)
	case config.RenderEngo:
		err = s.runEngo(ctx)
	default:
		err = s.runHeadless(ctx, maxTicks)
	}

	totals := instruments.Totals()
	logger.Info(context.Background(), "Session ended",
		"tick", world.Ticks,
		"collected", world.Collected,
		"live_drones", world.LiveDrones,
		"collisions", totals.Collisions,
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// start brings up the optional services in dependency order
func (s *session) start() error {
	if err := s.resources.Start(); err != nil {
		return err
	}

	if s.cfg.Recorder.Enabled {
		rec, err := recorder.Open(s.cfg, s.stepper.World.Bus(), s.logger)
		if err != nil {
			return err
		}
		s.recorder = rec
	}

	if s.cfg.Spectator.Enabled {
		s.spectator = network.NewSpectatorServer(s.cfg.Spectator, s.logger)
		if err := s.spectator.Start(s.cfg.Spectator.Addr); err != nil {
			s.spectator = nil
			return err
		}
	}

	if s.cfg.Health.Enabled {
		checker := health.NewHealthChecker()
		s.simCheck = health.NewSimulationHealthCheck(s.cfg.Health.StallWindow)
		checker.AddCheck(s.simCheck)
		if s.recorder != nil {
			checker.AddCheck(health.NewRecorderHealthCheck(s.recorder))
		}
		if s.spectator != nil {
			checker.AddCheck(health.NewNetworkHealthCheck(s.spectator.ListenerAddress))
		}
		checker.AddCheck(health.NewMemoryHealthCheck(s.cfg.Resources.MaxMemoryMB, health.HeapMB))
		checker.AddCheck(resource.NewResourceHealthCheck(s.resources))

		s.health = health.NewServer(checker, s.logger)
		if err := s.health.Start(s.cfg.Health.Addr); err != nil {
			s.health = nil
			return err
		}
	}
	return nil
}

// stop shuts the services down in reverse order
func (s *session) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Resources.ShutdownTimeout)
	defer cancel()

	if s.health != nil {
		if err := s.health.Stop(ctx); err != nil {
			s.logger.Error(ctx, "Health server shutdown failed", err)
		}
	}
	if s.spectator != nil {
		if err := s.spectator.Stop(ctx); err != nil {
			s.logger.Error(ctx, "Spectator server shutdown failed", err)
		}
	}
	if s.recorder != nil {
		if err := s.recorder.Sample(s.stepper.World.Snapshot()); err != nil {
			s.logger.Error(ctx, "Final sample failed", err)
		}
		if err := s.recorder.Close(); err != nil {
			s.logger.Error(ctx, "Recorder close failed", err)
		}
	}
	if err := s.resources.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "Resource shutdown failed", err)
	}
}

// frame runs after every frame's updates: it feeds the health check, the
// recorder and the spectators.
func (s *session) frame(steps int) {
	w := s.stepper.World
	if s.simCheck != nil {
		s.simCheck.Observe(w.Ticks, w.Paused)
	}
	if s.recorder == nil && s.spectator == nil {
		return
	}

	state := w.Snapshot()
	if s.recorder != nil {
		if err := s.recorder.Sample(state); err != nil {
			s.logger.Error(context.Background(), "Failed to record sample", err, "tick", state.Tick)
		}
	}
	if s.spectator != nil {
		if err := s.spectator.Publish(state); err != nil {
			s.logger.Error(context.Background(), "Failed to publish snapshot", err, "tick", state.Tick)
		}
	}
}

// runHeadless steps the world without a viewer. Draw calls are logged at
// debug level.
func (s *session) runHeadless(ctx context.Context, maxTicks uint64) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	null := render.NewNullRenderer(s.logger)
	w := s.stepper.World
	return s.stepper.Run(ctx, nil, func(steps int) {
		s.frame(steps)
		if steps > 0 {
			w.Render(null)
		}
		if maxTicks > 0 && w.Ticks >= maxTicks {
			cancel()
		}
	})
}

// runTerminal draws the world with tcell. Terminals report key presses but
// not releases, so every key seen since the last frame counts as held for
// that frame.
func (s *session) runTerminal(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	finished := false
	defer func() {
		if !finished {
			screen.Fini()
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var pending atomic.Uint32
	err = s.resources.Go("terminal_events", func(context.Context) error {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return nil
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if render.IsQuit(ev) {
					cancel()
					continue
				}
				pending.Or(uint32(render.InputFromKey(ev)))
			}
		}
	})
	if err != nil {
		return err
	}

	view := render.NewTerminalRenderer(screen, s.cfg.Render.Zoom)
	w := s.stepper.World
	err = s.stepper.Run(ctx,
		func() engine.Commands { return engine.Commands(pending.Swap(0)) },
		func(steps int) {
			s.frame(steps)
			view.SetCenter(w.Player.Position())
			view.SetStatus(render.StatusOf(s.stepper))
			w.Render(view)
		})

	// Fini makes PollEvent return nil, ending the event worker
	finished = true
	screen.Fini()
	return err
}

// runEngo opens the window viewer. engo owns the main loop; a signal closes
// the window.
func (s *session) runEngo(ctx context.Context) error {
	scene := rengo.NewGameScene(s.stepper, s.logger)
	scene.SetFrameHook(s.frame)

	err := s.resources.Go("engo_signal", func(workerCtx context.Context) error {
		select {
		case <-ctx.Done():
			engo.Exit()
		case <-workerCtx.Done():
		}
		return nil
	})
	if err != nil {
		return err
	}

	rengo.Run(s.cfg, scene)
	return nil
}
