// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, with dots in the
// key replaced by underscores: BLACKHOLE_SIMULATION_UPDATE_RATE.
const EnvPrefix = "BLACKHOLE"

// Config contains the full configuration of a simulation run
type Config struct {
	LogLevel   string           `json:"log_level" mapstructure:"log_level"`
	Simulation SimulationConfig `json:"simulation" mapstructure:"simulation"`
	Population PopulationConfig `json:"population" mapstructure:"population"`
	Agent      AgentConfig      `json:"agent" mapstructure:"agent"`
	Recorder   RecorderConfig   `json:"recorder" mapstructure:"recorder"`
	Spectator  SpectatorConfig  `json:"spectator" mapstructure:"spectator"`
	Breaker    BreakerConfig    `json:"breaker" mapstructure:"breaker"`
	Health     HealthConfig     `json:"health" mapstructure:"health"`
	Resources  ResourceConfig   `json:"resources" mapstructure:"resources"`
	Render     RenderConfig     `json:"render" mapstructure:"render"`
}

// SimulationConfig controls the fixed-step loop
type SimulationConfig struct {
	UpdateRate         float64 `json:"update_rate" mapstructure:"update_rate"` // Hz
	MaxUpdatesPerFrame int     `json:"max_updates_per_frame" mapstructure:"max_updates_per_frame"`
	FastFactor         float64 `json:"fast_factor" mapstructure:"fast_factor"`
	Seed               int64   `json:"seed" mapstructure:"seed"` // 0 picks a seed from the clock
	CrystalResponse    string  `json:"crystal_response" mapstructure:"crystal_response"`
}

// ShipConfig contains the physical properties of a piloted body
type ShipConfig struct {
	Mass          float64 `json:"mass" mapstructure:"mass"`
	Radius        float64 `json:"radius" mapstructure:"radius"`
	MainAccel     float64 `json:"main_accel" mapstructure:"main_accel"`
	ManeuverAccel float64 `json:"maneuver_accel" mapstructure:"maneuver_accel"`
	TurnRate      float64 `json:"turn_rate" mapstructure:"turn_rate"`
}

// PopulationConfig describes what a reset creates
type PopulationConfig struct {
	Asteroids           int        `json:"asteroids" mapstructure:"asteroids"`
	Drones              int        `json:"drones" mapstructure:"drones"`
	BlackHoleMass       float64    `json:"black_hole_mass" mapstructure:"black_hole_mass"`
	DiskRadius          float64    `json:"disk_radius" mapstructure:"disk_radius"`
	OrbitMin            float64    `json:"orbit_min" mapstructure:"orbit_min"` // fraction of disk radius
	OrbitMax            float64    `json:"orbit_max" mapstructure:"orbit_max"`
	SpeedFactorMin      float64    `json:"speed_factor_min" mapstructure:"speed_factor_min"` // fraction of circular speed
	SpeedFactorMax      float64    `json:"speed_factor_max" mapstructure:"speed_factor_max"`
	OuterRadiusMin      float64    `json:"outer_radius_min" mapstructure:"outer_radius_min"`
	OuterRadiusMax      float64    `json:"outer_radius_max" mapstructure:"outer_radius_max"`
	InnerFractionMin    float64    `json:"inner_fraction_min" mapstructure:"inner_fraction_min"`
	InnerFractionMax    float64    `json:"inner_fraction_max" mapstructure:"inner_fraction_max"`
	CrystalsPerAsteroid int        `json:"crystals_per_asteroid" mapstructure:"crystals_per_asteroid"`
	KnockOffDistance    float64    `json:"knock_off_distance" mapstructure:"knock_off_distance"`
	PlayerDistance      float64    `json:"player_distance" mapstructure:"player_distance"`
	MeshStacks          int        `json:"mesh_stacks" mapstructure:"mesh_stacks"`
	MeshSlices          int        `json:"mesh_slices" mapstructure:"mesh_slices"`
	Player              ShipConfig `json:"player" mapstructure:"player"`
	Drone               ShipConfig `json:"drone" mapstructure:"drone"`
}

// AgentConfig tunes drone steering. Distances are in metres.
type AgentConfig struct {
	EscortFarDistance float64 `json:"escort_far_distance" mapstructure:"escort_far_distance"`
	PursueFarDistance float64 `json:"pursue_far_distance" mapstructure:"pursue_far_distance"`
	TurnLimit         float64 `json:"turn_limit" mapstructure:"turn_limit"`
	Jitter            float64 `json:"jitter" mapstructure:"jitter"`
}

// RecorderConfig configures the flight recorder
type RecorderConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	Driver      string `json:"driver" mapstructure:"driver"` // sqlite or postgres
	DSN         string `json:"dsn" mapstructure:"dsn"`
	SampleEvery int    `json:"sample_every" mapstructure:"sample_every"` // ticks between body samples
}

// SpectatorConfig configures the websocket spectator server
type SpectatorConfig struct {
	Enabled           bool          `json:"enabled" mapstructure:"enabled"`
	Addr              string        `json:"addr" mapstructure:"addr"`
	URL               string        `json:"url" mapstructure:"url"` // used by the spectator client
	BroadcastInterval time.Duration `json:"broadcast_interval" mapstructure:"broadcast_interval"`
	MaxConnects       int           `json:"max_connects" mapstructure:"max_connects"`
	ConnectWindow     time.Duration `json:"connect_window" mapstructure:"connect_window"`
}

// BreakerConfig configures the spectator client's circuit breaker
type BreakerConfig struct {
	MaxRequests         uint32        `json:"max_requests" mapstructure:"max_requests"`
	Interval            time.Duration `json:"interval" mapstructure:"interval"`
	Timeout             time.Duration `json:"timeout" mapstructure:"timeout"`
	ConsecutiveFailures uint32        `json:"consecutive_failures" mapstructure:"consecutive_failures"`
	Retries             int           `json:"retries" mapstructure:"retries"`
	RetryDelay          time.Duration `json:"retry_delay" mapstructure:"retry_delay"` // grows linearly per attempt
}

// HealthConfig configures the health endpoints
type HealthConfig struct {
	Enabled     bool          `json:"enabled" mapstructure:"enabled"`
	Addr        string        `json:"addr" mapstructure:"addr"`
	StallWindow time.Duration `json:"stall_window" mapstructure:"stall_window"`
}

// ResourceConfig limits the background workers of a session
type ResourceConfig struct {
	MaxMemoryMB     int64         `json:"max_memory_mb" mapstructure:"max_memory_mb"`
	MaxWorkers      int           `json:"max_workers" mapstructure:"max_workers"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CheckInterval   time.Duration `json:"check_interval" mapstructure:"check_interval"`
}

// RenderConfig configures the viewers
type RenderConfig struct {
	Mode       string  `json:"mode" mapstructure:"mode"` // headless, terminal or engo
	Width      int     `json:"width" mapstructure:"width"`
	Height     int     `json:"height" mapstructure:"height"`
	Fullscreen bool    `json:"fullscreen" mapstructure:"fullscreen"`
	PathPoints int     `json:"path_points" mapstructure:"path_points"`
	Zoom       float64 `json:"zoom" mapstructure:"zoom"` // metres per terminal cell
}

// Crystal collision responses
const (
	ResponseElastic = "elastic"
	ResponseBounce  = "bounce"
)

// Render modes
const (
	RenderHeadless = "headless"
	RenderTerminal = "terminal"
	RenderEngo     = "engo"
)

// Recorder drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MaxDrones is the number of formation slots
const MaxDrones = 5

// defaults mirrors DefaultConfig as flat viper keys.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("simulation.update_rate", d.Simulation.UpdateRate)
	v.SetDefault("simulation.max_updates_per_frame", d.Simulation.MaxUpdatesPerFrame)
	v.SetDefault("simulation.fast_factor", d.Simulation.FastFactor)
	v.SetDefault("simulation.seed", d.Simulation.Seed)
	v.SetDefault("simulation.crystal_response", d.Simulation.CrystalResponse)

	p := d.Population
	v.SetDefault("population.asteroids", p.Asteroids)
	v.SetDefault("population.drones", p.Drones)
	v.SetDefault("population.black_hole_mass", p.BlackHoleMass)
	v.SetDefault("population.disk_radius", p.DiskRadius)
	v.SetDefault("population.orbit_min", p.OrbitMin)
	v.SetDefault("population.orbit_max", p.OrbitMax)
	v.SetDefault("population.speed_factor_min", p.SpeedFactorMin)
	v.SetDefault("population.speed_factor_max", p.SpeedFactorMax)
	v.SetDefault("population.outer_radius_min", p.OuterRadiusMin)
	v.SetDefault("population.outer_radius_max", p.OuterRadiusMax)
	v.SetDefault("population.inner_fraction_min", p.InnerFractionMin)
	v.SetDefault("population.inner_fraction_max", p.InnerFractionMax)
	v.SetDefault("population.crystals_per_asteroid", p.CrystalsPerAsteroid)
	v.SetDefault("population.knock_off_distance", p.KnockOffDistance)
	v.SetDefault("population.player_distance", p.PlayerDistance)
	v.SetDefault("population.mesh_stacks", p.MeshStacks)
	v.SetDefault("population.mesh_slices", p.MeshSlices)
	setShipDefaults(v, "population.player", p.Player)
	setShipDefaults(v, "population.drone", p.Drone)

	v.SetDefault("agent.escort_far_distance", d.Agent.EscortFarDistance)
	v.SetDefault("agent.pursue_far_distance", d.Agent.PursueFarDistance)
	v.SetDefault("agent.turn_limit", d.Agent.TurnLimit)
	v.SetDefault("agent.jitter", d.Agent.Jitter)

	v.SetDefault("recorder.enabled", d.Recorder.Enabled)
	v.SetDefault("recorder.driver", d.Recorder.Driver)
	v.SetDefault("recorder.dsn", d.Recorder.DSN)
	v.SetDefault("recorder.sample_every", d.Recorder.SampleEvery)

	v.SetDefault("spectator.enabled", d.Spectator.Enabled)
	v.SetDefault("spectator.addr", d.Spectator.Addr)
	v.SetDefault("spectator.url", d.Spectator.URL)
	v.SetDefault("spectator.broadcast_interval", d.Spectator.BroadcastInterval)
	v.SetDefault("spectator.max_connects", d.Spectator.MaxConnects)
	v.SetDefault("spectator.connect_window", d.Spectator.ConnectWindow)

	v.SetDefault("breaker.max_requests", d.Breaker.MaxRequests)
	v.SetDefault("breaker.interval", d.Breaker.Interval)
	v.SetDefault("breaker.timeout", d.Breaker.Timeout)
	v.SetDefault("breaker.consecutive_failures", d.Breaker.ConsecutiveFailures)
	v.SetDefault("breaker.retries", d.Breaker.Retries)
	v.SetDefault("breaker.retry_delay", d.Breaker.RetryDelay)

	v.SetDefault("health.enabled", d.Health.Enabled)
	v.SetDefault("health.addr", d.Health.Addr)
	v.SetDefault("health.stall_window", d.Health.StallWindow)

	v.SetDefault("resources.max_memory_mb", d.Resources.MaxMemoryMB)
	v.SetDefault("resources.max_workers", d.Resources.MaxWorkers)
	v.SetDefault("resources.shutdown_timeout", d.Resources.ShutdownTimeout)
	v.SetDefault("resources.check_interval", d.Resources.CheckInterval)

	v.SetDefault("render.mode", d.Render.Mode)
	v.SetDefault("render.width", d.Render.Width)
	v.SetDefault("render.height", d.Render.Height)
	v.SetDefault("render.fullscreen", d.Render.Fullscreen)
	v.SetDefault("render.path_points", d.Render.PathPoints)
	v.SetDefault("render.zoom", d.Render.Zoom)
}

func setShipDefaults(v *viper.Viper, prefix string, s ShipConfig) {
	v.SetDefault(prefix+".mass", s.Mass)
	v.SetDefault(prefix+".radius", s.Radius)
	v.SetDefault(prefix+".main_accel", s.MainAccel)
	v.SetDefault(prefix+".maneuver_accel", s.ManeuverAccel)
	v.SetDefault(prefix+".turn_rate", s.TurnRate)
}

// LoadConfig builds a configuration from defaults, an optional file and
// BLACKHOLE_* environment variables, in increasing priority. An empty path
// skips the file. The result is validated.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig saves a configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks that the configuration can build a world
func (c *Config) Validate() error {
	s := c.Simulation
	if s.UpdateRate <= 0 {
		return invalid("simulation.update_rate %v must be positive", s.UpdateRate)
	}
	if s.MaxUpdatesPerFrame < 1 {
		return invalid("simulation.max_updates_per_frame %d must be at least 1", s.MaxUpdatesPerFrame)
	}
	if s.FastFactor < 1 {
		return invalid("simulation.fast_factor %v must be at least 1", s.FastFactor)
	}
	if s.CrystalResponse != ResponseElastic && s.CrystalResponse != ResponseBounce {
		return invalid("simulation.crystal_response %q must be %q or %q", s.CrystalResponse, ResponseElastic, ResponseBounce)
	}

	if err := c.Population.validate(); err != nil {
		return err
	}

	a := c.Agent
	if a.EscortFarDistance <= 0 || a.PursueFarDistance <= 0 {
		return invalid("agent far distances must be positive")
	}
	if a.TurnLimit <= 0 {
		return invalid("agent.turn_limit %v must be positive", a.TurnLimit)
	}
	if a.Jitter < 0 {
		return invalid("agent.jitter %v must not be negative", a.Jitter)
	}

	if c.Recorder.Enabled {
		if c.Recorder.Driver != DriverSQLite && c.Recorder.Driver != DriverPostgres {
			return invalid("recorder.driver %q must be %q or %q", c.Recorder.Driver, DriverSQLite, DriverPostgres)
		}
		if c.Recorder.DSN == "" {
			return invalid("recorder.dsn is required")
		}
	}
	if c.Recorder.SampleEvery < 1 {
		return invalid("recorder.sample_every %d must be at least 1", c.Recorder.SampleEvery)
	}

	if c.Spectator.BroadcastInterval <= 0 {
		return invalid("spectator.broadcast_interval must be positive")
	}
	if c.Spectator.MaxConnects < 1 || c.Spectator.ConnectWindow <= 0 {
		return invalid("spectator connect limit must be positive")
	}

	if c.Breaker.ConsecutiveFailures < 1 {
		return invalid("breaker.consecutive_failures must be at least 1")
	}
	if c.Breaker.Retries < 0 {
		return invalid("breaker.retries must not be negative")
	}
	if c.Breaker.RetryDelay < 0 {
		return invalid("breaker.retry_delay must not be negative")
	}

	if c.Health.StallWindow <= 0 {
		return invalid("health.stall_window must be positive")
	}

	r := c.Resources
	if r.MaxMemoryMB < 1 || r.MaxWorkers < 1 {
		return invalid("resource limits must be positive")
	}
	if r.ShutdownTimeout <= 0 || r.CheckInterval <= 0 {
		return invalid("resource timings must be positive")
	}

	switch c.Render.Mode {
	case RenderHeadless, RenderTerminal, RenderEngo:
	default:
		return invalid("render.mode %q must be %s, %s or %s", c.Render.Mode, RenderHeadless, RenderTerminal, RenderEngo)
	}
	if c.Render.Zoom <= 0 {
		return invalid("render.zoom %v must be positive", c.Render.Zoom)
	}

	return nil
}

func (p *PopulationConfig) validate() error {
	if p.Asteroids < 2 {
		return invalid("population.asteroids %d must be at least 2", p.Asteroids)
	}
	if p.Drones < 0 || p.Drones > MaxDrones {
		return invalid("population.drones %d must be between 0 and %d", p.Drones, MaxDrones)
	}
	if p.BlackHoleMass <= 0 || p.DiskRadius <= 0 {
		return invalid("black hole mass and disk radius must be positive")
	}
	if p.OrbitMin <= 0 || p.OrbitMin > p.OrbitMax {
		return invalid("population orbit band [%v, %v] is empty", p.OrbitMin, p.OrbitMax)
	}
	if p.SpeedFactorMin < 0 || p.SpeedFactorMin > p.SpeedFactorMax {
		return invalid("population speed band [%v, %v] is empty", p.SpeedFactorMin, p.SpeedFactorMax)
	}
	if p.OuterRadiusMin <= 0 || p.OuterRadiusMin > p.OuterRadiusMax {
		return invalid("population outer radius band [%v, %v] is empty", p.OuterRadiusMin, p.OuterRadiusMax)
	}
	if p.InnerFractionMin < 0 || p.InnerFractionMin > p.InnerFractionMax || p.InnerFractionMax > 1 {
		return invalid("population inner fraction band [%v, %v] must lie in [0, 1]", p.InnerFractionMin, p.InnerFractionMax)
	}
	if p.CrystalsPerAsteroid < 0 || p.KnockOffDistance < 0 {
		return invalid("crystal knock-off settings must not be negative")
	}
	if p.PlayerDistance <= 0 {
		return invalid("population.player_distance must be positive")
	}
	if p.MeshStacks < 2 || p.MeshSlices < 3 {
		return invalid("asteroid mesh needs at least 2 stacks and 3 slices")
	}
	if err := p.Player.validate("player"); err != nil {
		return err
	}
	return p.Drone.validate("drone")
}

func (s *ShipConfig) validate(name string) error {
	if s.Mass <= 0 || s.Radius <= 0 {
		return invalid("%s mass and radius must be positive", name)
	}
	if s.MainAccel <= 0 || s.ManeuverAccel <= 0 || s.TurnRate <= 0 {
		return invalid("%s accelerations and turn rate must be positive", name)
	}
	return nil
}

// DefaultConfig returns the standard configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Simulation: SimulationConfig{
			UpdateRate:         60,
			MaxUpdatesPerFrame: 10,
			FastFactor:         10,
			Seed:               0,
			CrystalResponse:    ResponseElastic,
		},
		Population: PopulationConfig{
			Asteroids:           100,
			Drones:              MaxDrones,
			BlackHoleMass:       5.0e16,
			DiskRadius:          10000,
			OrbitMin:            0.2,
			OrbitMax:            0.8,
			SpeedFactorMin:      0.5,
			SpeedFactorMax:      1.5,
			OuterRadiusMin:      50,
			OuterRadiusMax:      400,
			InnerFractionMin:    0.1,
			InnerFractionMax:    0.5,
			CrystalsPerAsteroid: 10,
			KnockOffDistance:    500,
			PlayerDistance:      1000,
			MeshStacks:          8,
			MeshSlices:          12,
			Player: ShipConfig{
				Mass:          1000,
				Radius:        4,
				MainAccel:     500,
				ManeuverAccel: 50,
				TurnRate:      3,
			},
			Drone: ShipConfig{
				Mass:          100,
				Radius:        2,
				MainAccel:     250,
				ManeuverAccel: 25,
				TurnRate:      1,
			},
		},
		Agent: AgentConfig{
			EscortFarDistance: 250e3,
			PursueFarDistance: 500e3,
			TurnLimit:         1.0,
			Jitter:            0.05,
		},
		Recorder: RecorderConfig{
			Enabled:     false,
			Driver:      DriverSQLite,
			DSN:         "blackhole.db",
			SampleEvery: 60,
		},
		Spectator: SpectatorConfig{
			Enabled:           false,
			Addr:              ":8090",
			URL:               "ws://localhost:8090/ws",
			BroadcastInterval: 100 * time.Millisecond,
			MaxConnects:       10,
			ConnectWindow:     time.Minute,
		},
		Breaker: BreakerConfig{
			MaxRequests:         1,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 3,
			Retries:             3,
			RetryDelay:          time.Second,
		},
		Health: HealthConfig{
			Enabled:     false,
			Addr:        ":8091",
			StallWindow: 5 * time.Second,
		},
		Resources: ResourceConfig{
			MaxMemoryMB:     500,
			MaxWorkers:      16,
			ShutdownTimeout: 10 * time.Second,
			CheckInterval:   10 * time.Second,
		},
		Render: RenderConfig{
			Mode:       RenderHeadless,
			Width:      1024,
			Height:     768,
			Fullscreen: false,
			PathPoints: 50,
			Zoom:       100,
		},
	}
}
