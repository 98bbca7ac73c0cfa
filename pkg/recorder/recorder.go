// pkg/recorder/recorder.go

// Package recorder writes a flight log of the simulation to SQLite or
// Postgres through GORM: one session row per run, periodic body samples and
// every bus event.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/engine"
	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/event"
	"github.com/opd-ai/go-blackhole/pkg/logging"
)

const batchSize = 500

// Recorder subscribes to the event bus and samples snapshots into a database.
type Recorder struct {
	db          *gorm.DB
	logger      *logging.Logger
	session     Session
	sampleEvery uint64
	sampled     bool
	lastSample  uint64

	mu      sync.Mutex
	tick    uint64
	pending []EventRecord
	subs    []*event.Subscription
	closed  bool
}

// dialector picks the GORM driver for the configured backend.
func dialector(rc config.RecorderConfig) (gorm.Dialector, error) {
	switch rc.Driver {
	case config.DriverSQLite, "":
		dsn := rc.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		return sqlite.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.New(postgres.Config{
			DSN:                  rc.DSN,
			PreferSimpleProtocol: true,
		}), nil
	default:
		return nil, fmt.Errorf("unknown recorder driver %q", rc.Driver)
	}
}

// OpenDB connects to the configured database.
func OpenDB(rc config.RecorderConfig) (*gorm.DB, error) {
	d, err := dialector(rc)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, logging.WrapError(err, "failed to open %s database", d.Name())
	}
	if d.Name() == "sqlite" {
		// one writer keeps SQLite from reporting a busy database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Open connects to the database in cfg.Recorder and starts a session.
func Open(cfg *config.Config, bus *event.Bus, log *logging.Logger) (*Recorder, error) {
	db, err := OpenDB(cfg.Recorder)
	if err != nil {
		return nil, err
	}
	return New(db, cfg, bus, log)
}

// New migrates the schema on db, inserts a session row and subscribes to bus.
// The recorder owns db from here on and closes it in Close.
func New(db *gorm.DB, cfg *config.Config, bus *event.Bus, log *logging.Logger) (*Recorder, error) {
	if log == nil {
		log = logging.Discard()
	}
	if err := db.AutoMigrate(&Session{}, &BodySample{}, &EventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate recorder schema: %w", err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	every := cfg.Recorder.SampleEvery
	if every < 1 {
		every = 1
	}
	r := &Recorder{
		db:          db,
		logger:      log.With("component", "recorder"),
		sampleEvery: uint64(every),
		session: Session{
			StartedAt: time.Now().UTC(),
			Seed:      cfg.Simulation.Seed,
			Config:    datatypes.JSON(raw),
		},
	}
	if err := db.Create(&r.session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if bus != nil {
		r.subs = bus.SubscribeAll(r.handleEvent)
	}
	r.logger.Info(context.Background(), "Recording session started",
		"session", r.session.ID, "sample_every", r.sampleEvery)
	return r, nil
}

// SessionID returns the primary key of the current session
func (r *Recorder) SessionID() uint {
	return r.session.ID
}

// DB exposes the underlying connection for queries
func (r *Recorder) DB() *gorm.DB {
	return r.db
}

// Ping checks the database connection
func (r *Recorder) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *Recorder) handleEvent(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if w, ok := e.GetSource().(*engine.World); ok {
		r.tick = w.Ticks
	}
	raw, err := json.Marshal(payload(e))
	if err != nil {
		r.logger.Error(context.Background(), "Failed to encode event", err, "type", string(e.GetType()))
		return
	}
	r.pending = append(r.pending, EventRecord{
		SessionID: r.session.ID,
		Tick:      r.tick,
		Type:      string(e.GetType()),
		Payload:   datatypes.JSON(raw),
		CreatedAt: time.Now().UTC(),
	})
}

// payload returns the event's fields without its source
func payload(e event.Event) map[string]any {
	switch ev := e.(type) {
	case *event.BodyEvent:
		return map[string]any{"id": ev.ID, "kind": ev.Kind}
	case *event.CollisionEvent:
		return map[string]any{"a": ev.A, "b": ev.B}
	case *event.ModeEvent:
		return map[string]any{"drone": ev.Drone, "from": ev.From, "to": ev.To}
	case *event.ReleaseEvent:
		return map[string]any{"asteroid": ev.Asteroid, "count": ev.Count}
	case *event.ToggleEvent:
		return map[string]any{"on": ev.On}
	default:
		return map[string]any{}
	}
}

// Sample writes one row per body in s when at least SampleEvery ticks have
// passed since the last sample. Pending events are flushed either way.
func (r *Recorder) Sample(s *engine.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if s.Tick > r.tick {
		r.tick = s.Tick
	}
	r.session.Ticks = s.Tick
	r.session.Collected = s.Collected

	if err := r.flushLocked(); err != nil {
		return err
	}
	if r.sampled && s.Tick < r.lastSample+r.sampleEvery {
		return nil
	}

	rows := samples(r.session.ID, s)
	if err := r.db.CreateInBatches(rows, batchSize).Error; err != nil {
		return fmt.Errorf("failed to write samples at tick %d: %w", s.Tick, err)
	}
	r.sampled = true
	r.lastSample = s.Tick
	r.session.Samples += len(rows)
	return nil
}

func samples(session uint, s *engine.State) []BodySample {
	rows := make([]BodySample, 0, 1+len(s.Drones)+len(s.Asteroids)+len(s.Crystals))
	add := func(b engine.BodyState, kind entity.Kind, alive bool, mode string) {
		rows = append(rows, BodySample{
			SessionID: session,
			Tick:      s.Tick,
			BodyID:    uint64(b.ID),
			Kind:      kind.String(),
			X:         b.Position.X(),
			Y:         b.Position.Y(),
			Z:         b.Position.Z(),
			VX:        b.Velocity.X(),
			VY:        b.Velocity.Y(),
			VZ:        b.Velocity.Z(),
			Alive:     alive,
			Mode:      mode,
		})
	}

	add(s.Player.BodyState, entity.KindShip, s.Player.Alive, "")
	for _, d := range s.Drones {
		add(d.BodyState, entity.KindDrone, d.Alive, d.Mode)
	}
	for _, a := range s.Asteroids {
		add(a.BodyState, entity.KindAsteroid, true, "")
	}
	for _, c := range s.Crystals {
		add(c.BodyState, entity.KindCrystal, true, "")
	}
	return rows
}

// Flush writes pending events
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(r.pending, batchSize).Error; err != nil {
		return fmt.Errorf("failed to write %d events: %w", len(r.pending), err)
	}
	r.session.Events += len(r.pending)
	r.pending = r.pending[:0]
	return nil
}

// Close flushes pending events, ends the session and closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	for _, s := range r.subs {
		s.Cancel()
	}
	r.subs = nil

	err := r.flushLocked()
	ended := time.Now().UTC()
	r.session.EndedAt = &ended
	if saveErr := r.db.Save(&r.session).Error; saveErr != nil && err == nil {
		err = fmt.Errorf("failed to end session: %w", saveErr)
	}
	r.closed = true
	r.mu.Unlock()

	r.logger.Info(context.Background(), "Recording session ended",
		"session", r.session.ID, "ticks", r.session.Ticks,
		"samples", r.session.Samples, "events", r.session.Events)

	sqlDB, dbErr := r.db.DB()
	if dbErr == nil {
		dbErr = sqlDB.Close()
	}
	if err == nil && dbErr != nil {
		err = fmt.Errorf("failed to close database: %w", dbErr)
	}
	return err
}
