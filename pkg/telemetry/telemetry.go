// pkg/telemetry/telemetry.go
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/opd-ai/go-blackhole/pkg/engine"
	"github.com/opd-ai/go-blackhole/pkg/event"
)

const instrumentationName = "github.com/opd-ai/go-blackhole"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Totals is a point-in-time copy of the counters
type Totals struct {
	Collisions int64
	Bounces    int64
	Collected  int64
	DroneLoss  int64
	PlayerLoss int64
	LiveDrones int64
}

// Instruments turns simulation events into OpenTelemetry metrics. Event
// handlers run on the simulation goroutine; the live drone gauge is read by
// the metric reader through an atomic.
type Instruments struct {
	collisions metric.Int64Counter
	collected  metric.Int64Counter
	losses     metric.Int64Counter
	liveDrones metric.Int64ObservableGauge

	registration metric.Registration
	subs         []*event.Subscription

	totals struct {
		collisions, bounces, collected, droneLoss, playerLoss, live atomic.Int64
	}
}

// New creates instruments on the global meter and subscribes them to bus.
func New(bus *event.Bus) (*Instruments, error) {
	return NewWithMeter(meter(), bus)
}

// NewWithMeter creates instruments on m and subscribes them to bus.
func NewWithMeter(m metric.Meter, bus *event.Bus) (*Instruments, error) {
	i := &Instruments{}

	var err error
	i.collisions, err = m.Int64Counter(
		"blackhole.collisions",
		metric.WithDescription("Collisions that changed a body's velocity"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collision counter: %w", err)
	}

	i.collected, err = m.Int64Counter(
		"blackhole.crystals.collected",
		metric.WithDescription("Crystals collected by the player and drones"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collected counter: %w", err)
	}

	i.losses, err = m.Int64Counter(
		"blackhole.ships.destroyed",
		metric.WithDescription("Ships destroyed by asteroid impacts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating loss counter: %w", err)
	}

	i.liveDrones, err = m.Int64ObservableGauge(
		"blackhole.drones.live",
		metric.WithDescription("Drones still flying"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating live drone gauge: %w", err)
	}

	i.registration, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(i.liveDrones, i.totals.live.Load())
			return nil
		},
		i.liveDrones,
	)
	if err != nil {
		return nil, fmt.Errorf("registering live drone callback: %w", err)
	}

	i.subs = append(i.subs,
		bus.Subscribe(event.WorldReset, i.handleReset),
		bus.Subscribe(event.AsteroidCollision, i.handleCollision),
		bus.Subscribe(event.CrystalBounce, i.handleCollision),
		bus.Subscribe(event.CrystalCollected, i.handleCollected),
		bus.Subscribe(event.PlayerDestroyed, i.handleLoss),
		bus.Subscribe(event.DroneDestroyed, i.handleLoss),
	)
	return i, nil
}

// Close unsubscribes from the bus and unregisters the gauge callback.
func (i *Instruments) Close() error {
	for _, s := range i.subs {
		s.Cancel()
	}
	i.subs = nil
	if i.registration == nil {
		return nil
	}
	err := i.registration.Unregister()
	i.registration = nil
	if err != nil {
		return errors.Join(errors.New("failed to unregister telemetry callback"), err)
	}
	return nil
}

// Totals returns the counts seen so far
func (i *Instruments) Totals() Totals {
	return Totals{
		Collisions: i.totals.collisions.Load(),
		Bounces:    i.totals.bounces.Load(),
		Collected:  i.totals.collected.Load(),
		DroneLoss:  i.totals.droneLoss.Load(),
		PlayerLoss: i.totals.playerLoss.Load(),
		LiveDrones: i.totals.live.Load(),
	}
}

func (i *Instruments) handleReset(e event.Event) {
	if w, ok := e.GetSource().(*engine.World); ok {
		i.totals.live.Store(int64(w.LiveDrones))
	}
}

func (i *Instruments) handleCollision(e event.Event) {
	kind := "asteroid"
	if e.GetType() == event.CrystalBounce {
		kind = "crystal"
		i.totals.bounces.Add(1)
	} else {
		i.totals.collisions.Add(1)
	}
	i.collisions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", kind)))
}

func (i *Instruments) handleCollected(e event.Event) {
	collector := "unknown"
	if be, ok := e.(*event.BodyEvent); ok {
		collector = be.Kind
	}
	i.totals.collected.Add(1)
	i.collected.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("collector", collector)))
}

func (i *Instruments) handleLoss(e event.Event) {
	kind := "ship"
	if e.GetType() == event.DroneDestroyed {
		kind = "drone"
		i.totals.droneLoss.Add(1)
		i.totals.live.Add(-1)
	} else {
		i.totals.playerLoss.Add(1)
	}
	i.losses.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", kind)))
}
