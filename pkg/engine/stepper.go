// pkg/engine/stepper.go
package engine

import (
	"context"
	"time"
)

// SmoothRateCount is the number of timestamps a RateMeter averages over.
const SmoothRateCount = 22

// RateMeter reports a smoothed event rate from a ring of recent timestamps.
type RateMeter struct {
	times []time.Time
	next  int
	count int
}

// NewRateMeter creates a meter over size timestamps
func NewRateMeter(size int) *RateMeter {
	if size < 2 {
		size = 2
	}
	return &RateMeter{times: make([]time.Time, size)}
}

// Record adds a timestamp, replacing the oldest once the ring is full.
func (m *RateMeter) Record(t time.Time) {
	m.times[m.next] = t
	m.next = (m.next + 1) % len(m.times)
	if m.count < len(m.times) {
		m.count++
	}
}

// Rate returns events per second across the recorded window, or 0 before two
// timestamps exist.
func (m *RateMeter) Rate() float64 {
	if m.count < 2 {
		return 0
	}
	newest := m.times[(m.next-1+len(m.times))%len(m.times)]
	oldest := m.times[(m.next-m.count+len(m.times))%len(m.times)]
	span := newest.Sub(oldest).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(m.count-1) / span
}

// Stepper drives a World at a fixed rate, catching up with at most a bounded
// number of updates per frame. Time that cannot be caught up is dropped.
type Stepper struct {
	World      *World
	Updates    *RateMeter
	Frames     *RateMeter
	step       time.Duration
	dt         float64
	maxUpdates int
	next       time.Time
	started    bool
}

// NewStepper creates a stepper using the world's simulation settings.
func NewStepper(w *World) *Stepper {
	sim := w.cfg.Simulation
	step := time.Duration(float64(time.Second) / sim.UpdateRate)
	return &Stepper{
		World:      w,
		Updates:    NewRateMeter(SmoothRateCount),
		Frames:     NewRateMeter(SmoothRateCount),
		step:       step,
		dt:         1 / sim.UpdateRate,
		maxUpdates: sim.MaxUpdatesPerFrame,
	}
}

// Step returns the wall-clock duration of one update
func (s *Stepper) Step() time.Duration {
	return s.step
}

// Advance runs every update due by now, up to the per-frame cap, and returns
// how many ran. One-shot commands apply to the first update only.
func (s *Stepper) Advance(now time.Time, cmds Commands) int {
	if !s.started {
		s.next = now
		s.started = true
	}

	steps := 0
	for steps < s.maxUpdates && !now.Before(s.next) {
		s.World.Tick(s.dt, cmds)
		cmds = cmds.Held()
		if !s.World.Paused {
			s.Updates.Record(now)
		}
		s.next = s.next.Add(s.step)
		steps++
	}

	// fell behind: drop the backlog instead of queueing it
	if !s.next.After(now) {
		s.next = now.Add(s.step)
	}

	s.Frames.Record(now)
	return steps
}

// Run advances the world on every tick of a step-length ticker until ctx is
// cancelled. input is polled once per frame; frame, if set, runs after the
// updates with the number of steps taken.
func (s *Stepper) Run(ctx context.Context, input func() Commands, frame func(steps int)) error {
	ticker := time.NewTicker(s.step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			var cmds Commands
			if input != nil {
				cmds = input()
			}
			steps := s.Advance(now, cmds)
			if frame != nil {
				frame(steps)
			}
		}
	}
}
