// pkg/render/status.go
package render

import (
	"fmt"
	"strings"

	"github.com/opd-ai/go-blackhole/pkg/engine"
)

// Status is the content of the HUD line
type Status struct {
	Collected  int
	LiveDrones int
	Drones     int
	Tick       uint64
	Paused     bool
	Debug      bool
	UpdateRate float64
	FrameRate  float64
}

// StatusOf reads the HUD values from a stepper and its world
func StatusOf(s *engine.Stepper) Status {
	w := s.World
	return Status{
		Collected:  w.Collected,
		LiveDrones: w.LiveDrones,
		Drones:     len(w.Drones),
		Tick:       w.Ticks,
		Paused:     w.Paused,
		Debug:      w.Debug,
		UpdateRate: s.Updates.Rate(),
		FrameRate:  s.Frames.Rate(),
	}
}

// StatusOfState reads the HUD values from a snapshot. Rates are unknown
// to a spectator and stay zero.
func StatusOfState(st *engine.State) Status {
	return Status{
		Collected:  st.Collected,
		LiveDrones: st.LiveDrones,
		Drones:     len(st.Drones),
		Tick:       st.Tick,
		Paused:     st.Paused,
	}
}

func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "crystals %d  drones %d/%d  tick %d", s.Collected, s.LiveDrones, s.Drones, s.Tick)
	if s.UpdateRate > 0 || s.FrameRate > 0 {
		fmt.Fprintf(&b, "  %.1f ups  %.1f fps", s.UpdateRate, s.FrameRate)
	}
	if s.Paused {
		b.WriteString("  PAUSED")
	}
	return b.String()
}
