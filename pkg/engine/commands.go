// pkg/engine/commands.go
package engine

import "strings"

// Commands is the set of player inputs for one tick
type Commands uint32

// Held commands apply for as long as the key is down.
const (
	CmdThrustMain Commands = 1 << iota
	CmdManeuverForward
	CmdManeuverBack
	CmdManeuverUp
	CmdManeuverDown
	CmdManeuverRight
	CmdManeuverLeft
	CmdRollLeft
	CmdRollRight
	CmdPitchUp
	CmdPitchDown
	CmdYawLeft
	CmdYawRight
	CmdFastForward

	// One-shot actions run once per key press.
	CmdKnockOff
	CmdTogglePause
	CmdToggleDebug
	CmdReset
)

// OneShot masks the commands that must not repeat across catch-up steps.
const OneShot = CmdKnockOff | CmdTogglePause | CmdToggleDebug | CmdReset

var commandNames = []string{
	"thrust_main",
	"maneuver_forward", "maneuver_back",
	"maneuver_up", "maneuver_down",
	"maneuver_right", "maneuver_left",
	"roll_left", "roll_right",
	"pitch_up", "pitch_down",
	"yaw_left", "yaw_right",
	"fast_forward",
	"knock_off", "toggle_pause", "toggle_debug", "reset",
}

// Has reports whether every command in c is set
func (cmds Commands) Has(c Commands) bool {
	return cmds&c == c
}

// Held returns the commands with the one-shot actions removed
func (cmds Commands) Held() Commands {
	return cmds &^ OneShot
}

func (cmds Commands) String() string {
	if cmds == 0 {
		return "none"
	}
	var names []string
	for i, name := range commandNames {
		if cmds&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}
