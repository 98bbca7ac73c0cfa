// pkg/render/keys.go
package render

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-blackhole/pkg/engine"
)

// RuneBindings maps character keys to player commands. Shifted punctuation
// is folded onto its base key before lookup.
var RuneBindings = map[rune]engine.Commands{
	' ':  engine.CmdThrustMain,
	';':  engine.CmdManeuverForward,
	'\'': engine.CmdManeuverForward,
	'/':  engine.CmdManeuverBack,
	'w':  engine.CmdManeuverUp,
	'e':  engine.CmdManeuverUp,
	's':  engine.CmdManeuverDown,
	'd':  engine.CmdManeuverRight,
	'a':  engine.CmdManeuverLeft,
	'.':  engine.CmdRollRight,
	',':  engine.CmdRollLeft,
	'g':  engine.CmdFastForward,
	'k':  engine.CmdKnockOff,
	'p':  engine.CmdTogglePause,
	't':  engine.CmdToggleDebug,
}

// KeyBindings maps special keys to player commands
var KeyBindings = map[tcell.Key]engine.Commands{
	tcell.KeyUp:    engine.CmdPitchDown,
	tcell.KeyDown:  engine.CmdPitchUp,
	tcell.KeyLeft:  engine.CmdYawLeft,
	tcell.KeyRight: engine.CmdYawRight,
	tcell.KeyEnd:   engine.CmdReset,
}

// FoldShift maps a shifted key to the unshifted key it shares
func FoldShift(r rune) rune {
	switch r {
	case '<':
		return ','
	case '>':
		return '.'
	case '?':
		return '/'
	case ':':
		return ';'
	case '"':
		return '\''
	default:
		return unicode.ToLower(r)
	}
}

// InputFromKey returns the commands a key event asks for. Terminals report
// key presses only, so every command lasts for the frame it arrives in.
func InputFromKey(ev *tcell.EventKey) engine.Commands {
	if ev.Key() == tcell.KeyRune {
		return RuneBindings[FoldShift(ev.Rune())]
	}
	return KeyBindings[ev.Key()]
}

// IsQuit reports whether a key event ends the session
func IsQuit(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC
}
