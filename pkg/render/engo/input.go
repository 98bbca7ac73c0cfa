// pkg/render/engo/input.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-blackhole/pkg/engine"
)

// Camera button names
const (
	ButtonZoomIn    = "zoomIn"
	ButtonZoomOut   = "zoomOut"
	ButtonResetZoom = "resetZoom"
	ButtonQuit      = "quit"
)

// buttonState is the part of engo.Button the input system reads
type buttonState interface {
	Down() bool
	JustPressed() bool
}

// binding ties a named engo button to the command it produces
type binding struct {
	name string
	cmd  engine.Commands
	keys []engo.Key
}

// bindings follow the keyboard layout of the terminal view
var bindings = []binding{
	{"thrust", engine.CmdThrustMain, []engo.Key{engo.KeySpace}},
	{"forward", engine.CmdManeuverForward, []engo.Key{engo.KeySemicolon, engo.KeyApostrophe}},
	{"back", engine.CmdManeuverBack, []engo.Key{engo.KeySlash}},
	{"up", engine.CmdManeuverUp, []engo.Key{engo.KeyW, engo.KeyE}},
	{"down", engine.CmdManeuverDown, []engo.Key{engo.KeyS}},
	{"right", engine.CmdManeuverRight, []engo.Key{engo.KeyD}},
	{"left", engine.CmdManeuverLeft, []engo.Key{engo.KeyA}},
	{"rollRight", engine.CmdRollRight, []engo.Key{engo.KeyPeriod}},
	{"rollLeft", engine.CmdRollLeft, []engo.Key{engo.KeyComma}},
	{"pitchDown", engine.CmdPitchDown, []engo.Key{engo.KeyArrowUp}},
	{"pitchUp", engine.CmdPitchUp, []engo.Key{engo.KeyArrowDown}},
	{"yawLeft", engine.CmdYawLeft, []engo.Key{engo.KeyArrowLeft}},
	{"yawRight", engine.CmdYawRight, []engo.Key{engo.KeyArrowRight}},
	{"fast", engine.CmdFastForward, []engo.Key{engo.KeyG}},
	{"knockOff", engine.CmdKnockOff, []engo.Key{engo.KeyK}},
	{"pause", engine.CmdTogglePause, []engo.Key{engo.KeyP}},
	{"debug", engine.CmdToggleDebug, []engo.Key{engo.KeyT}},
	{"reset", engine.CmdReset, []engo.Key{engo.KeyEnd}},
}

// InputSystem turns engo button state into player commands once per frame
type InputSystem struct {
	button func(name string) buttonState
	cmds   engine.Commands
	quit   bool
}

// NewInputSystem creates an input system reading engo.Input
func NewInputSystem() *InputSystem {
	return &InputSystem{
		button: func(name string) buttonState { return engo.Input.Button(name) },
	}
}

// Priority runs input before the simulation
func (is *InputSystem) Priority() int { return 100 }

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {}

// Update samples the buttons. Held commands follow Down; one-shot commands
// fire on the frame the key goes down.
func (is *InputSystem) Update(dt float32) {
	var cmds engine.Commands
	for _, b := range bindings {
		state := is.button(b.name)
		if b.cmd&engine.OneShot != 0 {
			if state.JustPressed() {
				cmds |= b.cmd
			}
		} else if state.Down() {
			cmds |= b.cmd
		}
	}
	is.cmds = cmds
	is.quit = is.button(ButtonQuit).JustPressed()
}

// Commands returns the commands sampled by the last Update
func (is *InputSystem) Commands() engine.Commands {
	return is.cmds
}

// QuitRequested reports whether the quit key went down in the last Update
func (is *InputSystem) QuitRequested() bool {
	return is.quit
}

// SetupInputBindings registers the key bindings with engo
func SetupInputBindings() {
	for _, b := range bindings {
		engo.Input.RegisterButton(b.name, b.keys...)
	}
	engo.Input.RegisterButton(ButtonQuit, engo.KeyEscape)
	engo.Input.RegisterButton(ButtonZoomIn, engo.KeyEquals)
	engo.Input.RegisterButton(ButtonZoomOut, engo.KeyDash)
	engo.Input.RegisterButton(ButtonResetZoom, engo.KeyR)
}
