// pkg/render/engo/hud.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/render"
)

// Drone status bar layout, in screen pixels
const (
	barWidth  = 24
	barHeight = 12
	barGap    = 6
	barMargin = 10
)

// HUDSystem manages the heads-up display: the window title carries the
// status line and a row of bars shows each drone's mode.
type HUDSystem struct {
	sink     spriteSink
	setTitle func(string)
	shade    func(*common.RenderComponent)

	title  string
	status render.Status
	modes  []entity.Mode
	bars   []*sprite
}

// NewHUDSystem creates a HUD adding its bars to sink
func NewHUDSystem(sink spriteSink) *HUDSystem {
	return &HUDSystem{
		sink:     sink,
		setTitle: engo.SetTitle,
		shade: func(rc *common.RenderComponent) {
			rc.SetShader(common.HUDShader)
		},
	}
}

// Priority draws the HUD after everything else has updated
func (hud *HUDSystem) Priority() int { return 0 }

// Remove satisfies the ecs.System interface
func (hud *HUDSystem) Remove(basic ecs.BasicEntity) {}

// UpdateStatus records the status line and the mode of each drone slot
func (hud *HUDSystem) UpdateStatus(status render.Status, modes []entity.Mode) {
	hud.status = status
	hud.modes = append(hud.modes[:0], modes...)
}

// Update refreshes the title and the drone bars
func (hud *HUDSystem) Update(dt float32) {
	if title := Title(hud.status); title != hud.title {
		hud.title = title
		hud.setTitle(title)
	}

	for len(hud.bars) < len(hud.modes) {
		hud.bars = append(hud.bars, hud.newBar(len(hud.bars)))
	}
	for i, bar := range hud.bars {
		mode := entity.ModeDead
		if i < len(hud.modes) {
			mode = hud.modes[i]
		}
		bar.render.Color = ModeColor(mode)
	}
}

func (hud *HUDSystem) newBar(slot int) *sprite {
	bar := &sprite{basic: ecs.NewBasic()}
	bar.render = common.RenderComponent{
		Drawable: common.Rectangle{BorderWidth: 1, BorderColor: colorBarBorder},
		Color:    colorDead,
	}
	hud.shade(&bar.render)
	bar.space = common.SpaceComponent{
		Position: engo.Point{
			X: barMargin + float32(slot)*(barWidth+barGap),
			Y: barMargin,
		},
		Width:  barWidth,
		Height: barHeight,
	}
	hud.sink.Add(&bar.basic, &bar.render, &bar.space)
	return bar
}

// Title returns the window title for a status
func Title(status render.Status) string {
	return "go-blackhole  " + status.String()
}

// CurrentTitle returns the last title set on the window
func (hud *HUDSystem) CurrentTitle() string {
	return hud.title
}
