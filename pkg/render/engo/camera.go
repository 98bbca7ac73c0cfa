// pkg/render/engo/camera.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
)

// CameraSystem moves the engo camera after the player's ship. Positions are
// in world pixels, as placed by EngoRenderer.
type CameraSystem struct {
	// Target to follow
	target    engo.Point
	targetSet bool

	// Camera properties
	zoom    float32
	minZoom float32
	maxZoom float32

	// Smooth following
	followSpeed float32
	smoothing   bool

	// Current camera state
	currentPos engo.Point
	placed     bool
}

// NewCameraSystem creates a new camera system
func NewCameraSystem() *CameraSystem {
	return &CameraSystem{
		zoom:        1.0,
		minZoom:     0.1,
		maxZoom:     3.0,
		followSpeed: 4.0,
		smoothing:   true,
	}
}

// Priority runs the camera after the simulation has moved the target
func (cs *CameraSystem) Priority() int { return 10 }

// Remove satisfies the ecs.System interface
func (cs *CameraSystem) Remove(basic ecs.BasicEntity) {}

// Update handles zoom keys, follows the target and moves the engo camera
func (cs *CameraSystem) Update(dt float32) {
	cs.handleZoomInput()
	cs.step(dt)
	cs.applyCameraTransform()
}

// handleZoomInput processes zoom-related input
func (cs *CameraSystem) handleZoomInput() {
	if scrollY := engo.Input.Mouse.ScrollY; scrollY != 0 {
		cs.SetZoom(cs.zoom * (1.0 + scrollY*0.1))
	}
	if engo.Input.Button(ButtonZoomIn).Down() {
		cs.SetZoom(cs.zoom * 1.02)
	}
	if engo.Input.Button(ButtonZoomOut).Down() {
		cs.SetZoom(cs.zoom * 0.98)
	}
	if engo.Input.Button(ButtonResetZoom).JustPressed() {
		cs.SetZoom(1.0)
	}
}

// step moves the camera toward the target
func (cs *CameraSystem) step(dt float32) {
	if !cs.targetSet {
		return
	}
	if !cs.smoothing || !cs.placed {
		cs.currentPos = cs.target
		cs.placed = true
		return
	}

	f := cs.followSpeed * dt
	if f > 1 {
		f = 1
	}
	cs.currentPos.X += (cs.target.X - cs.currentPos.X) * f
	cs.currentPos.Y += (cs.target.Y - cs.currentPos.Y) * f
}

// applyCameraTransform sends the position and zoom to the engo camera
func (cs *CameraSystem) applyCameraTransform() {
	for _, msg := range cs.messages() {
		engo.Mailbox.Dispatch(msg)
	}
}

func (cs *CameraSystem) messages() []common.CameraMessage {
	return []common.CameraMessage{
		{Axis: common.XAxis, Value: cs.currentPos.X, Incremental: false},
		{Axis: common.YAxis, Value: cs.currentPos.Y, Incremental: false},
		{Axis: common.ZAxis, Value: 1 / cs.zoom, Incremental: false},
	}
}

// SetTarget sets the point for the camera to follow
func (cs *CameraSystem) SetTarget(target engo.Point) {
	cs.target = target
	cs.targetSet = true
}

// ClearTarget leaves the camera where it is
func (cs *CameraSystem) ClearTarget() {
	cs.targetSet = false
}

// SetZoom sets the camera zoom level
func (cs *CameraSystem) SetZoom(zoom float32) {
	cs.zoom = cs.clampZoom(zoom)
}

// GetZoom returns the current zoom level
func (cs *CameraSystem) GetZoom() float32 {
	return cs.zoom
}

// clampZoom ensures zoom is within valid bounds
func (cs *CameraSystem) clampZoom(zoom float32) float32 {
	if zoom < cs.minZoom {
		return cs.minZoom
	}
	if zoom > cs.maxZoom {
		return cs.maxZoom
	}
	return zoom
}

// SetFollowSpeed sets the camera follow speed
func (cs *CameraSystem) SetFollowSpeed(speed float32) {
	cs.followSpeed = speed
}

// EnableSmoothing enables or disables camera smoothing
func (cs *CameraSystem) EnableSmoothing(enabled bool) {
	cs.smoothing = enabled
}

// GetCurrentPosition returns the current camera position
func (cs *CameraSystem) GetCurrentPosition() engo.Point {
	return cs.currentPos
}

// WorldToScreen converts a world pixel position to a position on a screen of
// the given size.
func (cs *CameraSystem) WorldToScreen(p engo.Point, width, height float32) engo.Point {
	return engo.Point{
		X: (p.X-cs.currentPos.X)*cs.zoom + width/2,
		Y: (p.Y-cs.currentPos.Y)*cs.zoom + height/2,
	}
}

// ScreenToWorld inverts WorldToScreen
func (cs *CameraSystem) ScreenToWorld(p engo.Point, width, height float32) engo.Point {
	return engo.Point{
		X: (p.X-width/2)/cs.zoom + cs.currentPos.X,
		Y: (p.Y-height/2)/cs.zoom + cs.currentPos.Y,
	}
}

// SetZoomLimits sets the minimum and maximum zoom levels
func (cs *CameraSystem) SetZoomLimits(min, max float32) {
	cs.minZoom = min
	cs.maxZoom = max
	cs.zoom = cs.clampZoom(cs.zoom)
}

// GetZoomLimits returns the current zoom limits
func (cs *CameraSystem) GetZoomLimits() (float32, float32) {
	return cs.minZoom, cs.maxZoom
}
