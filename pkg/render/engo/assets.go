// pkg/render/engo/assets.go
package engo

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-blackhole/pkg/entity"
)

// Sprite patterns for the piloted bodies. Round bodies are drawn as circles
// and need no texture.
var (
	shipPattern = [][]int{
		{0, 0, 0, 0, 0, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0},
		{0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0},
		{0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 0},
		{0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0},
		{0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0},
		{0, 1, 1, 1, 1, 1, 1, 0, 0, 1, 1, 1, 1, 1, 1, 0},
		{0, 1, 1, 1, 1, 1, 0, 0, 0, 0, 1, 1, 1, 1, 1, 0},
		{1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1},
		{1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1},
	}

	dronePattern = [][]int{
		{0, 0, 0, 0, 1, 1, 0, 0, 0, 0},
		{0, 0, 0, 1, 1, 1, 1, 0, 0, 0},
		{0, 0, 1, 1, 1, 1, 1, 1, 0, 0},
		{0, 1, 1, 1, 1, 1, 1, 1, 1, 0},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{0, 1, 1, 1, 1, 1, 1, 1, 1, 0},
		{0, 0, 1, 1, 1, 1, 1, 1, 0, 0},
		{0, 0, 0, 1, 1, 1, 1, 0, 0, 0},
		{0, 0, 0, 0, 1, 1, 0, 0, 0, 0},
	}
)

// Body colours
var (
	colorSpace     = color.RGBA{0, 0, 8, 255}
	colorHole      = color.RGBA{40, 0, 60, 255}
	colorDisk      = color.RGBA{120, 60, 160, 255}
	colorAsteroid  = color.RGBA{150, 140, 130, 255}
	colorCrystal   = color.RGBA{80, 255, 120, 255}
	colorShip      = color.RGBA{255, 220, 0, 255}
	colorPath      = color.RGBA{255, 220, 0, 128}
	colorDead      = color.RGBA{90, 90, 90, 255}
	colorBarBorder = color.RGBA{255, 255, 255, 255}

	modeColors = map[entity.Mode]color.Color{
		entity.ModeEscort: color.RGBA{135, 206, 235, 255},
		entity.ModePursue: color.RGBA{0, 255, 127, 255},
		entity.ModeAvoid:  color.RGBA{255, 69, 0, 255},
	}
)

// AssetManager holds the drawables for each kind of body
type AssetManager struct {
	sprites map[entity.Kind]common.Drawable
	loaded  bool
}

// NewAssetManager creates a new asset manager
func NewAssetManager() *AssetManager {
	return &AssetManager{
		sprites: make(map[entity.Kind]common.Drawable),
	}
}

// LoadAssets creates every drawable. Textures need an OpenGL context, so
// this runs in the scene's Setup.
func (am *AssetManager) LoadAssets() error {
	am.sprites[entity.KindShip] = am.convertToEngoTexture(PatternImage(shipPattern))
	am.sprites[entity.KindDrone] = am.convertToEngoTexture(PatternImage(dronePattern))
	am.loadShapes()
	am.loaded = true
	return nil
}

// loadShapes registers the untextured drawables
func (am *AssetManager) loadShapes() {
	am.sprites[entity.KindBlackHole] = common.Circle{BorderWidth: 3, BorderColor: colorDisk}
	am.sprites[entity.KindAsteroid] = common.Circle{}
	am.sprites[entity.KindCrystal] = common.Circle{}
}

// Loaded reports whether LoadAssets has run
func (am *AssetManager) Loaded() bool {
	return am.loaded
}

// PatternImage draws a 0/1 pattern as a white-on-transparent image, so the
// render colour tints it.
func PatternImage(pattern [][]int) *image.NRGBA {
	height := len(pattern)
	width := 0
	for _, row := range pattern {
		width = max(width, len(row))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.NRGBA{0, 0, 0, 0}}, image.Point{}, draw.Src)
	for y, row := range pattern {
		for x, pixel := range row {
			if pixel == 1 {
				img.Set(x, y, color.NRGBA{255, 255, 255, 255})
			}
		}
	}
	return img
}

// convertToEngoTexture uploads an image as a texture.
func (am *AssetManager) convertToEngoTexture(img *image.NRGBA) common.Drawable {
	return common.NewTextureSingle(common.NewImageObject(img))
}

// Sprite returns the drawable for a kind of body, or a plain circle before
// the assets are loaded.
func (am *AssetManager) Sprite(kind entity.Kind) common.Drawable {
	if sprite, exists := am.sprites[kind]; exists {
		return sprite
	}
	return common.Circle{}
}

// BodyColor returns the tint for a body
func BodyColor(kind entity.Kind, mode entity.Mode, hasCrystals bool) color.Color {
	switch kind {
	case entity.KindBlackHole:
		return colorHole
	case entity.KindAsteroid:
		if hasCrystals {
			return colorCrystal
		}
		return colorAsteroid
	case entity.KindCrystal:
		return colorCrystal
	case entity.KindShip:
		return colorShip
	case entity.KindDrone:
		return ModeColor(mode)
	default:
		return color.White
	}
}

// ModeColor returns the colour of a drone in mode
func ModeColor(mode entity.Mode) color.Color {
	if c, ok := modeColors[mode]; ok {
		return c
	}
	return colorDead
}
