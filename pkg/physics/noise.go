// pkg/physics/noise.go
package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/ojrac/opensimplex-go"
)

// Asteroid surface noise parameters.
const (
	NoiseFrequency = 0.6
	NoiseAmplitude = 1.0
)

// NoiseField is a deterministic 3-D coherent noise function with values in
// [-1, 1].
type NoiseField interface {
	Eval(p Vec3) float64
}

// SimplexField samples OpenSimplex noise at a fixed frequency and amplitude.
type SimplexField struct {
	noise     opensimplex.Noise
	Frequency float64
	Amplitude float64
}

// NewSimplexField creates a noise field seeded with seed, using the asteroid
// surface frequency and amplitude.
func NewSimplexField(seed int64) *SimplexField {
	return &SimplexField{
		noise:     opensimplex.New(seed),
		Frequency: NoiseFrequency,
		Amplitude: NoiseAmplitude,
	}
}

// Eval returns the noise value at p, clamped to [-1, 1].
func (s *SimplexField) Eval(p Vec3) float64 {
	x := p.Mul(s.Frequency)
	v := s.noise.Eval3(x[0], x[1], x[2]) * s.Amplitude
	return mgl64.Clamp(v, -1, 1)
}

// ConstantField returns the same value everywhere.
type ConstantField float64

// Eval returns the constant value.
func (c ConstantField) Eval(Vec3) float64 {
	return float64(c)
}
