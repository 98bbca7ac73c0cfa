// pkg/physics/gravity.go
package physics

import "math"

// G is the gravitational constant in m^3 kg^-1 s^-2.
const G = 6.67408e-11

// GravityAcceleration returns the acceleration at position due to a point mass
// at source. It returns the zero vector when position coincides with source.
func GravityAcceleration(position, source Vec3, sourceMass float64) Vec3 {
	toSource := source.Sub(position)
	distSq := toSource.LenSqr()
	if distSq == 0 {
		return Zero
	}
	magnitude := G * sourceMass / distSq
	return toSource.Mul(magnitude / math.Sqrt(distSq))
}

// CircularOrbitSpeed returns the speed of a circular orbit at distance from a
// point mass.
func CircularOrbitSpeed(sourceMass, distance float64) float64 {
	Assert(distance > 0, "CircularOrbitSpeed: distance %v must be positive", distance)
	return math.Sqrt(G * sourceMass / distance)
}
