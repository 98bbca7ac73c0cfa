// pkg/physics/vector.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is the vector type used throughout the simulation.
type Vec3 = mgl64.Vec3

// Epsilon is the tolerance used for unit-length and orthogonality checks.
const Epsilon = 1e-6

// Rand is the subset of math/rand/v2 used for randomized construction.
type Rand interface {
	Float64() float64
}

// Zero is the zero vector.
var Zero = Vec3{}

// IsZero reports whether every component of v is exactly zero.
func IsZero(v Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// IsUnit reports whether v has length 1 within Epsilon.
func IsUnit(v Vec3) bool {
	return math.Abs(v.LenSqr()-1) <= 2*Epsilon
}

// SafeNormalize returns v scaled to unit length, or fallback if v is zero.
func SafeNormalize(v, fallback Vec3) Vec3 {
	lenSq := v.LenSqr()
	if lenSq == 0 || math.IsNaN(lenSq) || math.IsInf(lenSq, 0) {
		return fallback
	}
	return v.Mul(1 / math.Sqrt(lenSq))
}

// NearlyEqual reports whether every component of a and b differs by at most
// tol.
func NearlyEqual(a, b Vec3, tol float64) bool {
	return math.Abs(a[0]-b[0]) <= tol &&
		math.Abs(a[1]-b[1]) <= tol &&
		math.Abs(a[2]-b[2]) <= tol
}

// WithLength returns v scaled so that its length is n. A zero v stays zero.
func WithLength(v Vec3, n float64) Vec3 {
	return SafeNormalize(v, Zero).Mul(n)
}

// Projection returns the component of v parallel to onto.
func Projection(v, onto Vec3) Vec3 {
	lenSq := onto.LenSqr()
	if lenSq == 0 {
		return Zero
	}
	return onto.Mul(v.Dot(onto) / lenSq)
}

// Rejection returns the component of v perpendicular to from.
func Rejection(v, from Vec3) Vec3 {
	return v.Sub(Projection(v, from))
}

// AngleBetween returns the angle in radians between a and b. It returns 0 if
// either vector is zero.
func AngleBetween(a, b Vec3) float64 {
	denom := math.Sqrt(a.LenSqr() * b.LenSqr())
	if denom == 0 {
		return 0
	}
	return math.Acos(mgl64.Clamp(a.Dot(b)/denom, -1, 1))
}

// SameHemisphere reports whether a and b point less than 90 degrees apart.
func SameHemisphere(a, b Vec3) bool {
	return a.Dot(b) > 0
}

// RotateAround rotates v by radians around a unit axis.
func RotateAround(v, axis Vec3, radians float64) Vec3 {
	return mgl64.QuatRotate(radians, axis).Rotate(v)
}

// Distance returns the distance between two points.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// DistanceSquared returns the squared distance between two points.
func DistanceSquared(a, b Vec3) float64 {
	return a.Sub(b).LenSqr()
}

// RandomUnitVector returns a uniformly distributed direction.
func RandomUnitVector(rng Rand) Vec3 {
	for {
		v := RandomInSphere(rng)
		lenSq := v.LenSqr()
		if lenSq > 1e-6 {
			return v.Mul(1 / math.Sqrt(lenSq))
		}
	}
}

// RandomInSphere returns a point uniformly distributed inside the unit sphere.
func RandomInSphere(rng Rand) Vec3 {
	for {
		v := Vec3{
			rng.Float64()*2 - 1,
			rng.Float64()*2 - 1,
			rng.Float64()*2 - 1,
		}
		if v.LenSqr() <= 1 {
			return v
		}
	}
}

// RandomRange returns a uniform value in [min, max).
func RandomRange(rng Rand, min, max float64) float64 {
	Assert(min <= max, "RandomRange: min %v > max %v", min, max)
	return min + rng.Float64()*(max-min)
}
