// pkg/physics/frame.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Default basis for a new Frame.
var (
	DefaultForward = Vec3{1, 0, 0}
	DefaultUp      = Vec3{0, 1, 0}
	DefaultRight   = Vec3{0, 0, 1}
)

// Frame is a position plus an orthonormal forward/up/right basis. Right is
// always Forward x Up. Frame is a value type and is copied freely.
type Frame struct {
	Position Vec3
	Forward  Vec3
	Up       Vec3
	Right    Vec3
}

// NewFrame returns a frame at position with the default basis.
func NewFrame(position Vec3) Frame {
	return Frame{
		Position: position,
		Forward:  DefaultForward,
		Up:       DefaultUp,
		Right:    DefaultRight,
	}
}

// NewFrameFromBasis returns a frame with the given forward and up axes. Both
// must be unit length and orthogonal.
func NewFrameFromBasis(position, forward, up Vec3) Frame {
	Assert(IsUnit(forward), "frame forward %v is not unit length", forward)
	Assert(IsUnit(up), "frame up %v is not unit length", up)
	Assert(math.Abs(forward.Dot(up)) <= Epsilon, "frame forward %v and up %v are not orthogonal", forward, up)

	f := Frame{Position: position, Forward: forward, Up: up, Right: forward.Cross(up)}
	f.assertInvariant()
	return f
}

// LocalToWorld converts a direction from local coordinates into world
// coordinates. Position is not applied.
func (f *Frame) LocalToWorld(v Vec3) Vec3 {
	return f.Forward.Mul(v[0]).Add(f.Up.Mul(v[1])).Add(f.Right.Mul(v[2]))
}

// WorldToLocal converts a world direction into local coordinates using the
// transpose of the basis.
func (f *Frame) WorldToLocal(v Vec3) Vec3 {
	return Vec3{f.Forward.Dot(v), f.Up.Dot(v), f.Right.Dot(v)}
}

// LocalToWorldPoint converts a local point into a world point.
func (f *Frame) LocalToWorldPoint(p Vec3) Vec3 {
	return f.Matrix().Mul4x1(p.Vec4(1)).Vec3()
}

// WorldToLocalPoint converts a world point into the frame's local space.
func (f *Frame) WorldToLocalPoint(p Vec3) Vec3 {
	return f.WorldToLocal(p.Sub(f.Position))
}

// Translate moves the frame by delta.
func (f *Frame) Translate(delta Vec3) {
	f.Position = f.Position.Add(delta)
}

// RotateAroundForward rolls the frame: up and right turn around forward.
func (f *Frame) RotateAroundForward(radians float64) {
	f.Up = RotateAround(f.Up, f.Forward, radians)
	f.Right = RotateAround(f.Right, f.Forward, radians)
	f.orthonormalize()
}

// RotateAroundUp yaws the frame: forward and right turn around up.
func (f *Frame) RotateAroundUp(radians float64) {
	f.Forward = RotateAround(f.Forward, f.Up, radians)
	f.Right = RotateAround(f.Right, f.Up, radians)
	f.orthonormalize()
}

// RotateAroundRight pitches the frame: forward and up turn around right.
func (f *Frame) RotateAroundRight(radians float64) {
	f.Forward = RotateAround(f.Forward, f.Right, radians)
	f.Up = RotateAround(f.Up, f.Right, radians)
	f.orthonormalize()
}

// RotateAround turns all three axes around an arbitrary axis. A zero axis
// leaves the frame unchanged.
func (f *Frame) RotateAround(axis Vec3, radians float64) {
	if IsZero(axis) {
		return
	}
	axis = axis.Normalize()
	q := mgl64.QuatRotate(radians, axis)
	f.Forward = q.Rotate(f.Forward)
	f.Up = q.Rotate(f.Up)
	f.Right = q.Rotate(f.Right)
	f.orthonormalize()
}

// RotateToward turns the frame so that forward moves toward target by at most
// maxRadians. If forward and target are parallel the frame turns around up.
// A zero target leaves the frame unchanged.
func (f *Frame) RotateToward(target Vec3, maxRadians float64) {
	Assert(maxRadians >= 0, "RotateToward: negative max angle %v", maxRadians)
	if IsZero(target) {
		return
	}

	axis := f.Forward.Cross(target)
	if IsZero(axis) {
		axis = f.Up
	}

	angle := math.Min(AngleBetween(f.Forward, target), maxRadians)
	if angle == 0 {
		return
	}
	f.RotateAround(axis, angle)
}

// Matrix returns the local-to-world transform, with forward, up and right as
// the first three columns.
func (f *Frame) Matrix() mgl64.Mat4 {
	return mgl64.Mat4FromCols(
		f.Forward.Vec4(0),
		f.Up.Vec4(0),
		f.Right.Vec4(0),
		f.Position.Vec4(1),
	)
}

// IsOrthonormal reports whether the basis satisfies the frame invariant.
func (f *Frame) IsOrthonormal() bool {
	const tol = 1e-6
	if !IsUnit(f.Forward) || !IsUnit(f.Up) || !IsUnit(f.Right) {
		return false
	}
	if math.Abs(f.Forward.Dot(f.Up)) > tol ||
		math.Abs(f.Forward.Dot(f.Right)) > tol ||
		math.Abs(f.Up.Dot(f.Right)) > tol {
		return false
	}
	return NearlyEqual(f.Forward.Cross(f.Up), f.Right, tol)
}

// orthonormalize removes accumulated drift with Gram-Schmidt and rebuilds
// right from forward and up.
func (f *Frame) orthonormalize() {
	f.Forward = SafeNormalize(f.Forward, DefaultForward)
	up := Rejection(f.Up, f.Forward)
	if IsZero(up) {
		up = Rejection(f.Right.Cross(f.Forward), f.Forward)
	}
	f.Up = SafeNormalize(up, DefaultUp)
	f.Right = f.Forward.Cross(f.Up)
	f.assertInvariant()
}

func (f *Frame) assertInvariant() {
	Assert(f.IsOrthonormal(), "frame basis not orthonormal: forward=%v up=%v right=%v", f.Forward, f.Up, f.Right)
}
