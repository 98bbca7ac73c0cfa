// pkg/physics/collision.go
package physics

// Sphere represents a spherical collision shape
type Sphere struct {
	Center Vec3
	Radius float64
}

// Collides checks if two spheres overlap. Touching spheres do not collide.
func (s Sphere) Collides(other Sphere) bool {
	sum := s.Radius + other.Radius
	return DistanceSquared(s.Center, other.Center) < sum*sum
}

// Contains reports whether point lies inside the sphere.
func (s Sphere) Contains(point Vec3) bool {
	return DistanceSquared(s.Center, point) < s.Radius*s.Radius
}

// Contact describes the line of centers between two bodies.
type Contact struct {
	Normal   Vec3 // unit vector from A toward B
	Distance float64
	Valid    bool // false when the centers coincide
}

// LineOfCenters returns the contact normal from a to b.
func LineOfCenters(a, b Vec3) Contact {
	d := b.Sub(a)
	dist := d.Len()
	if dist == 0 {
		return Contact{}
	}
	return Contact{
		Normal:   d.Mul(1 / dist),
		Distance: dist,
		Valid:    true,
	}
}
