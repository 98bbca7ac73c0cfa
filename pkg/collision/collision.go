// pkg/collision/collision.go
package collision

import (
	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// IsCollision reports whether two entities touch. Bounding spheres are tested
// first; asteroids then use their true surface radius toward the other centre.
// If the centres coincide the bounding-sphere result stands.
func IsCollision(a, b entity.Entity) bool {
	ca, cb := a.Core(), b.Core()
	if !ca.Sphere().Collides(cb.Sphere()) {
		return false
	}

	contact := physics.LineOfCenters(ca.Position(), cb.Position())
	if !contact.Valid {
		return true
	}

	sum := surfaceRadius(a, contact.Normal) + surfaceRadius(b, contact.Normal.Mul(-1))
	return contact.Distance < sum
}

// surfaceRadius returns the radius of e along a world direction.
func surfaceRadius(e entity.Entity, dir physics.Vec3) float64 {
	switch v := e.(type) {
	case *entity.Asteroid:
		return v.RadiusInDirection(dir)
	default:
		return e.Core().Radius
	}
}

// BounceOff reflects moving's velocity off stationary along the line of
// centres. Nothing changes if the bodies are already separating or their
// centres coincide. stationary is never modified.
func BounceOff(moving, stationary *entity.Body) {
	contact := physics.LineOfCenters(stationary.Position(), moving.Position())
	if !contact.Valid {
		return
	}

	n := contact.Normal
	closing := moving.Velocity.Sub(stationary.Velocity).Dot(n)
	if closing >= 0 {
		return
	}
	moving.AddVelocity(n.Mul(-2 * closing))
}

// Elastic exchanges the along-axis momentum of two bodies relative to their
// common centre of mass. Off-axis velocity is kept. Nothing changes if the
// bodies are separating or their centres coincide.
func Elastic(a, b *entity.Body) {
	contact := physics.LineOfCenters(a.Position(), b.Position())
	if !contact.Valid {
		return
	}
	n := contact.Normal

	total := a.Mass + b.Mass
	average := a.Velocity.Mul(a.Mass).Add(b.Velocity.Mul(b.Mass)).Mul(1 / total)

	extraA := physics.Projection(a.Velocity.Sub(average), n)
	extraB := physics.Projection(b.Velocity.Sub(average), n)
	momentumA := extraA.Mul(a.Mass)
	momentumB := extraB.Mul(b.Mass)

	if !physics.SameHemisphere(momentumA, n) {
		return
	}

	a.Velocity = a.Velocity.Sub(extraA).Add(momentumB.Mul(1 / a.Mass))
	b.Velocity = b.Velocity.Sub(extraB).Add(momentumA.Mul(1 / b.Mass))
}
