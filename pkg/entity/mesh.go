// pkg/entity/mesh.go
package entity

import (
	"math"

	"github.com/opd-ai/go-blackhole/pkg/physics"
)

// unitSphereTolerance is the allowed error in squared vertex length.
const unitSphereTolerance = 1e-3

// Mesh is an indexed triangle mesh in local coordinates.
type Mesh struct {
	Vertices []physics.Vec3
	Indices  []uint32
}

// UnitSphere builds a UV sphere of radius 1.
func UnitSphere(stacks, slices int) *Mesh {
	physics.Assert(stacks >= 2 && slices >= 3, "UnitSphere: need at least 2 stacks and 3 slices, got %d, %d", stacks, slices)

	m := &Mesh{}
	for i := 0; i <= stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		y := math.Cos(phi)
		ring := math.Sin(phi)
		for j := 0; j <= slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			m.Vertices = append(m.Vertices, physics.Vec3{
				ring * math.Cos(theta),
				y,
				ring * math.Sin(theta),
			})
		}
	}

	row := uint32(slices + 1)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(i)*row + uint32(j)
			b := a + row
			m.Indices = append(m.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return m
}

// Ready reports whether the mesh has geometry.
func (m *Mesh) Ready() bool {
	return m != nil && len(m.Vertices) > 0
}

// IsUnitSphere reports whether every vertex lies on the unit sphere.
func (m *Mesh) IsUnitSphere() bool {
	if !m.Ready() {
		return false
	}
	for _, v := range m.Vertices {
		if math.Abs(v.LenSqr()-1) > unitSphereTolerance {
			return false
		}
	}
	return true
}

// Displaced returns a copy of the mesh with every vertex moved to the length
// returned by radius for that vertex.
func (m *Mesh) Displaced(radius func(v physics.Vec3) float64) *Mesh {
	out := &Mesh{
		Vertices: make([]physics.Vec3, len(m.Vertices)),
		Indices:  append([]uint32(nil), m.Indices...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = physics.WithLength(v, radius(v))
	}
	return out
}

// Bounds returns the smallest and largest vertex distance from the origin.
func (m *Mesh) Bounds() (min, max float64) {
	if len(m.Vertices) == 0 {
		return 0, 0
	}
	min = math.Inf(1)
	for _, v := range m.Vertices {
		l := v.Len()
		min = math.Min(min, l)
		max = math.Max(max, l)
	}
	return min, max
}
