// pkg/physics/octree.go
package physics

import "math"

// maxOctreeDepth stops subdivision when many points share a location.
const maxOctreeDepth = 16

// Box is an axis-aligned box given by its center and half extents.
type Box struct {
	Center Vec3
	Half   Vec3
}

// BoundsOf returns a cube enclosing every point, padded by margin.
func BoundsOf(points []Vec3, margin float64) Box {
	if len(points) == 0 {
		return Box{Half: Vec3{margin, margin, margin}}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	center := lo.Add(hi).Mul(0.5)
	half := math.Max(hi[0]-lo[0], math.Max(hi[1]-lo[1], hi[2]-lo[2]))/2 + margin
	return Box{Center: center, Half: Vec3{half, half, half}}
}

// Contains reports whether point lies in the box. The upper faces are open.
func (b Box) Contains(point Vec3) bool {
	for i := 0; i < 3; i++ {
		if point[i] < b.Center[i]-b.Half[i] || point[i] >= b.Center[i]+b.Half[i] {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether the box and the sphere overlap.
func (b Box) IntersectsSphere(center Vec3, radius float64) bool {
	var distSq float64
	for i := 0; i < 3; i++ {
		lo := b.Center[i] - b.Half[i]
		hi := b.Center[i] + b.Half[i]
		switch {
		case center[i] < lo:
			d := lo - center[i]
			distSq += d * d
		case center[i] > hi:
			d := center[i] - hi
			distSq += d * d
		}
	}
	return distSq <= radius*radius
}

// Octree for spatial partitioning of points in 3-D
type Octree[T any] struct {
	Boundary Box
	Capacity int
	Points   []Vec3
	Objects  []T
	Children *[8]Octree[T]
	depth    int
}

// NewOctree creates a new octree with the given boundary and capacity
func NewOctree[T any](boundary Box, capacity int) *Octree[T] {
	Assert(capacity > 0, "octree capacity %d must be positive", capacity)
	return &Octree[T]{
		Boundary: boundary,
		Capacity: capacity,
		Points:   make([]Vec3, 0, capacity),
		Objects:  make([]T, 0, capacity),
	}
}

// Insert adds object at point. It returns false if point is outside the tree.
func (ot *Octree[T]) Insert(point Vec3, object T) bool {
	if !ot.Boundary.Contains(point) {
		return false
	}

	if ot.Children == nil && (len(ot.Points) < ot.Capacity || ot.depth >= maxOctreeDepth) {
		ot.Points = append(ot.Points, point)
		ot.Objects = append(ot.Objects, object)
		return true
	}

	if ot.Children == nil {
		ot.Subdivide()
	}

	for i := range ot.Children {
		if ot.Children[i].Insert(point, object) {
			return true
		}
	}

	// rounding at octant faces; keep it here
	ot.Points = append(ot.Points, point)
	ot.Objects = append(ot.Objects, object)
	return true
}

// Subdivide splits the node into eight octants
func (ot *Octree[T]) Subdivide() {
	half := ot.Boundary.Half.Mul(0.5)
	var children [8]Octree[T]
	for i := 0; i < 8; i++ {
		offset := Vec3{-half[0], -half[1], -half[2]}
		if i&1 != 0 {
			offset[0] = half[0]
		}
		if i&2 != 0 {
			offset[1] = half[1]
		}
		if i&4 != 0 {
			offset[2] = half[2]
		}
		children[i] = Octree[T]{
			Boundary: Box{Center: ot.Boundary.Center.Add(offset), Half: half},
			Capacity: ot.Capacity,
			depth:    ot.depth + 1,
		}
	}
	ot.Children = &children
}

// QuerySphere returns every object whose point lies within radius of center.
func (ot *Octree[T]) QuerySphere(center Vec3, radius float64) []T {
	var found []T
	ot.querySphere(center, radius, &found)
	return found
}

func (ot *Octree[T]) querySphere(center Vec3, radius float64, found *[]T) {
	if !ot.Boundary.IntersectsSphere(center, radius) {
		return
	}

	radiusSq := radius * radius
	for i, point := range ot.Points {
		if DistanceSquared(point, center) <= radiusSq {
			*found = append(*found, ot.Objects[i])
		}
	}

	if ot.Children == nil {
		return
	}
	for i := range ot.Children {
		ot.Children[i].querySphere(center, radius, found)
	}
}

// Clear removes every point and collapses the tree back to a single node.
func (ot *Octree[T]) Clear() {
	ot.Points = ot.Points[:0]
	ot.Objects = ot.Objects[:0]
	ot.Children = nil
}

// Len returns the number of stored points.
func (ot *Octree[T]) Len() int {
	n := len(ot.Points)
	if ot.Children != nil {
		for i := range ot.Children {
			n += ot.Children[i].Len()
		}
	}
	return n
}
