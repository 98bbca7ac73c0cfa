// pkg/collision/index.go
package collision

import (
	"sort"

	"github.com/opd-ai/go-blackhole/pkg/entity"
	"github.com/opd-ai/go-blackhole/pkg/physics"
)

const indexNodeCapacity = 8

// Index is a broad-phase spatial index over asteroid centres. Queries return
// slice indexes in ascending order so callers visit pairs in a stable order.
type Index struct {
	tree      *physics.Octree[int]
	maxRadius float64
	positions []physics.Vec3
}

// NewIndex builds an index of the asteroids' current positions.
func NewIndex(asteroids []*entity.Asteroid) *Index {
	idx := &Index{positions: make([]physics.Vec3, len(asteroids))}
	for i, a := range asteroids {
		idx.positions[i] = a.Position()
		if a.Radius > idx.maxRadius {
			idx.maxRadius = a.Radius
		}
	}

	idx.tree = physics.NewOctree[int](physics.BoundsOf(idx.positions, 1), indexNodeCapacity)
	for i, p := range idx.positions {
		idx.tree.Insert(p, i)
	}
	return idx
}

// Near returns the asteroids whose bounding sphere may reach a sphere of the
// given radius at center.
func (idx *Index) Near(center physics.Vec3, radius float64) []int {
	found := idx.tree.QuerySphere(center, radius+idx.maxRadius)
	sort.Ints(found)
	return found
}

// Len returns the number of indexed asteroids
func (idx *Index) Len() int {
	return idx.tree.Len()
}
