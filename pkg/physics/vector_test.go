// pkg/physics/vector_test.go
package physics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNormalize(t *testing.T) {
	tests := []struct {
		name     string
		v        Vec3
		fallback Vec3
		expected Vec3
	}{
		{"axis_aligned", Vec3{0, 5, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{"diagonal", Vec3{3, 4, 0}, Vec3{1, 0, 0}, Vec3{0.6, 0.8, 0}},
		{"zero_uses_fallback", Vec3{}, Vec3{0, 0, 1}, Vec3{0, 0, 1}},
		{"nan_uses_fallback", Vec3{math.NaN(), 0, 0}, Vec3{0, 1, 0}, Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SafeNormalize(tt.v, tt.fallback)
			assert.True(t, NearlyEqual(result, tt.expected, 1e-12),
				"SafeNormalize() = %v, expected %v", result, tt.expected)
		})
	}
}

func TestNearlyEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		expected bool
	}{
		{"rounding residue against zero", Vec3{2.220446049250313e-16, 0, -1}, Vec3{0, 0, -1}, true},
		{"equal", Vec3{1, 2, 3}, Vec3{1, 2, 3}, true},
		{"beyond tolerance", Vec3{0, 1e-6, 0}, Vec3{}, false},
		{"large values use the same absolute tolerance", Vec3{1e6, 0, 0}, Vec3{1e6 + 1e-3, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NearlyEqual(tt.a, tt.b, 1e-9))
		})
	}
}

func TestProjectionAndRejection(t *testing.T) {
	v := Vec3{3, 4, 5}
	onto := Vec3{0, 2, 0}

	assert.Equal(t, Vec3{0, 4, 0}, Projection(v, onto))
	assert.Equal(t, Vec3{3, 0, 5}, Rejection(v, onto))
	assert.Equal(t, Zero, Projection(v, Zero), "projection onto zero vector")
}

func TestAngleBetween(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		expected float64
	}{
		{"same", Vec3{1, 0, 0}, Vec3{2, 0, 0}, 0},
		{"perpendicular", Vec3{1, 0, 0}, Vec3{0, 3, 0}, math.Pi / 2},
		{"opposite", Vec3{1, 0, 0}, Vec3{-1, 0, 0}, math.Pi},
		{"zero", Vec3{}, Vec3{1, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AngleBetween(tt.a, tt.b), 1e-9)
		})
	}
}

func TestWithLength(t *testing.T) {
	assert.InDelta(t, 7.0, WithLength(Vec3{1, 2, 3}, 7).Len(), 1e-12)
	assert.Equal(t, Zero, WithLength(Zero, 7))
}

func TestRandomVectors(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 1000; i++ {
		u := RandomUnitVector(rng)
		assert.InDelta(t, 1.0, u.Len(), 1e-9)

		p := RandomInSphere(rng)
		assert.LessOrEqual(t, p.LenSqr(), 1.0)
	}
}

func TestRandomRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 100; i++ {
		v := RandomRange(rng, 50, 400)
		assert.GreaterOrEqual(t, v, 50.0)
		assert.Less(t, v, 400.0)
	}
	assert.Panics(t, func() { RandomRange(rng, 2, 1) })
}

func TestAssert_PanicsWithInvariantError(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(*InvariantError)
		if !ok {
			t.Fatalf("recovered %T, expected *InvariantError", r)
		}
		assert.Contains(t, err.Error(), "mass -1")
	}()
	Assert(false, "mass %v", -1)
}
