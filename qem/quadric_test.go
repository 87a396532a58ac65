package qem

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPlaneQuadric(t *testing.T) {
	q := PlaneQuadric(r3.Vector{Z: 1}, r3.Vector{X: 5, Y: -2, Z: 1}, 1)
	test.That(t, q.Error(r3.Vector{X: 3, Y: 4, Z: 1}), test.ShouldAlmostEqual, 0)
	test.That(t, q.Error(r3.Vector{Z: 3}), test.ShouldAlmostEqual, 4)

	weighted := PlaneQuadric(r3.Vector{Z: 1}, r3.Vector{Z: 1}, 2)
	test.That(t, weighted.Error(r3.Vector{Z: 3}), test.ShouldAlmostEqual, 8)

	sum := q.Add(weighted)
	test.That(t, sum.Error(r3.Vector{Z: 3}), test.ShouldAlmostEqual, 12)
	test.That(t, sum.C, test.ShouldAlmostEqual, q.C+weighted.C)
}

func TestMinimizer(t *testing.T) {
	q := PlaneQuadric(r3.Vector{X: 1}, r3.Vector{X: 1}, 1).
		Add(PlaneQuadric(r3.Vector{Y: 1}, r3.Vector{Y: 2}, 1)).
		Add(PlaneQuadric(r3.Vector{Z: 1}, r3.Vector{Z: 3}, 1))
	v, ok := q.Minimizer(DefaultDeterminantEpsilon)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v.X, test.ShouldAlmostEqual, 1)
	test.That(t, v.Y, test.ShouldAlmostEqual, 2)
	test.That(t, v.Z, test.ShouldAlmostEqual, 3)
	test.That(t, q.Error(v), test.ShouldAlmostEqual, 0)

	t.Run("singular", func(t *testing.T) {
		planar := PlaneQuadric(r3.Vector{Z: 1}, r3.Vector{}, 1).Add(PlaneQuadric(r3.Vector{Z: 1}, r3.Vector{X: 1}, 3))
		_, ok := planar.Minimizer(DefaultDeterminantEpsilon)
		test.That(t, ok, test.ShouldBeFalse)

		twoPlanes := planar.Add(PlaneQuadric(r3.Vector{X: 1}, r3.Vector{}, 1))
		_, ok = twoPlanes.Minimizer(DefaultDeterminantEpsilon)
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("non-finite", func(t *testing.T) {
		bad := q
		bad.B.X = math.Inf(1)
		_, ok := bad.Minimizer(DefaultDeterminantEpsilon)
		test.That(t, ok, test.ShouldBeFalse)
	})
}
