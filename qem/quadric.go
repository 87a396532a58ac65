package qem

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Quadric is a quadratic form measuring the weighted sum of squared distances from a point
// to a set of planes: Error(v) = vᵗAv + 2bᵗv + c.
type Quadric struct {
	A [3][3]float64
	B r3.Vector
	C float64
}

// PlaneQuadric returns the quadric of the plane through p with unit normal n, weighted by area.
func PlaneQuadric(n, p r3.Vector, area float64) Quadric {
	d := -n.Dot(p)
	nv := [3]float64{n.X, n.Y, n.Z}
	var q Quadric
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			q.A[i][j] = area * nv[i] * nv[j]
		}
	}
	q.B = n.Mul(area * d)
	q.C = area * d * d
	return q
}

// Add returns q + o.
func (q Quadric) Add(o Quadric) Quadric {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			q.A[i][j] += o.A[i][j]
		}
	}
	q.B = q.B.Add(o.B)
	q.C += o.C
	return q
}

func (q Quadric) mulA(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: q.A[0][0]*v.X + q.A[0][1]*v.Y + q.A[0][2]*v.Z,
		Y: q.A[1][0]*v.X + q.A[1][1]*v.Y + q.A[1][2]*v.Z,
		Z: q.A[2][0]*v.X + q.A[2][1]*v.Y + q.A[2][2]*v.Z,
	}
}

// Error evaluates the quadric at v.
func (q Quadric) Error(v r3.Vector) float64 {
	return v.Dot(q.mulA(v)) + 2*q.B.Dot(v) + q.C
}

func (q Quadric) matrix() *mat.SymDense {
	return mat.NewSymDense(3, []float64{
		q.A[0][0], q.A[0][1], q.A[0][2],
		q.A[1][0], q.A[1][1], q.A[1][2],
		q.A[2][0], q.A[2][1], q.A[2][2],
	})
}

// Minimizer solves Av = -b for the point of least error. ok is false when A is singular
// to within eps or the solution is not finite.
func (q Quadric) Minimizer(eps float64) (v r3.Vector, ok bool) {
	a := q.matrix()
	det := mat.Det(a)
	if math.IsNaN(det) || math.Abs(det) < eps {
		return r3.Vector{}, false
	}
	var x mat.VecDense
	if err := x.SolveVec(a, mat.NewVecDense(3, []float64{-q.B.X, -q.B.Y, -q.B.Z})); err != nil {
		return r3.Vector{}, false
	}
	v = r3.Vector{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
	if !finite(v) {
		return r3.Vector{}, false
	}
	return v, true
}

func finite(v r3.Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
