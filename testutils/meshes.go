// Package testutils provides mesh fixtures shared by package tests.
package testutils

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/meshkit/halfedge"
)

// Shape is an indexed triangle soup.
type Shape struct {
	Points []r3.Vector
	Faces  [][3]int
}

// Builder is satisfied by a halfedge.Mesh of any payload types.
type Builder interface {
	AddVertex(p r3.Vector) halfedge.VertexID
	AddFace(v0, v1, v2 halfedge.VertexID) (halfedge.FaceID, error)
}

// Build adds s to m and returns the vertex handles in point order.
func Build(tb testing.TB, m Builder, s Shape) []halfedge.VertexID {
	tb.Helper()
	vs := make([]halfedge.VertexID, len(s.Points))
	for i, p := range s.Points {
		vs[i] = m.AddVertex(p)
	}
	for _, f := range s.Faces {
		_, err := m.AddFace(vs[f[0]], vs[f[1]], vs[f[2]])
		test.That(tb, err, test.ShouldBeNil)
	}
	return vs
}

// NewMesh builds s into a fresh mesh without payloads.
func NewMesh(tb testing.TB, s Shape, opts ...halfedge.Option) (*halfedge.Mesh[struct{}, struct{}, struct{}], []halfedge.VertexID) {
	tb.Helper()
	m := halfedge.NewMesh[struct{}, struct{}, struct{}](opts...)
	vs := Build(tb, m, s)
	return m, vs
}

// Tetrahedron is the closed unit corner tetrahedron with outward normals.
func Tetrahedron() Shape {
	return Shape{
		Points: []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}},
		Faces:  [][3]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}},
	}
}

// Icosahedron is the closed regular icosahedron with 12 vertices and 20 faces.
func Icosahedron() Shape {
	t := (1 + math.Sqrt(5)) / 2
	return Shape{
		Points: []r3.Vector{
			{X: -1, Y: t, Z: 0}, {X: 1, Y: t, Z: 0}, {X: -1, Y: -t, Z: 0}, {X: 1, Y: -t, Z: 0},
			{X: 0, Y: -1, Z: t}, {X: 0, Y: 1, Z: t}, {X: 0, Y: -1, Z: -t}, {X: 0, Y: 1, Z: -t},
			{X: t, Y: 0, Z: -1}, {X: t, Y: 0, Z: 1}, {X: -t, Y: 0, Z: -1}, {X: -t, Y: 0, Z: 1},
		},
		Faces: [][3]int{
			{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
			{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
			{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
			{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
		},
	}
}

// Quad is two triangles sharing the diagonal 0-2 of the unit square.
func Quad() Shape {
	return Shape{
		Points: []r3.Vector{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		Faces:  [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}

// Triangle is a single isolated triangle.
func Triangle() Shape {
	return Shape{
		Points: []r3.Vector{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Faces:  [][3]int{{0, 1, 2}},
	}
}

// Fan is a disk of k triangles around vertex 0 at the origin. With closed set the ring is
// complete and vertex 0 is interior.
func Fan(k int, closed bool) Shape {
	s := Shape{Points: []r3.Vector{{}}}
	for i := 0; i < k; i++ {
		a := 2 * math.Pi * float64(i) / float64(k)
		s.Points = append(s.Points, r3.Vector{X: math.Cos(a), Y: math.Sin(a)})
	}
	n := k
	if !closed {
		n = k - 1
	}
	for i := 0; i < n; i++ {
		s.Faces = append(s.Faces, [3]int{0, 1 + i, 1 + (i+1)%k})
	}
	return s
}

// Grid is an n by n vertex lattice on the unit spacing grid, split into 2(n-1)^2 triangles
// with upward normals. height gives the z coordinate of each lattice point; nil means flat.
func Grid(n int, height func(x, y float64) float64) Shape {
	var s Shape
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p := r3.Vector{X: float64(i), Y: float64(j)}
			if height != nil {
				p.Z = height(p.X, p.Y)
			}
			s.Points = append(s.Points, p)
		}
	}
	at := func(i, j int) int { return i*n + j }
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-1; j++ {
			a, b, c, d := at(i, j), at(i+1, j), at(i, j+1), at(i+1, j+1)
			s.Faces = append(s.Faces, [3]int{a, b, d}, [3]int{a, d, c})
		}
	}
	return s
}

// Book is three pages sharing the spine 0-1, each page extended by an outer triangle so
// that faces survive collapsing the spine. The spine is a non-manifold edge.
func Book() Shape {
	return Shape{
		Points: []r3.Vector{
			{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 1},
			{X: 1, Y: 0, Z: 0.5}, {X: -1, Y: 1, Z: 0.5}, {X: -1, Y: -1, Z: 0.5},
			{X: 2, Y: 0, Z: 1}, {X: -2, Y: 2, Z: 1}, {X: -2, Y: -2, Z: 1},
		},
		Faces: [][3]int{
			{0, 1, 2}, {1, 0, 3}, {0, 1, 4},
			{2, 1, 5}, {3, 0, 6}, {4, 1, 7},
		},
	}
}

// Bowtie is two triangles sharing only vertex 0.
func Bowtie() Shape {
	return Shape{
		Points: []r3.Vector{{}, {X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1}, {X: 1, Y: -1}},
		Faces:  [][3]int{{0, 1, 2}, {0, 3, 4}},
	}
}
