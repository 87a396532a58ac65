package halfedge_test

import (
	"slices"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/meshkit/halfedge"
	"go.viam.com/meshkit/testutils"
)

func TestAddFacePairsHalfEdges(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Quad())
	test.That(t, m.Validate(), test.ShouldBeNil)
	test.That(t, m.NumVertices(), test.ShouldEqual, 4)
	test.That(t, m.NumFaces(), test.ShouldEqual, 2)
	test.That(t, m.NumHalfEdges(), test.ShouldEqual, 6)
	test.That(t, m.NumEdges(), test.ShouldEqual, 5)

	diag := m.FindEdge(vs[0], vs[2])
	test.That(t, diag, test.ShouldNotEqual, halfedge.NoEdge)
	test.That(t, m.FindEdge(vs[2], vs[0]), test.ShouldEqual, diag)
	test.That(t, m.IsBoundaryEdge(diag), test.ShouldBeFalse)

	h := m.FindHalfEdge(vs[0], vs[2])
	sym := m.Sym(h)
	test.That(t, sym, test.ShouldNotEqual, halfedge.NoHalfEdge)
	test.That(t, m.Target(sym), test.ShouldEqual, vs[0])
	test.That(t, m.Source(sym), test.ShouldEqual, vs[2])
	test.That(t, m.EdgeOf(sym), test.ShouldEqual, diag)
	test.That(t, m.FaceOf(h), test.ShouldNotEqual, m.FaceOf(sym))

	stats := m.Stats()
	test.That(t, stats.BoundaryEdges, test.ShouldEqual, 4)
	for _, v := range vs {
		test.That(t, m.IsBoundaryVertex(v), test.ShouldBeTrue)
	}
}

func TestAddFaceErrors(t *testing.T) {
	m := halfedge.NewMesh[struct{}, struct{}, struct{}]()
	a := m.AddVertex(r3.Vector{})
	b := m.AddVertex(r3.Vector{X: 1})

	_, err := m.AddFace(a, b, a)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "degenerate")

	_, err = m.AddFace(a, b, halfedge.VertexID(7))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing vertex 7")
	test.That(t, m.NumFaces(), test.ShouldEqual, 0)
}

func TestClosedMeshes(t *testing.T) {
	for _, tc := range []struct {
		name                  string
		shape                 testutils.Shape
		verts, edges, faces   int
		valence               int
		expectedHalfEdgeCount int
	}{
		{"tetrahedron", testutils.Tetrahedron(), 4, 6, 4, 3, 12},
		{"icosahedron", testutils.Icosahedron(), 12, 30, 20, 5, 60},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, vs := testutils.NewMesh(t, tc.shape)
			test.That(t, m.Validate(), test.ShouldBeNil)
			test.That(t, m.Stats(), test.ShouldResemble, halfedge.Stats{
				Vertices:  tc.verts,
				Edges:     tc.edges,
				HalfEdges: tc.expectedHalfEdgeCount,
				Faces:     tc.faces,
			})
			for _, v := range vs {
				test.That(t, m.IsBoundaryVertex(v), test.ShouldBeFalse)
				test.That(t, m.Outgoing(v), test.ShouldHaveLength, tc.valence)
			}
			for f := range m.Faces() {
				n := m.FaceNormal(f)
				test.That(t, n.Norm(), test.ShouldAlmostEqual, 1)
			}
		})
	}
}

func TestFaceOrderAndGeometry(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Triangle())
	faces := slices.Collect(m.Faces())
	test.That(t, faces, test.ShouldHaveLength, 1)
	f := faces[0]
	test.That(t, m.FaceVertexTriple(f), test.ShouldResemble, [3]halfedge.VertexID{vs[0], vs[1], vs[2]})
	test.That(t, m.Target(m.FaceHalfEdge(f)), test.ShouldEqual, vs[1])
	test.That(t, m.FaceNormal(f), test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, m.FaceArea(f), test.ShouldAlmostEqual, 0.5)
	test.That(t, m.Corner(f, vs[2]), test.ShouldEqual, m.Next(m.FaceHalfEdge(f)))

	e := m.FindEdge(vs[0], vs[1])
	test.That(t, m.EdgeLength(e), test.ShouldAlmostEqual, 1)
	test.That(t, m.DihedralAngle(e), test.ShouldEqual, 0.0)

	outside := m.AddVertex(r3.Vector{X: 5})
	test.That(t, m.Corner(f, outside), test.ShouldEqual, halfedge.NoHalfEdge)
}

func TestDihedralAngle(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Shape{
		Points: []r3.Vector{{}, {X: 1}, {Y: 1}, {Z: 1}},
		// Two triangles meeting at a right angle along the x axis.
		Faces: [][3]int{{0, 1, 2}, {1, 0, 3}},
	})
	test.That(t, m.Validate(), test.ShouldBeNil)
	e := m.FindEdge(vs[0], vs[1])
	test.That(t, m.DihedralAngle(e), test.ShouldAlmostEqual, 1.5707963267948966)
}

func TestStaleHandlesPanic(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Triangle())
	loose := m.AddVertex(r3.Vector{Z: 3})
	test.That(t, m.DeleteVertex(loose), test.ShouldBeTrue)
	test.That(t, m.VertexAlive(loose), test.ShouldBeFalse)
	test.That(t, func() { m.Vertex(loose) }, test.ShouldPanic)
	test.That(t, func() { m.Face(halfedge.FaceID(40)) }, test.ShouldPanic)
	test.That(t, func() { m.HalfEdge(halfedge.NoHalfEdge) }, test.ShouldPanic)
	test.That(t, m.VertexAlive(vs[0]), test.ShouldBeTrue)
	test.That(t, m.EdgeAlive(halfedge.NoEdge), test.ShouldBeFalse)
}

func TestIndexIsStable(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Quad())
	for i, v := range vs {
		test.That(t, m.Vertex(v).Index, test.ShouldEqual, i)
	}
	loose := m.AddVertex(r3.Vector{X: 9})
	test.That(t, m.Vertex(loose).Index, test.ShouldEqual, 4)
	test.That(t, m.DeleteVertex(loose), test.ShouldBeTrue)

	reused := m.AddVertex(r3.Vector{X: 8})
	test.That(t, reused, test.ShouldEqual, loose)
	test.That(t, m.Vertex(reused).Index, test.ShouldEqual, 5)
	test.That(t, m.Vertex(reused).Out, test.ShouldBeEmpty)
	test.That(t, m.Validate(), test.ShouldBeNil)
}
