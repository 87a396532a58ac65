package halfedge_test

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/meshkit/halfedge"
	"go.viam.com/meshkit/logging"
	"go.viam.com/meshkit/testutils"
)

func TestRotationInterior(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Fan(6, true))
	center := vs[0]
	test.That(t, m.IsBoundaryVertex(center), test.ShouldBeFalse)

	anchor := m.VertexHalfEdge(center)
	test.That(t, m.MostCWOut(center), test.ShouldEqual, anchor)
	test.That(t, m.MostCCWOut(center), test.ShouldEqual, anchor)

	seen := map[halfedge.HalfEdgeID]bool{}
	h := anchor
	for i := 0; i < 6; i++ {
		test.That(t, m.Source(h), test.ShouldEqual, center)
		seen[h] = true
		h = m.RotateCCW(h)
	}
	test.That(t, h, test.ShouldEqual, anchor)
	test.That(t, seen, test.ShouldHaveLength, 6)

	for i := 0; i < 6; i++ {
		h = m.RotateCW(m.RotateCCW(h))
		test.That(t, h, test.ShouldEqual, anchor)
	}
}

func TestRotationBoundary(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Fan(6, false))
	center := vs[0]
	test.That(t, m.IsBoundaryVertex(center), test.ShouldBeTrue)

	cw := m.MostCWOut(center)
	test.That(t, m.Target(cw), test.ShouldEqual, vs[1])
	test.That(t, m.IsBoundaryHalfEdge(cw), test.ShouldBeTrue)
	test.That(t, m.RotateCW(cw), test.ShouldEqual, halfedge.NoHalfEdge)

	ccw := m.MostCCWOut(center)
	test.That(t, m.Target(ccw), test.ShouldEqual, vs[5])
	in := m.MostCCWIn(center)
	test.That(t, m.Source(in), test.ShouldEqual, vs[6])
	test.That(t, m.IsBoundaryHalfEdge(in), test.ShouldBeTrue)
	test.That(t, m.RotateCCW(ccw), test.ShouldEqual, halfedge.NoHalfEdge)

	test.That(t, m.Target(m.MostCWIn(center)), test.ShouldEqual, center)
	test.That(t, m.Source(m.MostCWIn(center)), test.ShouldEqual, vs[2])

	steps := 0
	for h := cw; h != halfedge.NoHalfEdge; h = m.RotateCCW(h) {
		steps++
	}
	test.That(t, steps, test.ShouldEqual, 5)

	isolated := m.AddVertex(r3.Vector{Z: 1})
	test.That(t, m.MostCWOut(isolated), test.ShouldEqual, halfedge.NoHalfEdge)
	test.That(t, m.MostCCWIn(isolated), test.ShouldEqual, halfedge.NoHalfEdge)
	test.That(t, m.IsBoundaryVertex(isolated), test.ShouldBeTrue)
}

func TestBowtieOutgoing(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Bowtie())
	test.That(t, m.Validate(), test.ShouldBeNil)
	pinch := vs[0]
	test.That(t, m.Outgoing(pinch), test.ShouldHaveLength, 2)
	test.That(t, m.MostCWOut(pinch), test.ShouldEqual, m.VertexHalfEdge(pinch))
	test.That(t, m.IsBoundaryVertex(pinch), test.ShouldBeTrue)
}

func TestDestroyFace(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Quad())
	f := m.FaceOf(m.FindHalfEdge(vs[0], vs[1]))
	m.DestroyFace(f)

	test.That(t, m.Validate(), test.ShouldBeNil)
	test.That(t, m.FaceAlive(f), test.ShouldBeFalse)
	test.That(t, m.Stats(), test.ShouldResemble, halfedge.Stats{
		Vertices: 4, Edges: 3, HalfEdges: 3, Faces: 1, BoundaryEdges: 3,
	})
	test.That(t, m.Outgoing(vs[1]), test.ShouldBeEmpty)
	test.That(t, m.VertexHalfEdge(vs[1]), test.ShouldEqual, halfedge.NoHalfEdge)
	test.That(t, m.IsBoundaryHalfEdge(m.FindHalfEdge(vs[0], vs[2])), test.ShouldBeTrue)

	m.LabelBoundary()
	for _, v := range vs {
		test.That(t, m.Vertex(v).Boundary, test.ShouldBeTrue)
	}
	test.That(t, m.RemoveIsolatedVertices(), test.ShouldEqual, 1)
	test.That(t, m.VertexAlive(vs[1]), test.ShouldBeFalse)
	test.That(t, m.Validate(), test.ShouldBeNil)
}

func TestCollapseTetrahedron(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Tetrahedron())
	e := m.FindEdge(vs[0], vs[1])
	a, b := m.EdgeVertices(e)

	keep, remove := m.CollapseEdge(e)
	test.That(t, keep, test.ShouldEqual, a)
	test.That(t, remove, test.ShouldEqual, b)
	test.That(t, m.VertexAlive(remove), test.ShouldBeFalse)
	test.That(t, m.EdgeAlive(e), test.ShouldBeFalse)
	test.That(t, m.Validate(), test.ShouldBeNil)

	// What is left is a closed pillow of two triangles.
	test.That(t, m.Stats(), test.ShouldResemble, halfedge.Stats{
		Vertices: 3, Edges: 3, HalfEdges: 6, Faces: 2,
	})
	for v := range m.Vertices() {
		test.That(t, m.IsBoundaryVertex(v), test.ShouldBeFalse)
	}
}

func TestCollapseIcosahedron(t *testing.T) {
	m, vs := testutils.NewMesh(t, testutils.Icosahedron())
	keep, _ := m.CollapseEdge(m.FindEdge(vs[0], vs[1]))
	test.That(t, m.Validate(), test.ShouldBeNil)
	test.That(t, m.Stats(), test.ShouldResemble, halfedge.Stats{
		Vertices: 11, Edges: 27, HalfEdges: 54, Faces: 18,
	})
	// Both endpoints had valence 5 and shared two neighbors.
	test.That(t, m.Outgoing(keep), test.ShouldHaveLength, 6)
	for _, h := range m.Outgoing(keep) {
		test.That(t, m.Source(h), test.ShouldEqual, keep)
		test.That(t, m.Target(m.Sym(h)), test.ShouldEqual, keep)
	}
}

func TestCollapseUntilEmpty(t *testing.T) {
	m, _ := testutils.NewMesh(t, testutils.Icosahedron())
	firstEdge := func() halfedge.EdgeID {
		for e := range m.Edges() {
			return e
		}
		return halfedge.NoEdge
	}
	for m.NumFaces() > 0 {
		before := m.NumFaces()
		m.CollapseEdge(firstEdge())
		test.That(t, m.NumFaces(), test.ShouldBeLessThan, before)
		test.That(t, m.Validate(), test.ShouldBeNil)
	}
	test.That(t, m.NumEdges(), test.ShouldEqual, 0)
	test.That(t, m.NumHalfEdges(), test.ShouldEqual, 0)
	remaining := m.NumVertices()
	test.That(t, m.RemoveIsolatedVertices(), test.ShouldEqual, remaining)
	test.That(t, m.NumVertices(), test.ShouldEqual, 0)
}

func TestCollapseNonManifoldSpine(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	m := halfedge.NewMesh[struct{}, struct{}, struct{}](halfedge.WithLogger(logger))
	vs := testutils.Build(t, m, testutils.Book())
	test.That(t, m.Validate(), test.ShouldBeNil)
	test.That(t, m.ConnectingHalfEdges(vs[0], vs[1]), test.ShouldHaveLength, 3)

	keep, remove := m.CollapseEdge(m.FindEdge(vs[0], vs[1]))
	test.That(t, keep, test.ShouldEqual, vs[0])
	test.That(t, remove, test.ShouldEqual, vs[1])
	test.That(t, logs.FilterMessage("collapsing non-manifold edge").Len(), test.ShouldEqual, 1)

	test.That(t, m.Validate(), test.ShouldBeNil)
	test.That(t, m.NumFaces(), test.ShouldEqual, 3)
	test.That(t, m.NumVertices(), test.ShouldEqual, 7)
	for _, outer := range []halfedge.VertexID{vs[5], vs[6], vs[7]} {
		test.That(t, m.FindEdge(keep, outer), test.ShouldNotEqual, halfedge.NoEdge)
	}
	for _, page := range []halfedge.VertexID{vs[2], vs[3], vs[4]} {
		test.That(t, m.FindEdge(keep, page), test.ShouldNotEqual, halfedge.NoEdge)
	}
}
