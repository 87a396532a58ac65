package halfedge

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// Validate checks every structural invariant of the mesh and returns all violations found.
func (m *Mesh[V, E, F]) Validate() error {
	var err error
	fail := func(format string, args ...interface{}) {
		err = multierr.Append(err, errors.Errorf(format, args...))
	}

	perEdge := map[EdgeID]int{}
	for h, he := range m.halfEdges.All() {
		if !m.halfEdges.Valid(he.Next) || !m.halfEdges.Valid(he.Prev) {
			fail("half-edge %d has a dead next/prev link", h)
			continue
		}
		if m.HalfEdge(he.Next).Prev != h {
			fail("half-edge %d: next.prev != h", h)
		}
		if m.HalfEdge(he.Prev).Next != h {
			fail("half-edge %d: prev.next != h", h)
		}
		if n2 := m.HalfEdge(he.Next).Next; !m.halfEdges.Valid(n2) || m.HalfEdge(n2).Next != h {
			fail("half-edge %d is not on a 3-cycle", h)
		}
		if !m.faces.Valid(he.Face) {
			fail("half-edge %d references dead face %d", h, he.Face)
		} else if m.HalfEdge(he.Next).Face != he.Face || m.HalfEdge(he.Prev).Face != he.Face {
			fail("half-edge %d: face cycle does not share face %d", h, he.Face)
		}
		if !m.vertices.Valid(he.Target) {
			fail("half-edge %d targets dead vertex %d", h, he.Target)
			continue
		}
		src := m.Source(h)
		if !m.vertices.Valid(src) {
			fail("half-edge %d leaves dead vertex %d", h, src)
			continue
		}
		if src == he.Target {
			fail("half-edge %d is a loop on vertex %d", h, src)
		}
		if !lo.Contains(m.Vertex(src).Out, h) {
			fail("half-edge %d missing from outgoing list of vertex %d", h, src)
		}
		if he.Sym != NoHalfEdge {
			if !m.halfEdges.Valid(he.Sym) {
				fail("half-edge %d has dead symmetric %d", h, he.Sym)
			} else {
				sym := m.HalfEdge(he.Sym)
				if sym.Sym != h {
					fail("half-edge %d: sym.sym != h", h)
				}
				if sym.Target != src {
					fail("half-edge %d: symmetric %d does not point back", h, he.Sym)
				}
				if sym.Edge != he.Edge {
					fail("half-edge %d and its symmetric use different edges", h)
				}
			}
		}
		if !m.edges.Valid(he.Edge) {
			fail("half-edge %d references dead edge %d", h, he.Edge)
			continue
		}
		perEdge[he.Edge]++
		if eh := m.Edge(he.Edge).HalfEdge; eh != h && eh != he.Sym {
			fail("half-edge %d: edge %d points at unrelated half-edge %d", h, he.Edge, eh)
		}
	}

	for e, edge := range m.edges.All() {
		if perEdge[e] == 0 || perEdge[e] > 2 {
			fail("edge %d has %d half-edges", e, perEdge[e])
		}
		if !m.halfEdges.Valid(edge.HalfEdge) {
			fail("edge %d references dead half-edge %d", e, edge.HalfEdge)
		}
	}

	for v, vert := range m.vertices.All() {
		for _, h := range vert.Out {
			if !m.halfEdges.Valid(h) {
				fail("vertex %d lists dead half-edge %d", v, h)
			} else if m.Source(h) != v {
				fail("vertex %d lists half-edge %d leaving vertex %d", v, h, m.Source(h))
			}
		}
		switch {
		case len(vert.Out) == 0 && vert.HalfEdge != NoHalfEdge:
			fail("isolated vertex %d has anchor %d", v, vert.HalfEdge)
		case len(vert.Out) > 0 && !lo.Contains(vert.Out, vert.HalfEdge):
			fail("vertex %d anchor %d is not outgoing", v, vert.HalfEdge)
		}
	}

	for f, face := range m.faces.All() {
		if !m.halfEdges.Valid(face.HalfEdge) || m.HalfEdge(face.HalfEdge).Face != f {
			fail("face %d has a foreign first half-edge", f)
		}
	}
	return err
}

// LabelBoundary sets Vertex.Boundary on every live vertex.
func (m *Mesh[V, E, F]) LabelBoundary() {
	for v, vert := range m.vertices.All() {
		vert.Boundary = m.IsBoundaryVertex(v)
	}
}

// RemoveIsolatedVertices tombstones every vertex without incident faces and returns how
// many were removed.
func (m *Mesh[V, E, F]) RemoveIsolatedVertices() int {
	var isolated []VertexID
	for v, vert := range m.vertices.All() {
		if len(vert.Out) == 0 {
			isolated = append(isolated, v)
		}
	}
	for _, v := range isolated {
		m.vertices.Delete(v)
	}
	return len(isolated)
}

// Stats summarizes a mesh.
type Stats struct {
	Vertices      int
	Edges         int
	HalfEdges     int
	Faces         int
	BoundaryEdges int
}

// Stats returns element counts and the number of boundary edges.
func (m *Mesh[V, E, F]) Stats() Stats {
	s := Stats{
		Vertices:  m.NumVertices(),
		Edges:     m.NumEdges(),
		HalfEdges: m.NumHalfEdges(),
		Faces:     m.NumFaces(),
	}
	for e := range m.Edges() {
		if m.IsBoundaryEdge(e) {
			s.BoundaryEdges++
		}
	}
	return s
}
