package halfedge

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// AddVertex creates an isolated vertex at p.
func (m *Mesh[V, E, F]) AddVertex(p r3.Vector) VertexID {
	v, vert := m.vertices.Allocate()
	vert.Pos = p
	vert.Index = m.nextIndex
	vert.HalfEdge = NoHalfEdge
	m.nextIndex++
	return v
}

// AddFace creates the triangle (v0, v1, v2). Its half-edges run v0->v1->v2->v0; each one
// is paired with an unpaired reverse half-edge already leaving its target, sharing that
// half-edge's edge, or else gets a fresh edge.
func (m *Mesh[V, E, F]) AddFace(v0, v1, v2 VertexID) (FaceID, error) {
	if v0 == v1 || v1 == v2 || v0 == v2 {
		return NoFace, errors.Errorf("degenerate face (%d, %d, %d)", v0, v1, v2)
	}
	verts := [3]VertexID{v0, v1, v2}
	for _, v := range verts {
		if !m.vertices.Valid(v) {
			return NoFace, errors.Errorf("face references missing vertex %d", v)
		}
	}

	f, face := m.faces.Allocate()
	var hs [3]HalfEdgeID
	for i := range hs {
		hs[i], _ = m.halfEdges.Allocate()
	}
	for i := 0; i < 3; i++ {
		*m.HalfEdge(hs[i]) = HalfEdge{
			Target: verts[(i+1)%3],
			Face:   f,
			Edge:   NoEdge,
			Next:   hs[(i+1)%3],
			Prev:   hs[(i+2)%3],
			Sym:    NoHalfEdge,
		}
	}
	face.HalfEdge = hs[0]
	for _, h := range hs {
		m.attach(h)
	}
	return f, nil
}

// attach links h into its source's outgoing list and derives its symmetric and edge from
// the neighborhood. h must be detached.
func (m *Mesh[V, E, F]) attach(h HalfEdgeID) {
	he := m.HalfEdge(h)
	src := m.Source(h)
	dst := he.Target

	sv := m.Vertex(src)
	sv.Out = append(sv.Out, h)
	if sv.HalfEdge == NoHalfEdge {
		sv.HalfEdge = h
	}

	for _, g := range m.Vertex(dst).Out {
		ge := m.HalfEdge(g)
		if ge.Target == src && ge.Sym == NoHalfEdge {
			he.Sym = g
			he.Edge = ge.Edge
			ge.Sym = h
			return
		}
	}

	// A same-direction half-edge between the same vertices is left on its own edge so that
	// every edge keeps at most one half-edge per direction.
	e, edge := m.edges.Allocate()
	edge.HalfEdge = h
	he.Sym = NoHalfEdge
	he.Edge = e
}

// detach unlinks h from its source's outgoing list, its symmetric and its edge. The edge
// is tombstoned once no half-edge references it.
func (m *Mesh[V, E, F]) detach(h HalfEdgeID) {
	he := m.HalfEdge(h)
	src := m.Source(h)
	m.removeOutgoing(src, h)

	if he.Sym != NoHalfEdge {
		sym := m.HalfEdge(he.Sym)
		sym.Sym = NoHalfEdge
		if edge := m.Edge(he.Edge); edge.HalfEdge == h {
			edge.HalfEdge = he.Sym
		}
	} else if he.Edge != NoEdge {
		m.edges.Delete(he.Edge)
	}
	he.Sym = NoHalfEdge
	he.Edge = NoEdge
}

func (m *Mesh[V, E, F]) removeOutgoing(v VertexID, h HalfEdgeID) {
	vert := m.Vertex(v)
	idx := lo.IndexOf(vert.Out, h)
	if idx < 0 {
		panic(errors.Errorf("half-edge %d missing from outgoing list of vertex %d", h, v))
	}
	vert.Out = append(vert.Out[:idx], vert.Out[idx+1:]...)
	if vert.HalfEdge == h {
		vert.HalfEdge = NoHalfEdge
		if len(vert.Out) > 0 {
			vert.HalfEdge = vert.Out[0]
		}
	}
}

// DeleteVertex tombstones v without relinking anything.
func (m *Mesh[V, E, F]) DeleteVertex(v VertexID) bool { return m.vertices.Delete(v) }

// DeleteEdge tombstones e without relinking anything.
func (m *Mesh[V, E, F]) DeleteEdge(e EdgeID) bool { return m.edges.Delete(e) }

// DeleteHalfEdge tombstones h without relinking anything.
func (m *Mesh[V, E, F]) DeleteHalfEdge(h HalfEdgeID) bool { return m.halfEdges.Delete(h) }

// DeleteFace tombstones f without relinking anything.
func (m *Mesh[V, E, F]) DeleteFace(f FaceID) bool { return m.faces.Delete(f) }

// Next returns the half-edge following h in its face.
func (m *Mesh[V, E, F]) Next(h HalfEdgeID) HalfEdgeID { return m.HalfEdge(h).Next }

// Prev returns the half-edge preceding h in its face.
func (m *Mesh[V, E, F]) Prev(h HalfEdgeID) HalfEdgeID { return m.HalfEdge(h).Prev }

// Sym returns the opposite half-edge of h, or NoHalfEdge at a boundary.
func (m *Mesh[V, E, F]) Sym(h HalfEdgeID) HalfEdgeID { return m.HalfEdge(h).Sym }

// Target returns the vertex h points at.
func (m *Mesh[V, E, F]) Target(h HalfEdgeID) VertexID { return m.HalfEdge(h).Target }

// Source returns the vertex h leaves from.
func (m *Mesh[V, E, F]) Source(h HalfEdgeID) VertexID { return m.HalfEdge(m.HalfEdge(h).Prev).Target }

// FaceOf returns the face owning h.
func (m *Mesh[V, E, F]) FaceOf(h HalfEdgeID) FaceID { return m.HalfEdge(h).Face }

// EdgeOf returns the edge owning h.
func (m *Mesh[V, E, F]) EdgeOf(h HalfEdgeID) EdgeID { return m.HalfEdge(h).Edge }

// VertexHalfEdge returns one outgoing half-edge of v.
func (m *Mesh[V, E, F]) VertexHalfEdge(v VertexID) HalfEdgeID { return m.Vertex(v).HalfEdge }

// FaceHalfEdge returns the first half-edge of f.
func (m *Mesh[V, E, F]) FaceHalfEdge(f FaceID) HalfEdgeID { return m.Face(f).HalfEdge }

// EdgeHalfEdge returns the primary half-edge of e.
func (m *Mesh[V, E, F]) EdgeHalfEdge(e EdgeID) HalfEdgeID { return m.Edge(e).HalfEdge }

// Outgoing returns the outgoing half-edges of v. The slice is owned by the mesh.
func (m *Mesh[V, E, F]) Outgoing(v VertexID) []HalfEdgeID { return m.Vertex(v).Out }

// EdgeVertices returns the source and target of e's primary half-edge.
func (m *Mesh[V, E, F]) EdgeVertices(e EdgeID) (VertexID, VertexID) {
	h := m.Edge(e).HalfEdge
	return m.Source(h), m.Target(h)
}

// FaceHalfEdgeTriple returns the three half-edges of f starting at its first one.
func (m *Mesh[V, E, F]) FaceHalfEdgeTriple(f FaceID) [3]HalfEdgeID {
	h0 := m.Face(f).HalfEdge
	h1 := m.Next(h0)
	return [3]HalfEdgeID{h0, h1, m.Next(h1)}
}

// FaceVertexTriple returns the corners of f in the order they were given to AddFace.
func (m *Mesh[V, E, F]) FaceVertexTriple(f FaceID) [3]VertexID {
	hs := m.FaceHalfEdgeTriple(f)
	return [3]VertexID{m.Target(hs[2]), m.Target(hs[0]), m.Target(hs[1])}
}

// IsBoundaryHalfEdge reports whether h has no symmetric.
func (m *Mesh[V, E, F]) IsBoundaryHalfEdge(h HalfEdgeID) bool {
	return m.HalfEdge(h).Sym == NoHalfEdge
}

// IsBoundaryEdge reports whether e is represented by a single half-edge.
func (m *Mesh[V, E, F]) IsBoundaryEdge(e EdgeID) bool {
	return m.IsBoundaryHalfEdge(m.Edge(e).HalfEdge)
}

// IsBoundaryVertex reports whether v touches a boundary half-edge. Isolated vertices are
// boundary vertices.
func (m *Mesh[V, E, F]) IsBoundaryVertex(v VertexID) bool {
	out := m.Vertex(v).Out
	if len(out) == 0 {
		return true
	}
	for _, h := range out {
		if m.IsBoundaryHalfEdge(h) || m.IsBoundaryHalfEdge(m.Prev(h)) {
			return true
		}
	}
	return false
}

// FindHalfEdge returns the half-edge from a to b, or NoHalfEdge.
func (m *Mesh[V, E, F]) FindHalfEdge(a, b VertexID) HalfEdgeID {
	for _, h := range m.Vertex(a).Out {
		if m.Target(h) == b {
			return h
		}
	}
	return NoHalfEdge
}

// FindEdge returns an edge joining a and b, or NoEdge.
func (m *Mesh[V, E, F]) FindEdge(a, b VertexID) EdgeID {
	if h := m.FindHalfEdge(a, b); h != NoHalfEdge {
		return m.EdgeOf(h)
	}
	if h := m.FindHalfEdge(b, a); h != NoHalfEdge {
		return m.EdgeOf(h)
	}
	return NoEdge
}

// ConnectingHalfEdges returns every half-edge running directly between a and b, in
// either direction.
func (m *Mesh[V, E, F]) ConnectingHalfEdges(a, b VertexID) []HalfEdgeID {
	var hs []HalfEdgeID
	for _, h := range m.Vertex(a).Out {
		if m.Target(h) == b {
			hs = append(hs, h)
		}
	}
	for _, h := range m.Vertex(b).Out {
		if m.Target(h) == a {
			hs = append(hs, h)
		}
	}
	return hs
}

// Corner returns the half-edge of f pointing at v, or NoHalfEdge if v is not a corner of f.
func (m *Mesh[V, E, F]) Corner(f FaceID, v VertexID) HalfEdgeID {
	for _, h := range m.FaceHalfEdgeTriple(f) {
		if m.Target(h) == v {
			return h
		}
	}
	return NoHalfEdge
}
