package halfedge

import (
	"github.com/pkg/errors"
)

// RotateCCW returns the outgoing half-edge counter-clockwise of the outgoing half-edge h
// around its source, or NoHalfEdge when the rotation runs into a boundary.
func (m *Mesh[V, E, F]) RotateCCW(h HalfEdgeID) HalfEdgeID {
	return m.Sym(m.Prev(h))
}

// RotateCW returns the outgoing half-edge clockwise of the outgoing half-edge h around its
// source, or NoHalfEdge when the rotation runs into a boundary.
func (m *Mesh[V, E, F]) RotateCW(h HalfEdgeID) HalfEdgeID {
	sym := m.Sym(h)
	if sym == NoHalfEdge {
		return NoHalfEdge
	}
	return m.Next(sym)
}

// rotateFrom walks from v's anchor with step until step fails (boundary reached) or the
// walk wraps back to the anchor (interior vertex), in which case the anchor is returned.
func (m *Mesh[V, E, F]) rotateFrom(v VertexID, step func(HalfEdgeID) HalfEdgeID) HalfEdgeID {
	vert := m.Vertex(v)
	start := vert.HalfEdge
	if start == NoHalfEdge {
		return NoHalfEdge
	}
	h := start
	for i := 0; i <= len(vert.Out); i++ {
		n := step(h)
		if n == NoHalfEdge {
			return h
		}
		if n == start {
			return start
		}
		h = n
	}
	panic(errors.Errorf("rotation around vertex %d does not close", v))
}

// MostCWOut returns the outgoing half-edge of v furthest clockwise. For a boundary vertex
// it is the outgoing boundary half-edge; for an interior vertex rotation wraps around and
// the anchor is returned.
func (m *Mesh[V, E, F]) MostCWOut(v VertexID) HalfEdgeID {
	return m.rotateFrom(v, m.RotateCW)
}

// MostCCWOut returns the outgoing half-edge of v furthest counter-clockwise. For a
// boundary vertex its previous half-edge is the incoming boundary half-edge.
func (m *Mesh[V, E, F]) MostCCWOut(v VertexID) HalfEdgeID {
	return m.rotateFrom(v, m.RotateCCW)
}

// MostCWIn returns the incoming half-edge of v sharing a face with MostCWOut.
func (m *Mesh[V, E, F]) MostCWIn(v VertexID) HalfEdgeID {
	h := m.MostCWOut(v)
	if h == NoHalfEdge {
		return NoHalfEdge
	}
	return m.Prev(h)
}

// MostCCWIn returns the incoming half-edge of v sharing a face with MostCCWOut.
func (m *Mesh[V, E, F]) MostCCWIn(v VertexID) HalfEdgeID {
	h := m.MostCCWOut(v)
	if h == NoHalfEdge {
		return NoHalfEdge
	}
	return m.Prev(h)
}
