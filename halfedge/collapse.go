package halfedge

import (
	"github.com/samber/lo"
)

// DestroyFace removes f from the mesh. Each of its half-edges leaves its source's outgoing
// list and is tombstoned; a symmetric half-edge in a neighboring face becomes a boundary
// half-edge and keeps the edge, otherwise the edge is tombstoned too.
func (m *Mesh[V, E, F]) DestroyFace(f FaceID) {
	hs := m.FaceHalfEdgeTriple(f)
	// Sources are derived through Prev, so every half-edge is detached before any of
	// them is tombstoned.
	for _, h := range hs {
		m.detach(h)
	}
	for _, h := range hs {
		m.halfEdges.Delete(h)
	}
	m.faces.Delete(f)
}

// CollapseEdge merges the endpoints of e into the source of e's primary half-edge and
// returns the surviving and the removed vertex. Every triangle containing both endpoints
// is destroyed; the remaining half-edges touching the removed vertex are re-pointed at the
// survivor and re-linked against their new neighborhood.
//
// More than two half-edges directly joining the endpoints means the edge is duplicated
// (a non-manifold junction). Each offending triangle is then destroyed individually,
// which unpairs its symmetric links, before the common re-linking step.
func (m *Mesh[V, E, F]) CollapseEdge(e EdgeID) (VertexID, VertexID) {
	keep, remove := m.EdgeVertices(e)

	connecting := m.ConnectingHalfEdges(keep, remove)
	faces := lo.Uniq(lo.Map(connecting, func(h HalfEdgeID, _ int) FaceID { return m.FaceOf(h) }))
	if len(connecting) > 2 {
		m.logger.Debugw("collapsing non-manifold edge",
			"edge", e, "keep", keep, "remove", remove, "halfEdges", len(connecting), "faces", len(faces))
	}
	for _, f := range faces {
		m.DestroyFace(f)
	}

	m.relink(remove, keep)
	m.vertices.Delete(remove)
	return keep, remove
}

// relink moves every half-edge touching from onto to.
func (m *Mesh[V, E, F]) relink(from, to VertexID) {
	out := append([]HalfEdgeID(nil), m.Vertex(from).Out...)
	touching := make([]HalfEdgeID, 0, 2*len(out))
	for _, h := range out {
		touching = append(touching, h, m.Prev(h))
	}

	for _, h := range touching {
		m.detach(h)
	}
	for _, h := range touching {
		if he := m.HalfEdge(h); he.Target == from {
			he.Target = to
		}
	}
	for _, h := range touching {
		m.attach(h)
	}
}
