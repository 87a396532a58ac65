package halfedge

import (
	"github.com/golang/geo/r3"
)

// TriangleCross returns (p1-p0) x (p2-p0). Its direction is the triangle normal and its
// length twice the triangle area.
func TriangleCross(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0))
}

// FacePoints returns the corner positions of f in AddFace order.
func (m *Mesh[V, E, F]) FacePoints(f FaceID) [3]r3.Vector {
	vs := m.FaceVertexTriple(f)
	return [3]r3.Vector{m.Vertex(vs[0]).Pos, m.Vertex(vs[1]).Pos, m.Vertex(vs[2]).Pos}
}

// FaceNormal returns the unit normal of f, or the zero vector for a degenerate triangle.
func (m *Mesh[V, E, F]) FaceNormal(f FaceID) r3.Vector {
	ps := m.FacePoints(f)
	return TriangleCross(ps[0], ps[1], ps[2]).Normalize()
}

// FaceArea returns the area of f.
func (m *Mesh[V, E, F]) FaceArea(f FaceID) float64 {
	ps := m.FacePoints(f)
	return TriangleCross(ps[0], ps[1], ps[2]).Norm() / 2
}

// EdgeLength returns the length of e.
func (m *Mesh[V, E, F]) EdgeLength(e EdgeID) float64 {
	a, b := m.EdgeVertices(e)
	return m.Vertex(a).Pos.Distance(m.Vertex(b).Pos)
}

// DihedralAngle returns the angle between the normals of the two faces sharing e, or 0 for
// a boundary edge.
func (m *Mesh[V, E, F]) DihedralAngle(e EdgeID) float64 {
	h := m.Edge(e).HalfEdge
	sym := m.Sym(h)
	if sym == NoHalfEdge {
		return 0
	}
	n0 := m.FaceNormal(m.FaceOf(h))
	n1 := m.FaceNormal(m.FaceOf(sym))
	return float64(n0.Angle(n1))
}
