// Package traverse builds lazy element sequences on top of the four half-edge primitives
// (next, prev, sym, target). Every sequence is finite, restartable and read-only; none of
// them mutate the mesh they walk, and the mesh must not be mutated while one is in use.
//
// The rotation based sequences (VertexOutHalfEdges, VertexVertices, VertexEdges,
// VertexFaces) see a single fan of a vertex. VertexOutgoing walks the vertex's outgoing list
// instead and reaches every fan of a non-manifold vertex.
package traverse

import (
	"iter"

	"github.com/pkg/errors"

	"go.viam.com/meshkit/halfedge"
)

// Topology is the read-only structure traversal needs. *halfedge.Mesh satisfies it for any
// payload types.
type Topology interface {
	Next(h halfedge.HalfEdgeID) halfedge.HalfEdgeID
	Prev(h halfedge.HalfEdgeID) halfedge.HalfEdgeID
	Sym(h halfedge.HalfEdgeID) halfedge.HalfEdgeID
	Target(h halfedge.HalfEdgeID) halfedge.VertexID
	FaceOf(h halfedge.HalfEdgeID) halfedge.FaceID
	EdgeOf(h halfedge.HalfEdgeID) halfedge.EdgeID
	VertexHalfEdge(v halfedge.VertexID) halfedge.HalfEdgeID
	FaceHalfEdge(f halfedge.FaceID) halfedge.HalfEdgeID
	Outgoing(v halfedge.VertexID) []halfedge.HalfEdgeID
}

// RotateCCW steps from the outgoing half-edge h to the next outgoing half-edge of the same
// source counter-clockwise, through prev then sym. It returns NoHalfEdge at a boundary.
func RotateCCW(t Topology, h halfedge.HalfEdgeID) halfedge.HalfEdgeID {
	return t.Sym(t.Prev(h))
}

// RotateCW steps from the outgoing half-edge h to the next outgoing half-edge of the same
// source clockwise, through sym then next. It returns NoHalfEdge at a boundary.
func RotateCW(t Topology, h halfedge.HalfEdgeID) halfedge.HalfEdgeID {
	sym := t.Sym(h)
	if sym == halfedge.NoHalfEdge {
		return halfedge.NoHalfEdge
	}
	return t.Next(sym)
}

// fanStart returns where a counter-clockwise walk around v's fan must begin: the most
// clockwise outgoing half-edge on a boundary, the anchor otherwise.
func fanStart(t Topology, v halfedge.VertexID) halfedge.HalfEdgeID {
	start := t.VertexHalfEdge(v)
	if start == halfedge.NoHalfEdge {
		return start
	}
	limit := len(t.Outgoing(v))
	h := start
	for i := 0; i <= limit; i++ {
		n := RotateCW(t, h)
		if n == halfedge.NoHalfEdge || n == start {
			return h
		}
		h = n
	}
	panic(errors.Errorf("rotation around vertex %d does not close", v))
}

// fan walks v's fan counter-clockwise and calls visit for every outgoing half-edge. It
// returns the last half-edge visited and whether the walk ended on a boundary.
func fan(t Topology, v halfedge.VertexID, visit func(halfedge.HalfEdgeID) bool) (halfedge.HalfEdgeID, bool, bool) {
	start := fanStart(t, v)
	if start == halfedge.NoHalfEdge {
		return start, false, true
	}
	limit := len(t.Outgoing(v))
	h := start
	for i := 0; i < limit; i++ {
		if !visit(h) {
			return h, false, false
		}
		n := RotateCCW(t, h)
		if n == halfedge.NoHalfEdge {
			return h, true, true
		}
		if n == start {
			return h, false, true
		}
		h = n
	}
	panic(errors.Errorf("rotation around vertex %d does not close", v))
}

// VertexOutHalfEdges yields the outgoing half-edges of v's fan in counter-clockwise order,
// starting at the boundary for a boundary vertex.
func VertexOutHalfEdges(t Topology, v halfedge.VertexID) iter.Seq[halfedge.HalfEdgeID] {
	return func(yield func(halfedge.HalfEdgeID) bool) {
		fan(t, v, yield)
	}
}

// VertexVertices yields the one-ring of v in counter-clockwise order. A boundary vertex has
// one more neighbor than outgoing half-edges.
func VertexVertices(t Topology, v halfedge.VertexID) iter.Seq[halfedge.VertexID] {
	return func(yield func(halfedge.VertexID) bool) {
		last, boundary, ok := fan(t, v, func(h halfedge.HalfEdgeID) bool {
			return yield(t.Target(h))
		})
		if ok && boundary {
			yield(t.Target(t.Next(last)))
		}
	}
}

// VertexEdges yields the edges incident to v in counter-clockwise order.
func VertexEdges(t Topology, v halfedge.VertexID) iter.Seq[halfedge.EdgeID] {
	return func(yield func(halfedge.EdgeID) bool) {
		last, boundary, ok := fan(t, v, func(h halfedge.HalfEdgeID) bool {
			return yield(t.EdgeOf(h))
		})
		if ok && boundary {
			yield(t.EdgeOf(t.Prev(last)))
		}
	}
}

// VertexFaces yields the faces incident to v in counter-clockwise order.
func VertexFaces(t Topology, v halfedge.VertexID) iter.Seq[halfedge.FaceID] {
	return func(yield func(halfedge.FaceID) bool) {
		fan(t, v, func(h halfedge.HalfEdgeID) bool {
			return yield(t.FaceOf(h))
		})
	}
}

// VertexOutgoing yields every outgoing half-edge of v from its outgoing list, across all of
// its fans.
func VertexOutgoing(t Topology, v halfedge.VertexID) iter.Seq[halfedge.HalfEdgeID] {
	return func(yield func(halfedge.HalfEdgeID) bool) {
		for _, h := range t.Outgoing(v) {
			if !yield(h) {
				return
			}
		}
	}
}

// FaceHalfEdges yields the three half-edges of f starting at its first half-edge.
func FaceHalfEdges(t Topology, f halfedge.FaceID) iter.Seq[halfedge.HalfEdgeID] {
	return func(yield func(halfedge.HalfEdgeID) bool) {
		h := t.FaceHalfEdge(f)
		for i := 0; i < 3; i++ {
			if !yield(h) {
				return
			}
			h = t.Next(h)
		}
	}
}

// FaceEdges yields the three edges of f.
func FaceEdges(t Topology, f halfedge.FaceID) iter.Seq[halfedge.EdgeID] {
	return func(yield func(halfedge.EdgeID) bool) {
		for h := range FaceHalfEdges(t, f) {
			if !yield(t.EdgeOf(h)) {
				return
			}
		}
	}
}

// FaceVertices yields the corners of f in construction order.
func FaceVertices(t Topology, f halfedge.FaceID) iter.Seq[halfedge.VertexID] {
	return func(yield func(halfedge.VertexID) bool) {
		for h := range FaceHalfEdges(t, f) {
			if !yield(t.Target(t.Prev(h))) {
				return
			}
		}
	}
}

// BoundaryLoop yields the boundary half-edges of the hole containing the boundary half-edge
// h, in order, starting with h.
func BoundaryLoop(t Topology, h halfedge.HalfEdgeID) iter.Seq[halfedge.HalfEdgeID] {
	return func(yield func(halfedge.HalfEdgeID) bool) {
		cur := h
		for {
			if !yield(cur) {
				return
			}
			cur = nextBoundary(t, cur)
			if cur == h {
				return
			}
		}
	}
}

// nextBoundary returns the boundary half-edge leaving the target of the boundary half-edge h.
func nextBoundary(t Topology, h halfedge.HalfEdgeID) halfedge.HalfEdgeID {
	v := t.Target(h)
	g := t.Next(h)
	for i := 0; i <= len(t.Outgoing(v)); i++ {
		sym := t.Sym(g)
		if sym == halfedge.NoHalfEdge {
			return g
		}
		g = t.Next(sym)
	}
	panic(errors.Errorf("boundary walk around vertex %d does not close", v))
}

// Count drains seq and returns its length.
func Count[T any](seq iter.Seq[T]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}
