// Package qem simplifies triangle meshes by greedy edge collapse ordered by quadric error
// metrics. Every vertex accumulates the area weighted planes of its incident faces; every
// edge is scored by the error of its best merged position, and the cheapest legal edge is
// collapsed until the mesh reaches a target face count.
package qem

import (
	"github.com/golang/geo/r3"

	"go.viam.com/meshkit/halfedge"
)

// VertexData is the per-vertex payload of a simplification mesh.
type VertexData struct {
	Quadric Quadric
}

// EdgeData is the per-edge payload of a simplification mesh.
type EdgeData struct {
	// Quadric is the sum of both endpoint quadrics when Cost was computed.
	Quadric  Quadric
	Cost     float64
	Position r3.Vector
	// Sharp edges are never collapsed.
	Sharp bool
}

// FaceData is the per-face payload of a simplification mesh.
type FaceData struct {
	Normal  r3.Vector
	Area    float64
	Quadric Quadric
}

// Mesh is a half-edge mesh carrying quadric payloads.
type Mesh = halfedge.Mesh[VertexData, EdgeData, FaceData]

// NewMesh returns an empty simplification mesh.
func NewMesh(opts ...halfedge.Option) *Mesh {
	return halfedge.NewMesh[VertexData, EdgeData, FaceData](opts...)
}
