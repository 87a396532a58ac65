// Package halfedge implements a triangle mesh stored as a half-edge (doubly connected edge
// list) structure. Every element lives in an arena owned by the Mesh and all links between
// elements are plain handles, so the cyclic references between half-edges, vertices, edges
// and faces carry no ownership.
//
// The Mesh is generic over the payload carried by vertices, edges and faces. The topology
// code only touches the structural fields; algorithms such as simplification swap in
// richer payload types.
package halfedge

import (
	"fmt"
	"image/color"
	"iter"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/meshkit/arena"
	"go.viam.com/meshkit/logging"
)

type (
	// VertexID addresses a vertex in its mesh.
	VertexID int32
	// EdgeID addresses an undirected edge in its mesh.
	EdgeID int32
	// HalfEdgeID addresses a directed half-edge in its mesh.
	HalfEdgeID int32
	// FaceID addresses a triangle in its mesh.
	FaceID int32
)

// Sentinel handles for absent links.
const (
	NoVertex   VertexID   = -1
	NoEdge     EdgeID     = -1
	NoHalfEdge HalfEdgeID = -1
	NoFace     FaceID     = -1
)

// Vertex is a mesh vertex. Normal, Color and UV are only meaningful when the owning mesh
// was built with the corresponding Attributes.
type Vertex[V any] struct {
	Pos    r3.Vector
	Normal r3.Vector
	Color  color.NRGBA
	UV     r2.Point

	// Index is assigned at creation and never changes.
	Index    int
	Boundary bool

	// HalfEdge is one outgoing half-edge, or NoHalfEdge for an isolated vertex.
	HalfEdge HalfEdgeID
	// Out holds every outgoing half-edge. Unlike rotation it also reaches every fan of a
	// non-manifold vertex.
	Out []HalfEdgeID

	Data V
}

// Edge is an undirected edge represented by one or two half-edges.
type Edge[E any] struct {
	HalfEdge HalfEdgeID
	Data     E
}

// HalfEdge is a directed edge of a triangle, pointing at Target.
type HalfEdge struct {
	Target VertexID
	Face   FaceID
	Edge   EdgeID
	Next   HalfEdgeID
	Prev   HalfEdgeID
	// Sym is the opposite half-edge, or NoHalfEdge at a boundary.
	Sym HalfEdgeID
}

// Face is a triangle.
type Face[F any] struct {
	HalfEdge HalfEdgeID
	Data     F
}

// Attributes describes which optional per-vertex fields a mesh carries.
type Attributes struct {
	Normals bool
	Colors  bool
	UVs     bool
}

type options struct {
	attrs     Attributes
	blockSize int
	logger    logging.Logger
}

// Option configures a Mesh at construction.
type Option func(*options)

// WithAttributes selects the optional vertex fields the mesh carries.
func WithAttributes(attrs Attributes) Option {
	return func(o *options) {
		o.attrs = attrs
	}
}

// WithBlockSize sets the arena block size of every element arena.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithLogger sets the logger used by mutating operations.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Mesh is a half-edge triangle mesh with vertex payload V, edge payload E and face payload F.
type Mesh[V, E, F any] struct {
	attrs  Attributes
	logger logging.Logger

	vertices  *arena.Arena[VertexID, Vertex[V]]
	edges     *arena.Arena[EdgeID, Edge[E]]
	halfEdges *arena.Arena[HalfEdgeID, HalfEdge]
	faces     *arena.Arena[FaceID, Face[F]]

	nextIndex int
}

// NewMesh returns an empty mesh.
func NewMesh[V, E, F any](opts ...Option) *Mesh[V, E, F] {
	o := options{blockSize: arena.DefaultBlockSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewBlankLogger("halfedge")
	}
	return &Mesh[V, E, F]{
		attrs:     o.attrs,
		logger:    o.logger,
		vertices:  arena.NewWithBlockSize[VertexID, Vertex[V]](o.blockSize),
		edges:     arena.NewWithBlockSize[EdgeID, Edge[E]](o.blockSize),
		halfEdges: arena.NewWithBlockSize[HalfEdgeID, HalfEdge](o.blockSize),
		faces:     arena.NewWithBlockSize[FaceID, Face[F]](o.blockSize),
	}
}

// Attributes returns the optional fields this mesh carries.
func (m *Mesh[V, E, F]) Attributes() Attributes {
	return m.attrs
}

// Logger returns the mesh logger.
func (m *Mesh[V, E, F]) Logger() logging.Logger {
	return m.logger
}

// Vertex returns the live vertex v. It panics on a stale handle.
func (m *Mesh[V, E, F]) Vertex(v VertexID) *Vertex[V] {
	return m.vertices.Get(v)
}

// Edge returns the live edge e. It panics on a stale handle.
func (m *Mesh[V, E, F]) Edge(e EdgeID) *Edge[E] {
	return m.edges.Get(e)
}

// HalfEdge returns the live half-edge h. It panics on a stale handle.
func (m *Mesh[V, E, F]) HalfEdge(h HalfEdgeID) *HalfEdge {
	return m.halfEdges.Get(h)
}

// Face returns the live face f. It panics on a stale handle.
func (m *Mesh[V, E, F]) Face(f FaceID) *Face[F] {
	return m.faces.Get(f)
}

// VertexAlive reports whether v addresses a live vertex.
func (m *Mesh[V, E, F]) VertexAlive(v VertexID) bool { return m.vertices.Valid(v) }

// EdgeAlive reports whether e addresses a live edge.
func (m *Mesh[V, E, F]) EdgeAlive(e EdgeID) bool { return m.edges.Valid(e) }

// HalfEdgeAlive reports whether h addresses a live half-edge.
func (m *Mesh[V, E, F]) HalfEdgeAlive(h HalfEdgeID) bool { return m.halfEdges.Valid(h) }

// FaceAlive reports whether f addresses a live face.
func (m *Mesh[V, E, F]) FaceAlive(f FaceID) bool { return m.faces.Valid(f) }

// NumVertices returns the number of live vertices.
func (m *Mesh[V, E, F]) NumVertices() int { return m.vertices.Len() }

// NumEdges returns the number of live edges.
func (m *Mesh[V, E, F]) NumEdges() int { return m.edges.Len() }

// NumHalfEdges returns the number of live half-edges.
func (m *Mesh[V, E, F]) NumHalfEdges() int { return m.halfEdges.Len() }

// NumFaces returns the number of live faces.
func (m *Mesh[V, E, F]) NumFaces() int { return m.faces.Len() }

// Vertices yields every live vertex.
func (m *Mesh[V, E, F]) Vertices() iter.Seq[VertexID] { return m.vertices.Handles() }

// Edges yields every live edge.
func (m *Mesh[V, E, F]) Edges() iter.Seq[EdgeID] { return m.edges.Handles() }

// HalfEdges yields every live half-edge.
func (m *Mesh[V, E, F]) HalfEdges() iter.Seq[HalfEdgeID] { return m.halfEdges.Handles() }

// Faces yields every live face.
func (m *Mesh[V, E, F]) Faces() iter.Seq[FaceID] { return m.faces.Handles() }

func (m *Mesh[V, E, F]) String() string {
	return fmt.Sprintf("Mesh{vertices: %d, edges: %d, faces: %d}", m.NumVertices(), m.NumEdges(), m.NumFaces())
}
