package qem

import (
	"container/heap"
	"context"
	"image/color"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/meshkit/halfedge"
	"go.viam.com/meshkit/logging"
	"go.viam.com/meshkit/traverse"
	"go.viam.com/meshkit/utils"
)

// State is the phase of a simplification run.
type State int

const (
	// Init means quadrics and the queue have not been built yet.
	Init State = iota
	// Loop means edges are being collapsed.
	Loop
	// Done means the face count reached the target.
	Done
	// Stuck means no legal collapse was left before the target was reached.
	Stuck
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Loop:
		return "loop"
	case Done:
		return "done"
	case Stuck:
		return "stuck"
	default:
		return "unknown"
	}
}

// Result summarizes a simplification run.
type Result struct {
	State    State
	Faces    int
	Vertices int
	// Collapses is the number of edges collapsed.
	Collapses int
	// Rejected counts popped edges that were singular, sharp or would fold a face over.
	Rejected int
	// Stale counts popped entries that no longer matched their edge.
	Stale int
}

// Simplifier runs greedy quadric simplification over a single mesh. It is not safe for
// concurrent use.
type Simplifier struct {
	mesh   *Mesh
	opts   Options
	logger logging.Logger
	queue  edgeQueue
	result Result
}

// NewSimplifier validates opts and prepares a run over m.
func NewSimplifier(m *Mesh, opts Options) (*Simplifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = m.Logger().Sublogger("qem")
	}
	return &Simplifier{mesh: m, opts: opts, logger: logger}, nil
}

// Simplify collapses edges of m until it has at most opts.TargetFaces faces (Done) or no
// legal collapse is left (Stuck). Either way m is left valid and as simplified as it got.
func Simplify(ctx context.Context, m *Mesh, opts Options) (Result, error) {
	s, err := NewSimplifier(m, opts)
	if err != nil {
		return Result{}, err
	}
	if err := s.Init(ctx); err != nil {
		return s.Result(), err
	}
	for s.Step() {
		if err := ctx.Err(); err != nil {
			return s.Result(), err
		}
	}
	return s.Result(), nil
}

// Result returns the current state and counters.
func (s *Simplifier) Result() Result {
	r := s.result
	r.Faces = s.mesh.NumFaces()
	r.Vertices = s.mesh.NumVertices()
	return r
}

// Init computes every face, vertex and edge quadric and fills the queue.
func (s *Simplifier) Init(ctx context.Context) error {
	if s.result.State != Init {
		return errors.Errorf("simplifier already initialized (state %s)", s.result.State)
	}
	faces := slices.Collect(s.mesh.Faces())
	if err := s.forEach(ctx, len(faces), func(i int) { s.updateFace(faces[i]) }); err != nil {
		return errors.Wrap(err, "accumulating face quadrics")
	}
	verts := slices.Collect(s.mesh.Vertices())
	if err := s.forEach(ctx, len(verts), func(i int) { s.accumulateVertex(verts[i]) }); err != nil {
		return errors.Wrap(err, "accumulating vertex quadrics")
	}

	var sharp, singular int
	s.queue = s.queue[:0]
	for e := range s.mesh.Edges() {
		ed := s.seed(e)
		switch {
		case ed.Sharp:
			sharp++
			continue
		case ed.Cost == s.opts.SentinelCost:
			singular++
		}
		s.queue = append(s.queue, entry{edge: e, cost: ed.Cost})
	}
	heap.Init(&s.queue)
	s.result.State = Loop

	s.logger.Infow("simplification initialized",
		"faces", len(faces),
		"vertices", len(verts),
		"edges", s.mesh.NumEdges(),
		"queued", s.queue.Len(),
		"sharp", sharp,
		"sharp_angle_deg", utils.RadToDeg(s.opts.SharpAngle),
		"singular", singular,
		"target", s.opts.TargetFaces,
	)
	return nil
}

func (s *Simplifier) forEach(ctx context.Context, n int, f func(i int)) error {
	if !s.opts.Parallel {
		for i := 0; i < n; i++ {
			f(i)
		}
		return nil
	}
	return utils.GroupWorkParallel(ctx, n, nil, func(_, _, _, _ int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
		return func(_, workNum int) { f(workNum) }, nil
	})
}

// updateFace recomputes the normal, area and plane quadric of f from its current corners.
func (s *Simplifier) updateFace(f halfedge.FaceID) {
	ps := s.mesh.FacePoints(f)
	cross := halfedge.TriangleCross(ps[0], ps[1], ps[2])
	fd := &s.mesh.Face(f).Data
	fd.Area = cross.Norm() / 2
	fd.Normal = cross.Normalize()
	fd.Quadric = PlaneQuadric(fd.Normal, ps[0], fd.Area)
}

// accumulateVertex sums the quadrics of every face around v.
func (s *Simplifier) accumulateVertex(v halfedge.VertexID) {
	var q Quadric
	for h := range traverse.VertexOutgoing(s.mesh, v) {
		q = q.Add(s.mesh.Face(s.mesh.FaceOf(h)).Data.Quadric)
	}
	s.mesh.Vertex(v).Data.Quadric = q
}

// evaluate computes the merged quadric of e's endpoints, the best merged position and its
// cost. A singular quadric yields the sentinel cost at the edge midpoint.
func (s *Simplifier) evaluate(e halfedge.EdgeID) (Quadric, float64, r3.Vector) {
	a, b := s.mesh.EdgeVertices(e)
	va, vb := s.mesh.Vertex(a), s.mesh.Vertex(b)
	q := va.Data.Quadric.Add(vb.Data.Quadric)
	if pos, ok := q.Minimizer(s.opts.DeterminantEpsilon); ok {
		return q, q.Error(pos), pos
	}
	return q, s.opts.SentinelCost, va.Pos.Add(vb.Pos).Mul(0.5)
}

// seed stores the current cost, position and sharpness of e.
func (s *Simplifier) seed(e halfedge.EdgeID) *EdgeData {
	ed := &s.mesh.Edge(e).Data
	ed.Quadric, ed.Cost, ed.Position = s.evaluate(e)
	ed.Sharp = s.opts.SharpAngle > 0 && s.mesh.DihedralAngle(e) > s.opts.SharpAngle
	return ed
}

// Step pops one queue entry and collapses its edge if the entry is current and the collapse
// is legal. It returns false once the run is Done or Stuck.
func (s *Simplifier) Step() bool {
	switch s.result.State {
	case Init:
		panic(errors.New("simplifier stepped before Init"))
	case Done, Stuck:
		return false
	case Loop:
	}
	if s.mesh.NumFaces() <= s.opts.TargetFaces {
		s.finish(Done)
		return false
	}
	if s.queue.Len() == 0 {
		s.finish(Stuck)
		return false
	}

	top := s.queue.pop()
	e := top.edge
	if !s.mesh.EdgeAlive(e) {
		s.result.Stale++
		return true
	}
	ed := &s.mesh.Edge(e).Data
	if ed.Cost != top.cost {
		// A newer entry for e was pushed when its cost changed.
		s.result.Stale++
		return true
	}
	if ed.Sharp {
		s.result.Rejected++
		return true
	}

	q, cost, pos := s.evaluate(e)
	if cost != ed.Cost {
		ed.Quadric, ed.Cost, ed.Position = q, cost, pos
		s.queue.push(e, cost)
		s.result.Stale++
		return true
	}
	if cost == s.opts.SentinelCost {
		s.result.Rejected++
		return true
	}
	keep, remove := s.mesh.EdgeVertices(e)
	if !s.legal(keep, remove, pos) {
		s.logger.Debugw("rejected collapse", "edge", e, "cost", cost, "reason", "fold-over")
		s.result.Rejected++
		return true
	}

	s.collapse(Collapse{Edge: e, Keep: keep, Remove: remove, Cost: cost, Position: pos}, q)
	return true
}

// legal reports whether moving keep and remove to pos leaves every face that touches only
// one of them facing the same side as before.
func (s *Simplifier) legal(keep, remove halfedge.VertexID, pos r3.Vector) bool {
	for _, pair := range [2][2]halfedge.VertexID{{keep, remove}, {remove, keep}} {
		v, other := pair[0], pair[1]
		for h := range traverse.VertexOutgoing(s.mesh, v) {
			f := s.mesh.FaceOf(h)
			corners := s.mesh.FaceVertexTriple(f)
			if lo.Contains(corners[:], other) {
				continue
			}
			ps := s.mesh.FacePoints(f)
			before := halfedge.TriangleCross(ps[0], ps[1], ps[2])
			for i, c := range corners {
				if c == v {
					ps[i] = pos
				}
			}
			after := halfedge.TriangleCross(ps[0], ps[1], ps[2])
			if after.Dot(before) <= 0 {
				return false
			}
		}
	}
	return true
}

func (s *Simplifier) collapse(c Collapse, q Quadric) {
	if s.opts.OnCollapse != nil {
		s.opts.OnCollapse(c)
	}
	s.blendAttributes(c.Keep, c.Remove, c.Position)
	s.mesh.CollapseEdge(c.Edge)
	kv := s.mesh.Vertex(c.Keep)
	kv.Pos = c.Position
	kv.Data.Quadric = q
	s.result.Collapses++

	// Every edge of a face around the survivor may have changed cost or sharpness.
	var ring []halfedge.EdgeID
	for h := range traverse.VertexOutgoing(s.mesh, c.Keep) {
		f := s.mesh.FaceOf(h)
		s.updateFace(f)
		ring = append(ring, slices.Collect(traverse.FaceEdges(s.mesh, f))...)
	}
	for _, e := range lo.Uniq(ring) {
		if ed := s.seed(e); !ed.Sharp {
			s.queue.push(e, ed.Cost)
		}
	}
}

// blendAttributes interpolates the optional attributes of keep toward remove by how far pos
// lies along the edge.
func (s *Simplifier) blendAttributes(keep, remove halfedge.VertexID, pos r3.Vector) {
	attrs := s.mesh.Attributes()
	if !attrs.Normals && !attrs.Colors && !attrs.UVs {
		return
	}
	kv, rv := s.mesh.Vertex(keep), s.mesh.Vertex(remove)
	t := 0.0
	if d := rv.Pos.Sub(kv.Pos); d.Norm2() > 0 {
		t = lo.Clamp(pos.Sub(kv.Pos).Dot(d)/d.Norm2(), 0, 1)
	}
	if attrs.Normals {
		kv.Normal = kv.Normal.Mul(1 - t).Add(rv.Normal.Mul(t)).Normalize()
	}
	if attrs.UVs {
		kv.UV = r2.Point{X: kv.UV.X + t*(rv.UV.X-kv.UV.X), Y: kv.UV.Y + t*(rv.UV.Y-kv.UV.Y)}
	}
	if attrs.Colors {
		// blend in Lab so the survivor keeps a perceptually even mix.
		r, g, b := toColorful(kv.Color).BlendLab(toColorful(rv.Color), t).Clamped().RGB255()
		kv.Color = color.NRGBA{
			R: r, G: g, B: b,
			A: uint8(float64(kv.Color.A) + t*(float64(rv.Color.A)-float64(kv.Color.A)) + 0.5),
		}
	}
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func (s *Simplifier) finish(state State) {
	s.result.State = state
	r := s.Result()
	s.logger.Infow("simplification finished",
		"state", state.String(),
		"faces", r.Faces,
		"vertices", r.Vertices,
		"collapses", r.Collapses,
		"rejected", r.Rejected,
		"stale", r.Stale,
	)
}
