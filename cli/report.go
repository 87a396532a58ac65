package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"

	"go.viam.com/meshkit/halfedge"
	"go.viam.com/meshkit/traverse"
)

// Report summarizes the size and shape of a mesh.
type Report struct {
	halfedge.Stats
	BoundaryLoops int

	EdgeMin    float64
	EdgeMedian float64
	EdgeMean   float64
	EdgeMax    float64
	EdgeStdDev float64
}

// Measure builds a Report for m.
func Measure[V, E, F any](m *halfedge.Mesh[V, E, F]) Report {
	r := Report{Stats: m.Stats(), BoundaryLoops: countBoundaryLoops(m)}

	lengths := make(stats.Float64Data, 0, m.NumEdges())
	for e := range m.Edges() {
		lengths = append(lengths, m.EdgeLength(e))
	}
	if len(lengths) == 0 {
		return r
	}
	// the inputs are non-empty so these cannot fail.
	r.EdgeMin, _ = lengths.Min()
	r.EdgeMedian, _ = lengths.Median()
	r.EdgeMean, _ = lengths.Mean()
	r.EdgeMax, _ = lengths.Max()
	r.EdgeStdDev, _ = lengths.StandardDeviation()
	return r
}

// countBoundaryLoops counts the holes of m by walking each boundary loop once.
func countBoundaryLoops[V, E, F any](m *halfedge.Mesh[V, E, F]) int {
	seen := map[halfedge.HalfEdgeID]bool{}
	loops := 0
	for h := range m.HalfEdges() {
		if seen[h] || !m.IsBoundaryHalfEdge(h) {
			continue
		}
		loops++
		for g := range traverse.BoundaryLoop(m, h) {
			// loops through a non-manifold vertex may return to an earlier half-edge.
			if seen[g] {
				break
			}
			seen[g] = true
		}
	}
	return loops
}

// Column is one labeled Report in a rendered table.
type Column struct {
	Name   string
	Report Report
}

// RenderReport prints the reports side by side.
func RenderReport(columns ...Column) string {
	t := table.NewWriter()
	header := table.Row{""}
	for _, c := range columns {
		header = append(header, c.Name)
	}
	t.AppendHeader(header)

	row := func(name string, value func(Report) string) {
		r := table.Row{name}
		for _, c := range columns {
			r = append(r, value(c.Report))
		}
		t.AppendRow(r)
	}
	count := func(n func(Report) int) func(Report) string {
		return func(r Report) string { return fmt.Sprintf("%d", n(r)) }
	}
	length := func(x func(Report) float64) func(Report) string {
		return func(r Report) string { return fmt.Sprintf("%.4g", x(r)) }
	}

	row("Vertices", count(func(r Report) int { return r.Vertices }))
	row("Edges", count(func(r Report) int { return r.Edges }))
	row("Faces", count(func(r Report) int { return r.Faces }))
	row("Boundary edges", count(func(r Report) int { return r.BoundaryEdges }))
	row("Boundary loops", count(func(r Report) int { return r.BoundaryLoops }))
	t.AppendSeparator()
	row("Edge length min", length(func(r Report) float64 { return r.EdgeMin }))
	row("Edge length median", length(func(r Report) float64 { return r.EdgeMedian }))
	row("Edge length mean", length(func(r Report) float64 { return r.EdgeMean }))
	row("Edge length max", length(func(r Report) float64 { return r.EdgeMax }))
	row("Edge length stddev", length(func(r Report) float64 { return r.EdgeStdDev }))
	return t.Render()
}
