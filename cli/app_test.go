package cli

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/meshkit/halfedge"
	"go.viam.com/meshkit/logging"
	"go.viam.com/meshkit/meshio"
	"go.viam.com/meshkit/testutils"
)

func TestMeasure(t *testing.T) {
	quad, _ := testutils.NewMesh(t, testutils.Quad())
	r := Measure(quad)
	test.That(t, r.Stats, test.ShouldResemble, halfedge.Stats{
		Vertices: 4, Edges: 5, HalfEdges: 6, Faces: 2, BoundaryEdges: 4,
	})
	test.That(t, r.BoundaryLoops, test.ShouldEqual, 1)
	test.That(t, r.EdgeMin, test.ShouldAlmostEqual, 1)
	test.That(t, r.EdgeMedian, test.ShouldAlmostEqual, 1)
	test.That(t, r.EdgeMax, test.ShouldAlmostEqual, math.Sqrt2)
	test.That(t, r.EdgeMean, test.ShouldAlmostEqual, (4+math.Sqrt2)/5)

	tetra, _ := testutils.NewMesh(t, testutils.Tetrahedron())
	test.That(t, Measure(tetra).BoundaryLoops, test.ShouldEqual, 0)

	bowtie, _ := testutils.NewMesh(t, testutils.Bowtie())
	test.That(t, Measure(bowtie).BoundaryLoops, test.ShouldEqual, 2)

	empty := halfedge.NewMesh[struct{}, struct{}, struct{}](halfedge.WithLogger(logging.NewTestLogger(t)))
	test.That(t, Measure(empty), test.ShouldResemble, Report{})
}

func TestRenderReport(t *testing.T) {
	grid, _ := testutils.NewMesh(t, testutils.Grid(3, nil))
	out := RenderReport(Column{Name: "grid.obj", Report: Measure(grid)})
	test.That(t, out, test.ShouldContainSubstring, "grid.obj")
	test.That(t, out, test.ShouldContainSubstring, "Boundary loops")
	test.That(t, out, test.ShouldContainSubstring, "Edge length max")
}

func TestParseAttributes(t *testing.T) {
	attrs, err := parseAttributes([]string{"normals,UVs", "colors"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, attrs, test.ShouldResemble, halfedge.Attributes{Normals: true, Colors: true, UVs: true})

	_, err = parseAttributes([]string{"tangents"})
	test.That(t, err, test.ShouldNotBeNil)
}

func writeIcosahedron(t *testing.T, dir string) string {
	t.Helper()
	m, _ := testutils.NewMesh(t, testutils.Icosahedron())
	path := filepath.Join(dir, "ico.obj")
	test.That(t, meshio.WriteFile(path, m), test.ShouldBeNil)
	return path
}

func TestSimplifyCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeIcosahedron(t, dir)
	out := filepath.Join(dir, "small.ply")
	logFile := filepath.Join(dir, "meshkit.log")

	var stdout, stderr bytes.Buffer
	app := NewApp(&stdout, &stderr)
	err := app.Run([]string{"meshkit", "--log-file", logFile, "simplify", "--target", "10", "--validate", in, out})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout.String(), test.ShouldContainSubstring, "collapses")
	test.That(t, stdout.String(), test.ShouldContainSubstring, "Faces")
	test.That(t, stdout.String(), test.ShouldContainSubstring, "small.ply (")

	m := halfedge.NewMesh[struct{}, struct{}, struct{}](halfedge.WithLogger(logging.NewTestLogger(t)))
	test.That(t, meshio.ReadFile(out, m), test.ShouldBeNil)
	test.That(t, m.NumFaces(), test.ShouldBeLessThan, 20)

	logs, err := os.ReadFile(logFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(logs), test.ShouldContainSubstring, "simplification finished")
}

func TestSimplifyCommandConfig(t *testing.T) {
	dir := t.TempDir()
	in := writeIcosahedron(t, dir)
	config := filepath.Join(dir, "options.json")
	test.That(t, os.WriteFile(config, []byte(`{"target_faces": 12, "parallel": true}`), 0o600), test.ShouldBeNil)

	var stdout, stderr bytes.Buffer
	err := NewApp(&stdout, &stderr).Run([]string{"meshkit", "simplify", "-c", config, in, filepath.Join(dir, "out.m")})
	test.That(t, err, test.ShouldBeNil)

	for _, args := range [][]string{
		{"meshkit", "simplify", in, filepath.Join(dir, "out.obj")},
		{"meshkit", "simplify", "--target", "4", "--ratio", "0.5", in, filepath.Join(dir, "out.obj")},
		{"meshkit", "simplify", "--ratio", "2", in, filepath.Join(dir, "out.obj")},
		{"meshkit", "simplify", "--target", "4", in, filepath.Join(dir, "out.stl")},
		{"meshkit", "simplify", "--target", "4", in},
	} {
		err := NewApp(&stdout, &stderr).Run(args)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestStatsAndSchemaCommands(t *testing.T) {
	in := writeIcosahedron(t, t.TempDir())

	var stdout, stderr bytes.Buffer
	test.That(t, NewApp(&stdout, &stderr).Run([]string{"meshkit", "stats", in}), test.ShouldBeNil)
	test.That(t, stdout.String(), test.ShouldContainSubstring, "Vertices")
	test.That(t, stdout.String(), test.ShouldContainSubstring, "20")

	stdout.Reset()
	test.That(t, NewApp(&stdout, &stderr).Run([]string{"meshkit", "schema"}), test.ShouldBeNil)
	test.That(t, stdout.String(), test.ShouldContainSubstring, "target_faces")
}
