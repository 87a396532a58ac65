// Package meshio reads and writes triangle meshes in the OBJ, PLY and M formats.
//
// Readers populate an empty halfedge.Mesh of any payload type. Optional per-vertex
// attributes are only stored when the mesh was built with the matching
// halfedge.Attributes. After ingestion boundary vertices are labeled and vertices without
// faces are dropped. Writers emit the live elements with freshly assigned contiguous
// indices.
package meshio

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/meshkit/halfedge"
	"go.viam.com/meshkit/utils"
)

// ParseError reports malformed input together with where it was found.
type ParseError struct {
	Path string
	// Line is 1-based; 0 means the location is unknown.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(path string, line int, format string, args ...interface{}) error {
	return &ParseError{Path: path, Line: line, Err: errors.Errorf(format, args...)}
}

// soup is a parsed but not yet connected mesh.
type soup struct {
	path string

	points  []r3.Vector
	normals []r3.Vector
	uvs     []r2.Point
	colors  []color.NRGBA
	// hasNormal, hasUV and hasColor mark which points carry the attribute.
	hasNormal []bool
	hasUV     []bool
	hasColor  []bool

	faces     [][3]int
	faceLines []int
}

func (s *soup) addPoint(p r3.Vector) int {
	s.points = append(s.points, p)
	s.normals = append(s.normals, r3.Vector{})
	s.uvs = append(s.uvs, r2.Point{})
	s.colors = append(s.colors, color.NRGBA{})
	s.hasNormal = append(s.hasNormal, false)
	s.hasUV = append(s.hasUV, false)
	s.hasColor = append(s.hasColor, false)
	return len(s.points) - 1
}

func (s *soup) setNormal(i int, n r3.Vector) {
	if !s.hasNormal[i] {
		s.normals[i], s.hasNormal[i] = n, true
	}
}

func (s *soup) setUV(i int, uv r2.Point) {
	if !s.hasUV[i] {
		s.uvs[i], s.hasUV[i] = uv, true
	}
}

func (s *soup) setColor(i int, c color.NRGBA) {
	if !s.hasColor[i] {
		s.colors[i], s.hasColor[i] = c, true
	}
}

// addPolygon fan-triangulates the polygon given by point indices.
func (s *soup) addPolygon(line int, corners []int) {
	for i := 1; i+1 < len(corners); i++ {
		s.faces = append(s.faces, [3]int{corners[0], corners[i], corners[i+1]})
		s.faceLines = append(s.faceLines, line)
	}
}

// populate connects s into the empty mesh m.
func populate[V, E, F any](m *halfedge.Mesh[V, E, F], s *soup) error {
	if m.NumVertices() != 0 || m.NumFaces() != 0 {
		return errors.Errorf("cannot read %q into a non-empty mesh", s.path)
	}
	attrs := m.Attributes()
	ids := make([]halfedge.VertexID, len(s.points))
	for i, p := range s.points {
		ids[i] = m.AddVertex(p)
		vert := m.Vertex(ids[i])
		if attrs.Normals {
			vert.Normal = s.normals[i]
		}
		if attrs.UVs {
			vert.UV = s.uvs[i]
		}
		if attrs.Colors {
			vert.Color = s.colors[i]
		}
	}

	degenerate := 0
	for i, f := range s.faces {
		for _, c := range f {
			if c < 0 || c >= len(ids) {
				return parseErrorf(s.path, s.faceLines[i], "vertex index %d out of range [0, %d)", c, len(ids))
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			degenerate++
			continue
		}
		if _, err := m.AddFace(ids[f[0]], ids[f[1]], ids[f[2]]); err != nil {
			return &ParseError{Path: s.path, Line: s.faceLines[i], Err: err}
		}
	}
	if degenerate > 0 {
		m.Logger().Warnw("skipped degenerate faces", "path", s.path, "count", degenerate)
	}

	m.LabelBoundary()
	if n := m.RemoveIsolatedVertices(); n > 0 {
		m.Logger().Debugw("dropped isolated vertices", "path", s.path, "count", n)
	}
	return nil
}

// compacted is the live part of a mesh with contiguous 0-based indices.
type compacted struct {
	verts []halfedge.VertexID
	faces [][3]int
}

func compact[V, E, F any](m *halfedge.Mesh[V, E, F]) compacted {
	var c compacted
	index := make(map[halfedge.VertexID]int, m.NumVertices())
	for v := range m.Vertices() {
		index[v] = len(c.verts)
		c.verts = append(c.verts, v)
	}
	for f := range m.Faces() {
		vs := m.FaceVertexTriple(f)
		c.faces = append(c.faces, [3]int{index[vs[0]], index[vs[1]], index[vs[2]]})
	}
	return c
}

func unitToByte(x float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, x)) * 255))
}

func byteToUnit(b uint8) float64 {
	return float64(b) / 255
}

// Format is a mesh file format.
type Format int

const (
	// FormatOBJ is the Wavefront OBJ format.
	FormatOBJ Format = iota
	// FormatPLY is the Stanford PLY format.
	FormatPLY
	// FormatM is Hoppe's M format.
	FormatM
)

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return FormatOBJ, nil
	case ".ply":
		return FormatPLY, nil
	case ".m":
		return FormatM, nil
	default:
		return 0, errors.Errorf("do not know how to handle file %q", path)
	}
}

// ReadFile reads the mesh at path into the empty mesh m, choosing the format by extension.
func ReadFile[V, E, F any](path string, m *halfedge.Mesh[V, E, F]) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatPLY:
		return ReadPLY(path, m)
	case FormatM:
		return ReadM(path, m)
	default:
		return ReadOBJ(path, m)
	}
}

// WriteFile writes m to path, choosing the format by extension. PLY files are written as
// ASCII so that ReadFile can load them back.
func WriteFile[V, E, F any](path string, m *halfedge.Mesh[V, E, F]) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatPLY:
		return WritePLY(path, m, PLYASCII)
	case FormatM:
		return WriteM(path, m)
	default:
		return WriteOBJ(path, m)
	}
}

// ReadOBJ reads the OBJ file at path into the empty mesh m.
func ReadOBJ[V, E, F any](path string, m *halfedge.Mesh[V, E, F]) error {
	return readWith(path, m, DecodeOBJ[V, E, F])
}

// ReadPLY reads the PLY file at path into the empty mesh m.
func ReadPLY[V, E, F any](path string, m *halfedge.Mesh[V, E, F]) error {
	return readWith(path, m, DecodePLY[V, E, F])
}

// ReadM reads the M file at path into the empty mesh m.
func ReadM[V, E, F any](path string, m *halfedge.Mesh[V, E, F]) error {
	return readWith(path, m, DecodeM[V, E, F])
}

// WriteOBJ writes m to path as OBJ.
func WriteOBJ[V, E, F any](path string, m *halfedge.Mesh[V, E, F]) error {
	return writeWith(path, func(w io.Writer) error { return EncodeOBJ(w, m) })
}

// WritePLY writes m to path as PLY.
func WritePLY[V, E, F any](path string, m *halfedge.Mesh[V, E, F], format PLYFormat) error {
	return writeWith(path, func(w io.Writer) error { return EncodePLY(w, m, format) })
}

// WriteM writes m to path as M.
func WriteM[V, E, F any](path string, m *halfedge.Mesh[V, E, F]) error {
	return writeWith(path, func(w io.Writer) error { return EncodeM(w, m) })
}

func readWith[V, E, F any](
	path string,
	m *halfedge.Mesh[V, E, F],
	decode func(io.Reader, string, *halfedge.Mesh[V, E, F]) error,
) error {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return decode(bufio.NewReader(f), path, m)
}

// writeWith creates path and encodes into it. A partially written file is removed.
func writeWith(path string, encode func(io.Writer) error) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
		if err != nil {
			utils.RemoveFileNoError(path)
		}
	}()

	w := bufio.NewWriter(f)
	if err := encode(w); err != nil {
		return err
	}
	return w.Flush()
}
