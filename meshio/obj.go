package meshio

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshkit/halfedge"
)

const maxLineLength = 1 << 20

// DecodeOBJ reads Wavefront OBJ from r into the empty mesh m. path is only used in errors.
//
// Supported statements are v (with an optional trailing r g b), vt, vn and f with any of
// the v, v/t, v//n and v/t/n corner forms, including negative indices. Polygons are fan
// triangulated. Texture coordinates and normals are per vertex; when corners disagree the
// first one seen wins. Other statements are ignored.
func DecodeOBJ[V, E, F any](r io.Reader, path string, m *halfedge.Mesh[V, E, F]) error {
	s, err := parseOBJ(r, path)
	if err != nil {
		return err
	}
	return populate(m, s)
}

func parseOBJ(r io.Reader, path string) (*soup, error) {
	s := &soup{path: path}
	var (
		texcoords []r2.Point
		normals   []r3.Vector
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			vals, err := parseFloats(fields[1:])
			if err != nil {
				return nil, &ParseError{Path: path, Line: line, Err: err}
			}
			switch len(vals) {
			case 3, 4:
				s.addPoint(r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]})
			case 6:
				i := s.addPoint(r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]})
				s.setColor(i, color.NRGBA{R: unitToByte(vals[3]), G: unitToByte(vals[4]), B: unitToByte(vals[5]), A: 255})
			default:
				return nil, parseErrorf(path, line, "vertex needs 3 or 6 values, got %d", len(vals))
			}
		case "vt":
			vals, err := parseFloats(fields[1:])
			if err != nil {
				return nil, &ParseError{Path: path, Line: line, Err: err}
			}
			if len(vals) < 2 || len(vals) > 3 {
				return nil, parseErrorf(path, line, "texture coordinate needs 2 or 3 values, got %d", len(vals))
			}
			texcoords = append(texcoords, r2.Point{X: vals[0], Y: vals[1]})
		case "vn":
			vals, err := parseFloats(fields[1:])
			if err != nil {
				return nil, &ParseError{Path: path, Line: line, Err: err}
			}
			if len(vals) != 3 {
				return nil, parseErrorf(path, line, "normal needs 3 values, got %d", len(vals))
			}
			normals = append(normals, r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]})
		case "f":
			if len(fields) < 4 {
				return nil, parseErrorf(path, line, "face needs at least 3 corners, got %d", len(fields)-1)
			}
			corners := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				vi, ti, ni, err := parseCorner(tok, len(s.points), len(texcoords), len(normals))
				if err != nil {
					return nil, &ParseError{Path: path, Line: line, Err: err}
				}
				if ti >= 0 {
					s.setUV(vi, texcoords[ti])
				}
				if ni >= 0 {
					s.setNormal(vi, normals[ni])
				}
				corners = append(corners, vi)
			}
			s.addPolygon(line, corners)
		default:
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Line: line + 1, Err: err}
	}
	return s, nil
}

// parseCorner parses one face corner into 0-based vertex, texture and normal indices; the
// latter two are -1 when absent.
func parseCorner(tok string, numVerts, numTex, numNormals int) (int, int, int, error) {
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return 0, 0, 0, errors.Errorf("malformed face corner %q", tok)
	}
	vi, err := resolveIndex(parts[0], numVerts, "vertex")
	if err != nil {
		return 0, 0, 0, err
	}
	ti, ni := -1, -1
	if len(parts) > 1 && parts[1] != "" {
		if ti, err = resolveIndex(parts[1], numTex, "texture coordinate"); err != nil {
			return 0, 0, 0, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if ni, err = resolveIndex(parts[2], numNormals, "normal"); err != nil {
			return 0, 0, 0, err
		}
	}
	return vi, ti, ni, nil
}

// resolveIndex turns a 1-based or negative (relative) OBJ index into a 0-based one.
func resolveIndex(tok string, count int, what string) (int, error) {
	idx, err := strconv.Atoi(tok)
	if err != nil {
		return 0, errors.Wrapf(err, "bad %s index %q", what, tok)
	}
	switch {
	case idx > 0:
		idx--
	case idx < 0:
		idx += count
	default:
		return 0, errors.Errorf("%s index 0 is invalid", what)
	}
	if idx < 0 || idx >= count {
		return 0, errors.Errorf("%s index %s out of range (%d defined)", what, tok, count)
	}
	return idx, nil
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad number %q", f)
		}
		vals[i] = v
	}
	return vals, nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// EncodeOBJ writes m to w as Wavefront OBJ with 1-based contiguous indices. Colors are
// appended to v statements; texture coordinates and normals are written once per vertex.
func EncodeOBJ[V, E, F any](w io.Writer, m *halfedge.Mesh[V, E, F]) error {
	c := compact(m)
	attrs := m.Attributes()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %d vertices, %d faces\n", len(c.verts), len(c.faces))
	for _, v := range c.verts {
		vert := m.Vertex(v)
		fmt.Fprintf(bw, "v %s %s %s", formatFloat(vert.Pos.X), formatFloat(vert.Pos.Y), formatFloat(vert.Pos.Z))
		if attrs.Colors {
			fmt.Fprintf(bw, " %s %s %s",
				formatFloat(byteToUnit(vert.Color.R)), formatFloat(byteToUnit(vert.Color.G)), formatFloat(byteToUnit(vert.Color.B)))
		}
		fmt.Fprintln(bw)
	}
	if attrs.UVs {
		for _, v := range c.verts {
			uv := m.Vertex(v).UV
			fmt.Fprintf(bw, "vt %s %s\n", formatFloat(uv.X), formatFloat(uv.Y))
		}
	}
	if attrs.Normals {
		for _, v := range c.verts {
			n := m.Vertex(v).Normal
			fmt.Fprintf(bw, "vn %s %s %s\n", formatFloat(n.X), formatFloat(n.Y), formatFloat(n.Z))
		}
	}

	corner := func(i int) string {
		i++
		switch {
		case attrs.UVs && attrs.Normals:
			return fmt.Sprintf("%d/%d/%d", i, i, i)
		case attrs.UVs:
			return fmt.Sprintf("%d/%d", i, i)
		case attrs.Normals:
			return fmt.Sprintf("%d//%d", i, i)
		default:
			return strconv.Itoa(i)
		}
	}
	for _, f := range c.faces {
		fmt.Fprintf(bw, "f %s %s %s\n", corner(f[0]), corner(f[1]), corner(f[2]))
	}
	return bw.Flush()
}
