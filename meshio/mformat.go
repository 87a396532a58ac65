package meshio

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshkit/halfedge"
)

// mAttribute matches one key=(values) pair inside an M element's braces.
var mAttribute = regexp.MustCompile(`(\w+)=\(([^)]*)\)`)

// DecodeM reads Hoppe's M format from r into the empty mesh m. path is only used in errors.
//
//	Vertex 1  0 0 0 {normal=(0 0 1) uv=(0 0) rgb=(1 0 0)}
//	Face 1  1 2 3
//
// Ids are positive and may be sparse. Lines other than Vertex and Face are ignored.
func DecodeM[V, E, F any](r io.Reader, path string, m *halfedge.Mesh[V, E, F]) error {
	s, err := parseM(r, path)
	if err != nil {
		return err
	}
	return populate(m, s)
}

func parseM(r io.Reader, path string) (*soup, error) {
	s := &soup{path: path}
	byID := map[int]int{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		var attrs string
		if open := strings.IndexByte(text, '{'); open >= 0 {
			end := strings.LastIndexByte(text, '}')
			if end < open {
				return nil, parseErrorf(path, line, "unterminated attribute block")
			}
			attrs = text[open+1 : end]
			text = text[:open]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			return nil, parseErrorf(path, line, "attribute block without an element")
		}

		switch fields[0] {
		case "Vertex":
			if len(fields) != 5 {
				return nil, parseErrorf(path, line, "vertex needs an id and 3 coordinates")
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil || id <= 0 {
				return nil, parseErrorf(path, line, "bad vertex id %q", fields[1])
			}
			if _, dup := byID[id]; dup {
				return nil, parseErrorf(path, line, "duplicate vertex id %d", id)
			}
			vals, err := parseFloats(fields[2:])
			if err != nil {
				return nil, &ParseError{Path: path, Line: line, Err: err}
			}
			i := s.addPoint(r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]})
			byID[id] = i
			if err := applyMAttributes(s, i, attrs); err != nil {
				return nil, &ParseError{Path: path, Line: line, Err: err}
			}
		case "Face":
			if len(fields) < 5 {
				return nil, parseErrorf(path, line, "face needs an id and at least 3 vertex ids")
			}
			corners := make([]int, 0, len(fields)-2)
			for _, tok := range fields[2:] {
				id, err := strconv.Atoi(tok)
				if err != nil {
					return nil, parseErrorf(path, line, "bad vertex id %q", tok)
				}
				i, ok := byID[id]
				if !ok {
					return nil, parseErrorf(path, line, "face references unknown vertex %d", id)
				}
				corners = append(corners, i)
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

func applyMAttributes(s *soup, i int, attrs string) error {
	for _, match := range mAttribute.FindAllStringSubmatch(attrs, -1) {
		key := match[1]
		vals, err := parseFloats(strings.Fields(match[2]))
		if err != nil {
			return errors.Wrapf(err, "attribute %s", key)
		}
		want := map[string]int{"normal": 3, "uv": 2, "rgb": 3}[key]
		if want == 0 {
			continue
		}
		if len(vals) != want {
			return errors.Errorf("attribute %s needs %d values, got %d", key, want, len(vals))
		}
		switch key {
		case "normal":
			s.setNormal(i, r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]})
		case "uv":
			s.setUV(i, r2.Point{X: vals[0], Y: vals[1]})
		case "rgb":
			s.setColor(i, color.NRGBA{R: unitToByte(vals[0]), G: unitToByte(vals[1]), B: unitToByte(vals[2]), A: 255})
		}
	}
	return nil
}

// EncodeM writes m to w in the M format with 1-based contiguous ids.
func EncodeM[V, E, F any](w io.Writer, m *halfedge.Mesh[V, E, F]) error {
	c := compact(m)
	attrs := m.Attributes()
	bw := bufio.NewWriter(w)

	for i, v := range c.verts {
		vert := m.Vertex(v)
		fmt.Fprintf(bw, "Vertex %d  %s %s %s", i+1, formatFloat(vert.Pos.X), formatFloat(vert.Pos.Y), formatFloat(vert.Pos.Z))
		var parts []string
		if attrs.Normals {
			parts = append(parts, fmt.Sprintf("normal=(%s %s %s)",
				formatFloat(vert.Normal.X), formatFloat(vert.Normal.Y), formatFloat(vert.Normal.Z)))
		}
		if attrs.UVs {
			parts = append(parts, fmt.Sprintf("uv=(%s %s)", formatFloat(vert.UV.X), formatFloat(vert.UV.Y)))
		}
		if attrs.Colors {
			parts = append(parts, fmt.Sprintf("rgb=(%s %s %s)",
				formatFloat(byteToUnit(vert.Color.R)), formatFloat(byteToUnit(vert.Color.G)), formatFloat(byteToUnit(vert.Color.B))))
		}
		if len(parts) > 0 {
			fmt.Fprintf(bw, " {%s}", strings.Join(parts, " "))
		}
		fmt.Fprintln(bw)
	}
	for i, f := range c.faces {
		fmt.Fprintf(bw, "Face %d  %d %d %d\n", i+1, f[0]+1, f[1]+1, f[2]+1)
	}
	return bw.Flush()
}
