package meshio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"reflect"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/meshkit/halfedge"
)

// PLYFormat is the body encoding of a PLY file.
type PLYFormat int

const (
	// PLYASCII writes the body as text.
	PLYASCII PLYFormat = iota
	// PLYBinary writes the body in the byte order of the host.
	PLYBinary
)

// nativePLYFormat names the host byte order the way PLY headers do.
var nativePLYFormat = func() string {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return "binary_little_endian"
	}
	return "binary_big_endian"
}()

// DecodePLY reads an ASCII PLY file from r into the empty mesh m. path is only used in
// errors. Binary bodies are rejected with a ParseError.
//
// Vertices need x, y and z and may carry nx/ny/nz, red/green/blue[/alpha] and u/v (or s/t)
// properties. Faces are read from vertex_indices (or vertex_index) and fan triangulated.
func DecodePLY[V, E, F any](r io.Reader, path string, m *halfedge.Mesh[V, E, F]) error {
	s, err := parsePLY(r, path)
	if err != nil {
		return err
	}
	return populate(m, s)
}

func parsePLY(r io.Reader, path string) (s *soup, err error) {
	defer func() {
		if thePanic := recover(); thePanic != nil {
			s, err = nil, parseErrorf(path, 0, "malformed ply: %v", thePanic)
		}
	}()
	br := bufio.NewReader(r)
	if magic, err := br.Peek(3); err != nil || string(magic) != "ply" {
		return nil, parseErrorf(path, 1, "missing ply magic number")
	}
	ply := goply.New(br)

	s = &soup{path: path}
	for n, el := range ply.Elements("vertex") {
		x, okX := number(el["x"])
		y, okY := number(el["y"])
		z, okZ := number(el["z"])
		if !okX || !okY || !okZ {
			return nil, parseErrorf(path, 0, "vertex %d lacks a coordinate", n)
		}
		i := s.addPoint(r3.Vector{X: x, Y: y, Z: z})

		if nx, ny, nz, ok := number3(el["nx"], el["ny"], el["nz"]); ok {
			s.setNormal(i, r3.Vector{X: nx, Y: ny, Z: nz})
		}
		if u, v, ok := number2(el, "u", "v", "s", "t", "texture_u", "texture_v"); ok {
			s.setUV(i, r2.Point{X: u, Y: v})
		}
		if red, okR := channel(el["red"]); okR {
			green, okG := channel(el["green"])
			blue, okB := channel(el["blue"])
			if okG && okB {
				alpha, okA := channel(el["alpha"])
				if !okA {
					alpha = 255
				}
				s.setColor(i, color.NRGBA{R: red, G: green, B: blue, A: alpha})
			}
		}
	}

	for n, el := range ply.Elements("face") {
		raw, ok := el["vertex_indices"]
		if !ok {
			raw = el["vertex_index"]
		}
		corners, ok := indexList(raw)
		if !ok || len(corners) < 3 {
			return nil, parseErrorf(path, 0, "face %d has no usable vertex index list", n)
		}
		s.addPolygon(0, corners)
	}
	return s, nil
}

// number converts any numeric property value to float64.
func number(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}

func number3(a, b, c interface{}) (float64, float64, float64, bool) {
	x, okX := number(a)
	y, okY := number(b)
	z, okZ := number(c)
	return x, y, z, okX && okY && okZ
}

// number2 returns the first pair of keys present in el.
func number2(el map[string]interface{}, keys ...string) (float64, float64, bool) {
	for i := 0; i+1 < len(keys); i += 2 {
		x, okX := number(el[keys[i]])
		y, okY := number(el[keys[i+1]])
		if okX && okY {
			return x, y, true
		}
	}
	return 0, 0, false
}

// channel reads a color channel stored either as a byte or as a unit float.
func channel(v interface{}) (uint8, bool) {
	f, ok := number(v)
	if !ok {
		return 0, false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Float32, reflect.Float64:
		return unitToByte(f), true
	default:
		return uint8(math.Max(0, math.Min(255, f))), true
	}
}

func indexList(v interface{}) ([]int, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]int, rv.Len())
	for i := range out {
		f, ok := number(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = int(f)
	}
	return out, true
}

// EncodePLY writes m to w as PLY. Coordinates, normals and texture coordinates are doubles,
// colors are bytes and faces use a uchar-counted int list.
func EncodePLY[V, E, F any](w io.Writer, m *halfedge.Mesh[V, E, F], format PLYFormat) error {
	c := compact(m)
	attrs := m.Attributes()
	bw := bufio.NewWriter(w)

	encoding := "ascii"
	if format == PLYBinary {
		encoding = nativePLYFormat
	}
	fmt.Fprintf(bw, "ply\nformat %s 1.0\n", encoding)
	fmt.Fprintf(bw, "element vertex %d\n", len(c.verts))
	fmt.Fprint(bw, "property double x\nproperty double y\nproperty double z\n")
	if attrs.Normals {
		fmt.Fprint(bw, "property double nx\nproperty double ny\nproperty double nz\n")
	}
	if attrs.Colors {
		fmt.Fprint(bw, "property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	if attrs.UVs {
		fmt.Fprint(bw, "property double u\nproperty double v\n")
	}
	fmt.Fprintf(bw, "element face %d\n", len(c.faces))
	fmt.Fprint(bw, "property list uchar int vertex_indices\nend_header\n")

	if format == PLYBinary {
		buf := make([]byte, 0, 64)
		putDouble := func(x float64) {
			buf = binary.NativeEndian.AppendUint64(buf, math.Float64bits(x))
		}
		for _, v := range c.verts {
			vert := m.Vertex(v)
			buf = buf[:0]
			putDouble(vert.Pos.X)
			putDouble(vert.Pos.Y)
			putDouble(vert.Pos.Z)
			if attrs.Normals {
				putDouble(vert.Normal.X)
				putDouble(vert.Normal.Y)
				putDouble(vert.Normal.Z)
			}
			if attrs.Colors {
				buf = append(buf, vert.Color.R, vert.Color.G, vert.Color.B)
			}
			if attrs.UVs {
				putDouble(vert.UV.X)
				putDouble(vert.UV.Y)
			}
			bw.Write(buf) //nolint:errcheck
		}
		for _, f := range c.faces {
			buf = append(buf[:0], 3)
			for _, i := range f {
				buf = binary.NativeEndian.AppendUint32(buf, uint32(int32(i)))
			}
			bw.Write(buf) //nolint:errcheck
		}
		return bw.Flush()
	}

	for _, v := range c.verts {
		vert := m.Vertex(v)
		fmt.Fprintf(bw, "%s %s %s", formatFloat(vert.Pos.X), formatFloat(vert.Pos.Y), formatFloat(vert.Pos.Z))
		if attrs.Normals {
			fmt.Fprintf(bw, " %s %s %s", formatFloat(vert.Normal.X), formatFloat(vert.Normal.Y), formatFloat(vert.Normal.Z))
		}
		if attrs.Colors {
			fmt.Fprintf(bw, " %d %d %d", vert.Color.R, vert.Color.G, vert.Color.B)
		}
		if attrs.UVs {
			fmt.Fprintf(bw, " %s %s", formatFloat(vert.UV.X), formatFloat(vert.UV.Y))
		}
		fmt.Fprintln(bw)
	}
	for _, f := range c.faces {
		fmt.Fprintf(bw, "3 %d %d %d\n", f[0], f[1], f[2])
	}
	return bw.Flush()
}
