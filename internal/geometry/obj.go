package geometry

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadOBJ parses the vertex ("v") and triangle ("f") records of a Wavefront
// OBJ stream. Face indices are 1-based; negative indices count back from the
// last vertex read. Other records are ignored.
func ReadOBJ(r io.Reader) (Mesh, error) {
	var m Mesh
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		parts := strings.Fields(sc.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		switch parts[0] {
		case "v":
			if len(parts) < 4 {
				return m, fmt.Errorf("obj line %d: vertex needs 3 coordinates", line)
			}
			var v Vec3
			for k := 0; k < 3; k++ {
				f, err := strconv.ParseFloat(parts[k+1], 64)
				if err != nil {
					return m, fmt.Errorf("obj line %d: %w", line, err)
				}
				v[k] = f
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			if len(parts) != 4 {
				return m, fmt.Errorf("obj line %d: only triangles are supported, got %d vertices", line, len(parts)-1)
			}
			var face [3]int
			for k := 0; k < 3; k++ {
				tok := parts[k+1]
				if i := strings.IndexByte(tok, '/'); i >= 0 {
					tok = tok[:i]
				}
				idx, err := strconv.Atoi(tok)
				if err != nil {
					return m, fmt.Errorf("obj line %d: %w", line, err)
				}
				switch {
				case idx > 0:
					idx--
				case idx < 0:
					idx = len(m.Vertices) + idx
				default:
					return m, fmt.Errorf("obj line %d: vertex index 0 is invalid", line)
				}
				face[k] = idx
			}
			m.Faces = append(m.Faces, face)
		}
	}
	if err := sc.Err(); err != nil {
		return m, err
	}
	return m, nil
}

func LoadOBJ(path string) (Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mesh{}, err
	}
	defer f.Close()
	m, err := ReadOBJ(f)
	if err != nil {
		return m, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteOBJ writes m as a Wavefront OBJ stream with 1-based indices.
func WriteOBJ(w io.Writer, m Mesh) error {
	bw := bufio.NewWriter(w)
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(bw, "v %s %s %s\n", fmtFloat(v[0]), fmtFloat(v[1]), fmtFloat(v[2])); err != nil {
			return err
		}
	}
	for _, f := range m.Faces {
		if _, err := fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
