package geometry

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestIcosphere_FaceAndVertexCounts(t *testing.T) {
	cases := []struct {
		nu, faces, verts int
	}{
		{1, 20, 12},
		{2, 80, 42},
		{3, 180, 92},
	}
	for _, c := range cases {
		m, err := Icosphere(c.nu)
		if err != nil {
			t.Fatalf("Icosphere(%d): %v", c.nu, err)
		}
		if len(m.Faces) != c.faces || len(m.Vertices) != c.verts {
			t.Fatalf("nu=%d: got faces=%d verts=%d want faces=%d verts=%d", c.nu, len(m.Faces), len(m.Vertices), c.faces, c.verts)
		}
		for i, v := range m.Vertices {
			if math.Abs(v.Len()-1) > 1e-12 {
				t.Fatalf("nu=%d vertex %d not on unit sphere: |v|=%v", c.nu, i, v.Len())
			}
		}
	}
	if _, err := Icosphere(0); err == nil {
		t.Fatalf("expected error for nu=0")
	}
}

func TestBuild_Level2_ThreeSymmetricNeighbors(t *testing.T) {
	g, err := NewGlorb(2)
	if err != nil {
		t.Fatalf("NewGlorb: %v", err)
	}
	if g.NumFaces() != 80 {
		t.Fatalf("faces: got %d want 80", g.NumFaces())
	}
	for f := 0; f < g.NumFaces(); f++ {
		nb := g.Neighbors(f)
		seen := map[int]bool{}
		for _, n := range nb {
			if n == f {
				t.Fatalf("face %d lists itself as neighbor", f)
			}
			if seen[n] {
				t.Fatalf("face %d has duplicate neighbor %d", f, n)
			}
			seen[n] = true
			if !g.IsNeighbor(n, f) {
				t.Fatalf("adjacency not symmetric: %d -> %d", f, n)
			}
			if shared := sharedVertices(g.Face(f), g.Face(n)); shared != 2 {
				t.Fatalf("faces %d and %d share %d vertices, want 2", f, n, shared)
			}
		}
		if nb[0] >= nb[1] || nb[1] >= nb[2] {
			t.Fatalf("face %d neighbors not ascending: %v", f, nb)
		}
	}
}

// The shared-edge index must agree with the pairwise definition.
func TestBuild_MatchesPairwiseDefinition(t *testing.T) {
	g, err := NewGlorb(2)
	if err != nil {
		t.Fatalf("NewGlorb: %v", err)
	}
	for i := 0; i < g.NumFaces(); i++ {
		var want []int
		for j := 0; j < g.NumFaces(); j++ {
			if i != j && sharedVertices(g.Face(i), g.Face(j)) == 2 {
				want = append(want, j)
			}
		}
		got := g.Neighbors(i)
		if len(want) != 3 || want[0] != got[0] || want[1] != got[1] || want[2] != got[2] {
			t.Fatalf("face %d: got %v want %v", i, got, want)
		}
	}
}

func TestBuild_CentroidIsVertexMean(t *testing.T) {
	g, err := NewGlorb(2)
	if err != nil {
		t.Fatalf("NewGlorb: %v", err)
	}
	verts := g.Vertices()
	for f := 0; f < g.NumFaces(); f++ {
		fv := g.Face(f)
		c := g.Centroid(f)
		for k := 0; k < 3; k++ {
			want := (verts[fv[0]][k] + verts[fv[1]][k] + verts[fv[2]][k]) / 3
			if math.Abs(c[k]-want) > 1e-12 {
				t.Fatalf("face %d axis %d: got %v want %v", f, k, c[k], want)
			}
		}
		s := g.CentroidSpherical(f)
		if math.Abs(s.Radius-c.Len()) > 1e-12 {
			t.Fatalf("face %d: spherical radius %v want %v", f, s.Radius, c.Len())
		}
		if s.Theta < 0 || s.Theta > math.Pi {
			t.Fatalf("face %d: theta %v out of [0,pi]", f, s.Theta)
		}
	}
}

func TestBuild_RejectsOpenMesh(t *testing.T) {
	m := Icosahedron()
	m.Faces = m.Faces[:19]
	_, err := Build(m)
	if err == nil {
		t.Fatalf("expected error for open mesh")
	}
	if !errors.Is(err, ErrMalformedMesh) {
		t.Fatalf("error should wrap ErrMalformedMesh: %v", err)
	}
	var me *MeshError
	if !errors.As(err, &me) {
		t.Fatalf("error should be *MeshError: %T", err)
	}
}

func TestBuild_RejectsBadIndicesAndDegenerateFaces(t *testing.T) {
	m := Icosahedron()
	m.Faces = append([][3]int(nil), m.Faces...)
	m.Faces[3] = [3]int{0, 0, 1}
	if _, err := Build(m); !errors.Is(err, ErrMalformedMesh) {
		t.Fatalf("degenerate face: got %v", err)
	}
	m.Faces[3] = [3]int{0, 7, 99}
	if _, err := Build(m); !errors.Is(err, ErrMalformedMesh) {
		t.Fatalf("out of range index: got %v", err)
	}
	if _, err := Build(Mesh{}); !errors.Is(err, ErrMalformedMesh) {
		t.Fatalf("empty mesh: got %v", err)
	}
}

func TestBuild_RejectsEdgeSharedByThreeFaces(t *testing.T) {
	m := Icosahedron()
	m.Vertices = append(m.Vertices, Vec3{0, 0, 0})
	m.Faces = append(m.Faces, [3]int{0, 11, 12})
	if _, err := Build(m); !errors.Is(err, ErrMalformedMesh) {
		t.Fatalf("got %v", err)
	}
}

func TestOBJ_RoundTrip(t *testing.T) {
	m, err := Icosphere(2)
	if err != nil {
		t.Fatalf("Icosphere: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, m); err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}
	got, err := ReadOBJ(&buf)
	if err != nil {
		t.Fatalf("ReadOBJ: %v", err)
	}
	if len(got.Faces) != len(m.Faces) || len(got.Vertices) != len(m.Vertices) {
		t.Fatalf("counts: got %d/%d want %d/%d", len(got.Faces), len(got.Vertices), len(m.Faces), len(m.Vertices))
	}
	for i := range m.Faces {
		if got.Faces[i] != m.Faces[i] {
			t.Fatalf("face %d: got %v want %v", i, got.Faces[i], m.Faces[i])
		}
	}
	if _, err := Build(got); err != nil {
		t.Fatalf("Build(read obj): %v", err)
	}
}

func TestReadOBJ_SlashTokensAndNegativeIndices(t *testing.T) {
	src := `# tetrahedron
o tet
v 1 1 1
v -1 -1 1
v -1 1 -1
v 1 -1 -1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
f 1 4 2
f -4 -2 -1
f 2 4 3
`
	m, err := ReadOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadOBJ: %v", err)
	}
	if len(m.Vertices) != 4 || len(m.Faces) != 4 {
		t.Fatalf("counts: %d verts %d faces", len(m.Vertices), len(m.Faces))
	}
	if m.Faces[2] != [3]int{0, 2, 3} {
		t.Fatalf("negative indices: got %v", m.Faces[2])
	}
	g, err := Build(m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for f := 0; f < 4; f++ {
		for _, n := range g.Neighbors(f) {
			if n == f {
				t.Fatalf("self neighbor")
			}
		}
	}
}

func TestReadOBJ_RejectsQuads(t *testing.T) {
	_, err := ReadOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"))
	if err == nil {
		t.Fatalf("expected error for quad face")
	}
}

func sharedVertices(a, b [3]int) int {
	n := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				n++
			}
		}
	}
	return n
}
