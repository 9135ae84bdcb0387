package geometry

import (
	"fmt"
	"math"
	"sort"
)

// Mesh is raw triangle mesh data: vertex positions plus per-face vertex indices.
type Mesh struct {
	Vertices []Vec3
	Faces    [][3]int
}

// Icosahedron returns the base 20-face mesh on the unit sphere.
func Icosahedron() Mesh {
	t := (1 + math.Sqrt(5)) / 2
	raw := []Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	verts := make([]Vec3, len(raw))
	for i, v := range raw {
		verts[i] = v.Normalize()
	}
	return Mesh{
		Vertices: verts,
		Faces: [][3]int{
			{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
			{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
			{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
			{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
		},
	}
}

// weightKey identifies a subdivision vertex by its integer barycentric
// weights over base vertices, so edge vertices shared by two base faces
// dedupe exactly.
type weightKey [3][2]int

func makeWeightKey(pairs ...[2]int) weightKey {
	var nz [][2]int
	for _, p := range pairs {
		if p[1] != 0 {
			nz = append(nz, p)
		}
	}
	sort.Slice(nz, func(i, j int) bool { return nz[i][0] < nz[j][0] })
	k := weightKey{{-1, 0}, {-1, 0}, {-1, 0}}
	copy(k[:], nz)
	return k
}

// Icosphere subdivides every icosahedron edge into nu segments and projects
// the result onto the unit sphere, giving 20*nu*nu faces. nu=2 is the
// 80-face glorb.
func Icosphere(nu int) (Mesh, error) {
	if nu < 1 {
		return Mesh{}, fmt.Errorf("icosphere: subdivision must be >= 1, got %d", nu)
	}
	base := Icosahedron()
	if nu == 1 {
		return base, nil
	}

	out := Mesh{Faces: make([][3]int, 0, 20*nu*nu)}
	index := map[weightKey]int{}

	for _, f := range base.Faces {
		a, b, c := f[0], f[1], f[2]
		point := func(i, j int) int {
			wa, wb, wc := nu-i-j, i, j
			k := makeWeightKey([2]int{a, wa}, [2]int{b, wb}, [2]int{c, wc})
			if id, ok := index[k]; ok {
				return id
			}
			p := base.Vertices[a].Scale(float64(wa)).
				Add(base.Vertices[b].Scale(float64(wb))).
				Add(base.Vertices[c].Scale(float64(wc))).
				Normalize()
			id := len(out.Vertices)
			out.Vertices = append(out.Vertices, p)
			index[k] = id
			return id
		}
		for i := 0; i < nu; i++ {
			for j := 0; j < nu-i; j++ {
				out.Faces = append(out.Faces, [3]int{point(i, j), point(i+1, j), point(i, j+1)})
				if i+j < nu-1 {
					out.Faces = append(out.Faces, [3]int{point(i+1, j), point(i+1, j+1), point(i, j+1)})
				}
			}
		}
	}
	return out, nil
}
