package geometry

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedMesh is returned (wrapped in a *MeshError) when a mesh is not a
// closed triangulated surface.
var ErrMalformedMesh = errors.New("malformed mesh")

type MeshError struct {
	Face   int
	Reason string
}

func (e *MeshError) Error() string {
	return fmt.Sprintf("%v: face %d: %s", ErrMalformedMesh, e.Face, e.Reason)
}

func (e *MeshError) Unwrap() error { return ErrMalformedMesh }

// Graph is the immutable face adjacency graph of a closed triangle mesh.
// Every face has exactly three neighbors, each sharing one edge.
type Graph struct {
	vertices  []Vec3
	faces     [][3]int
	neighbors [][3]int
	centroids []Vec3
	spherical []Spherical
}

type edgeKey [2]int

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Build derives adjacency and centroids from m. It returns a *MeshError if any
// face does not end up with exactly three distinct neighbors.
func Build(m Mesh) (*Graph, error) {
	nv := len(m.Vertices)
	if len(m.Faces) == 0 {
		return nil, &MeshError{Face: -1, Reason: "no faces"}
	}

	incident := make(map[edgeKey][]int, len(m.Faces)*3/2)
	for fi, f := range m.Faces {
		for _, v := range f {
			if v < 0 || v >= nv {
				return nil, &MeshError{Face: fi, Reason: fmt.Sprintf("vertex index %d out of range [0,%d)", v, nv)}
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return nil, &MeshError{Face: fi, Reason: fmt.Sprintf("degenerate face %v", f)}
		}
		for k := 0; k < 3; k++ {
			e := makeEdgeKey(f[k], f[(k+1)%3])
			incident[e] = append(incident[e], fi)
		}
	}

	g := &Graph{
		vertices:  append([]Vec3(nil), m.Vertices...),
		faces:     append([][3]int(nil), m.Faces...),
		neighbors: make([][3]int, len(m.Faces)),
		centroids: make([]Vec3, len(m.Faces)),
		spherical: make([]Spherical, len(m.Faces)),
	}

	for fi, f := range m.Faces {
		var nb [3]int
		for k := 0; k < 3; k++ {
			e := makeEdgeKey(f[k], f[(k+1)%3])
			fs := incident[e]
			if len(fs) != 2 {
				return nil, &MeshError{Face: fi, Reason: fmt.Sprintf("edge %v shared by %d faces, want 2", e, len(fs))}
			}
			other := fs[0]
			if other == fi {
				other = fs[1]
			}
			nb[k] = other
		}
		sort.Ints(nb[:])
		if nb[0] == nb[1] || nb[1] == nb[2] {
			return nil, &MeshError{Face: fi, Reason: fmt.Sprintf("neighbors %v not distinct", nb)}
		}
		g.neighbors[fi] = nb

		c := m.Vertices[f[0]].Add(m.Vertices[f[1]]).Add(m.Vertices[f[2]]).Scale(1.0 / 3.0)
		g.centroids[fi] = c
		g.spherical[fi] = ToSpherical(c)
	}
	return g, nil
}

// NewGlorb builds the graph for an icosphere of the given subdivision.
func NewGlorb(nu int) (*Graph, error) {
	m, err := Icosphere(nu)
	if err != nil {
		return nil, err
	}
	return Build(m)
}

func (g *Graph) NumFaces() int { return len(g.faces) }

func (g *Graph) Face(i int) [3]int { return g.faces[i] }

// Neighbors returns the three adjacent faces of i in ascending order.
func (g *Graph) Neighbors(i int) [3]int { return g.neighbors[i] }

func (g *Graph) IsNeighbor(a, b int) bool {
	for _, n := range g.neighbors[a] {
		if n == b {
			return true
		}
	}
	return false
}

func (g *Graph) Centroid(i int) Vec3 { return g.centroids[i] }

func (g *Graph) CentroidSpherical(i int) Spherical { return g.spherical[i] }

// Vertices returns a copy of the vertex positions.
func (g *Graph) Vertices() []Vec3 { return append([]Vec3(nil), g.vertices...) }

// Faces returns a copy of the face vertex indices.
func (g *Graph) Faces() [][3]int { return append([][3]int(nil), g.faces...) }

// Centroids returns a copy of the per-face centroids.
func (g *Graph) Centroids() []Vec3 { return append([]Vec3(nil), g.centroids...) }

// Adjacency returns a copy of the per-face neighbor triples.
func (g *Graph) Adjacency() [][3]int { return append([][3]int(nil), g.neighbors...) }
