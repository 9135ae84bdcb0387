package tuning

import (
	"fmt"

	"github.com/snrgy-studios/glorb-animator/internal/geometry"
)

// Graph loads the OBJ mesh named by mesh_obj, or generates the icosphere at
// the configured subdivision when none is set.
func (t Tuning) Graph() (*geometry.Graph, error) {
	if t.MeshOBJ == "" {
		return geometry.NewGlorb(t.Subdivision)
	}
	m, err := geometry.LoadOBJ(t.MeshOBJ)
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", t.MeshOBJ, err)
	}
	return geometry.Build(m)
}
