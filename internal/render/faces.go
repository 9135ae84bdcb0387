package render

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/snrgy-studios/glorb-animator/internal/palette"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
)

// FaceColors returns one color per face: background, food, or the color of
// the snake covering it. Indices outside [0, numFaces) are ignored.
func FaceColors(s sim.State, numFaces int, pal palette.Palette) []colorful.Color {
	out := make([]colorful.Color, numFaces)
	for i := range out {
		out[i] = pal.Background
	}
	for _, f := range s.Food {
		if f >= 0 && f < numFaces {
			out[f] = pal.Food
		}
	}
	for _, sn := range s.Snakes {
		for _, f := range sn.Body {
			if f >= 0 && f < numFaces {
				out[f] = sn.Color
			}
		}
	}
	return out
}

// HexColors is FaceColors in "#rrggbb" wire form.
func HexColors(s sim.State, numFaces int, pal palette.Palette) []string {
	cs := FaceColors(s, numFaces, pal)
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Clamped().Hex()
	}
	return out
}
