package palette

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Rainbow maps t in [0, 1] onto the purple→red "rainbow" colormap
// (r = |2t-0.5|, g = sin(πt), b = cos(πt/2)).
func Rainbow(t float64) colorful.Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return colorful.Color{
		R: math.Abs(2*t - 0.5),
		G: math.Sin(math.Pi * t),
		B: math.Cos(math.Pi * t / 2),
	}.Clamped()
}

// Palette holds the fixed presentation colors.
type Palette struct {
	Background colorful.Color
	Food       colorful.Color
}

func Default() Palette {
	return Palette{
		Background: colorful.Color{R: 0.05, G: 0.05, B: 0.05},
		Food:       colorful.Color{R: 1, G: 1, B: 0},
	}
}

// FromHex builds a palette from "#rrggbb" strings; empty strings keep defaults.
func FromHex(background, food string) (Palette, error) {
	p := Default()
	if background != "" {
		c, err := colorful.Hex(background)
		if err != nil {
			return p, fmt.Errorf("palette background %q: %w", background, err)
		}
		p.Background = c
	}
	if food != "" {
		c, err := colorful.Hex(food)
		if err != nil {
			return p, fmt.Errorf("palette food %q: %w", food, err)
		}
		p.Food = c
	}
	return p, nil
}
