package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/snrgy-studios/glorb-animator/internal/palette"
	"github.com/snrgy-studios/glorb-animator/internal/render"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
)

// Columns is the width of the face grid, one cell per LED.
const Columns = 20

type Controller interface {
	Advance() (int, sim.Frame, error)
	Back() (int, sim.Frame, error)
	TogglePause()
	Paused() bool
}

// Viewer draws presented frames as a grid of colored cells and turns key
// presses into playback controls.
type Viewer struct {
	screen   tcell.Screen
	ctl      Controller
	numFaces int
	pal      palette.Palette

	mu     sync.Mutex
	frame  *sim.Frame
	redraw chan struct{}
}

func NewViewer(screen tcell.Screen, ctl Controller, numFaces int, pal palette.Palette) *Viewer {
	return &Viewer{
		screen:   screen,
		ctl:      ctl,
		numFaces: numFaces,
		pal:      pal,
		redraw:   make(chan struct{}, 1),
	}
}

// Present records f for the next redraw. It never blocks.
func (v *Viewer) Present(index int, f sim.Frame) {
	v.mu.Lock()
	v.frame = &f
	v.mu.Unlock()
	select {
	case v.redraw <- struct{}{}:
	default:
	}
}

// Cell is a grid position in screen coordinates.
type Cell struct{ X, Y int }

// Layout places numFaces faces row by row, two columns per face, below the
// status line.
func Layout(numFaces, cols int) []Cell {
	if cols < 1 {
		cols = 1
	}
	out := make([]Cell, numFaces)
	for i := range out {
		out[i] = Cell{X: (i % cols) * 2, Y: 1 + i/cols}
	}
	return out
}

func statusLine(f *sim.Frame, paused bool) string {
	if f == nil {
		return "glorb: waiting for first frame"
	}
	longest := 0
	for _, sn := range f.Snakes {
		if len(sn.Body) > longest {
			longest = len(sn.Body)
		}
	}
	s := fmt.Sprintf("glorb #%d  snakes=%d food=%d longest=%d", f.Index, len(f.Snakes), len(f.Food), longest)
	if paused {
		s += "  [paused]"
	}
	return s
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// Draw renders the current frame.
func (v *Viewer) Draw() {
	v.mu.Lock()
	f := v.frame
	v.mu.Unlock()

	v.screen.Clear()
	drawText(v.screen, 0, 0, tcell.StyleDefault, statusLine(f, v.ctl.Paused()))
	if f != nil {
		colors := render.FaceColors(f.State, v.numFaces, v.pal)
		for i, cell := range Layout(v.numFaces, Columns) {
			st := tcell.StyleDefault.Background(toTcell(colors[i]))
			v.screen.SetContent(cell.X, cell.Y, ' ', nil, st)
			v.screen.SetContent(cell.X+1, cell.Y, ' ', nil, st)
		}
	}
	rows := (v.numFaces + Columns - 1) / Columns
	drawText(v.screen, 0, rows+2, tcell.StyleDefault.Dim(true), "←/→ scrub  space pause  q quit")
	v.screen.Show()
}

func drawText(s tcell.Screen, x, y int, st tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, st)
		x++
	}
}

// Run processes input and redraws until ctx is done or the user quits.
// The screen must already be initialized; Run does not finalize it.
func (v *Viewer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.redraw:
			v.Draw()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				quit, err := v.apply(ev.Key(), ev.Rune())
				if err != nil {
					return err
				}
				if quit {
					return nil
				}
				v.Draw()
			case *tcell.EventResize:
				v.screen.Sync()
				v.Draw()
			}
		}
	}
}

// apply maps a key press to a playback action. Scrubbing holds at the ends
// in clamp mode and wraps in loop mode.
func (v *Viewer) apply(key tcell.Key, r rune) (quit bool, err error) {
	switch {
	case key == tcell.KeyEscape || key == tcell.KeyCtrlC:
		return true, nil
	case key == tcell.KeyRune && (r == 'q' || r == 'Q'):
		return true, nil
	case key == tcell.KeyRune && r == ' ':
		v.ctl.TogglePause()
	case key == tcell.KeyRight:
		_, _, err = v.ctl.Advance()
	case key == tcell.KeyLeft:
		_, _, err = v.ctl.Back()
	}
	return false, err
}
