package playback

import "fmt"

// History is a gap-free memo of snapshots from min up to the highest computed
// index. Entries are only ever appended.
type History[S any] struct {
	min    int
	states []S
}

func NewHistory[S any](min int) *History[S] {
	return &History[S]{min: min}
}

func (h *History[S]) Min() int { return h.min }

// Highest returns the highest computed index, or Min()-1 when empty.
func (h *History[S]) Highest() int { return h.min + len(h.states) - 1 }

func (h *History[S]) Len() int { return len(h.states) }

func (h *History[S]) Get(index int) (S, bool) {
	var zero S
	i := index - h.min
	if i < 0 || i >= len(h.states) {
		return zero, false
	}
	return h.states[i], true
}

// Append stores s at index, which must be Highest()+1.
func (h *History[S]) Append(index int, s S) error {
	if want := h.Highest() + 1; index != want {
		return fmt.Errorf("history: append index %d, want %d", index, want)
	}
	h.states = append(h.states, s)
	return nil
}
