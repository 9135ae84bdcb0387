package sim

import "github.com/snrgy-studios/glorb-animator/internal/geometry"

// advance moves the head onto a random free neighbor, eats food if present,
// and trims the tail down to MaxLength. It reports moved=false when every
// neighbor of the head is occupied; the caller removes the snake.
//
// occupied and food are updated in place: the new head is marked occupied
// and eaten food is cleared. Vacated tail faces are left marked, so they stay
// blocked for the rest of the tick.
func (s *Snake) advance(g *geometry.Graph, occupied, food []bool, rng Rand) (moved, ate bool) {
	var buf [3]int
	cands := buf[:0]
	for _, n := range g.Neighbors(s.Head()) {
		if !occupied[n] {
			cands = append(cands, n)
		}
	}
	if len(cands) == 0 {
		return false, false
	}

	head := cands[rng.IntN(len(cands))]
	s.Body = append(s.Body, head)
	occupied[head] = true

	if food[head] {
		food[head] = false
		s.MaxLength++
		ate = true
	}

	if over := len(s.Body) - s.MaxLength; over > 0 {
		s.Body = s.Body[over:]
	}
	return true, ate
}
