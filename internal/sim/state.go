package sim

import (
	"fmt"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Snake is one agent. Body is ordered tail to head.
type Snake struct {
	ID        string         `json:"id"`
	Body      []int          `json:"body"`
	MaxLength int            `json:"max_length"`
	Color     colorful.Color `json:"color"`
}

func (s Snake) Head() int { return s.Body[len(s.Body)-1] }

func (s Snake) clone() Snake {
	body := make([]int, len(s.Body), len(s.Body)+1)
	copy(body, s.Body)
	s.Body = body
	return s
}

// State is the world at one step index. A produced State is never mutated;
// Step copies everything it changes.
type State struct {
	Index  int     `json:"index"`
	Snakes []Snake `json:"snakes"`
	Food   []int   `json:"food"`
	NextID uint64  `json:"next_id"`
}

// Empty returns a world with no snakes and no food, positioned so that the
// first step produces index+1.
func Empty(index int) State {
	return State{Index: index}
}

// Occupancy marks every face covered by a snake body. It panics if two body
// segments share a face.
func (s State) Occupancy(numFaces int) []bool {
	occ := make([]bool, numFaces)
	for _, sn := range s.Snakes {
		for _, f := range sn.Body {
			if occ[f] {
				panic(fmt.Sprintf("sim: invariant violated at index %d: face %d occupied twice", s.Index, f))
			}
			occ[f] = true
		}
	}
	return occ
}

func (s State) SnakeByID(id string) (Snake, bool) {
	for _, sn := range s.Snakes {
		if sn.ID == id {
			return sn, true
		}
	}
	return Snake{}, false
}

// Validate checks the state invariants against a board of numFaces faces.
func (s State) Validate(numFaces int) error {
	occ := make([]bool, numFaces)
	ids := map[string]bool{}
	for _, sn := range s.Snakes {
		if sn.ID == "" {
			return fmt.Errorf("snake with empty id")
		}
		if ids[sn.ID] {
			return fmt.Errorf("duplicate snake id %s", sn.ID)
		}
		ids[sn.ID] = true
		if sn.MaxLength < 1 {
			return fmt.Errorf("snake %s: max length %d < 1", sn.ID, sn.MaxLength)
		}
		if len(sn.Body) == 0 || len(sn.Body) > sn.MaxLength {
			return fmt.Errorf("snake %s: body length %d outside [1,%d]", sn.ID, len(sn.Body), sn.MaxLength)
		}
		for _, f := range sn.Body {
			if f < 0 || f >= numFaces {
				return fmt.Errorf("snake %s: face %d out of range", sn.ID, f)
			}
			if occ[f] {
				return fmt.Errorf("snake %s: face %d already occupied", sn.ID, f)
			}
			occ[f] = true
		}
	}
	if !sort.IntsAreSorted(s.Food) {
		return fmt.Errorf("food not sorted: %v", s.Food)
	}
	for i, f := range s.Food {
		if f < 0 || f >= numFaces {
			return fmt.Errorf("food face %d out of range", f)
		}
		if i > 0 && s.Food[i-1] == f {
			return fmt.Errorf("duplicate food face %d", f)
		}
		if occ[f] {
			return fmt.Errorf("food face %d is occupied", f)
		}
	}
	return nil
}
