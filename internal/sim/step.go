package sim

import (
	"fmt"

	"github.com/snrgy-studios/glorb-animator/internal/geometry"
	"github.com/snrgy-studios/glorb-animator/internal/palette"
)

type Params struct {
	InitialMaxLength int
	// A spawn (food) draw succeeds when rng.Float64() > threshold.
	SpawnThreshold float64
	FoodThreshold  float64
	// Upper bounds on spawn and food draws per tick.
	MaxSpawnsPerTick int
	MaxFoodPerTick   int
}

func DefaultParams() Params {
	return Params{
		InitialMaxLength: 4,
		SpawnThreshold:   0.8,
		FoodThreshold:    0.7,
		MaxSpawnsPerTick: 8,
		MaxFoodPerTick:   8,
	}
}

// Events records what happened during one step.
type Events struct {
	Spawned   []string `json:"spawned,omitempty"`
	Died      []string `json:"died,omitempty"`
	Eaten     []int    `json:"eaten,omitempty"`
	FoodAdded []int    `json:"food_added,omitempty"`
}

// Step computes the state at prev.Index+1. prev is not modified.
//
// Random draws happen in a fixed order: one IntN per moving snake (spawn
// order), then for each spawn attempt a Float64 threshold draw followed, on
// success, by an IntN for the face and a Float64 for the color, then for each
// food attempt a Float64 threshold draw followed, on success, by an IntN.
//
// When two snakes could reach the same food face in one tick, the one earlier
// in spawn order takes it.
func Step(g *geometry.Graph, prev State, rng Rand, p Params) (State, Events) {
	n := g.NumFaces()
	occupied := prev.Occupancy(n)
	food := make([]bool, n)
	for _, f := range prev.Food {
		food[f] = true
	}

	next := State{Index: prev.Index + 1, NextID: prev.NextID}
	var ev Events

	// Moves: survivors go into a fresh slice; prev.Snakes is never touched.
	next.Snakes = make([]Snake, 0, len(prev.Snakes)+1)
	for _, old := range prev.Snakes {
		sn := old.clone()
		moved, ate := sn.advance(g, occupied, food, rng)
		if !moved {
			ev.Died = append(ev.Died, sn.ID)
			continue
		}
		if ate {
			ev.Eaten = append(ev.Eaten, sn.Head())
		}
		next.Snakes = append(next.Snakes, sn)
	}

	for i := 0; i < p.MaxSpawnsPerTick; i++ {
		if rng.Float64() <= p.SpawnThreshold {
			break
		}
		cands := freeFaces(occupied, food)
		if len(cands) == 0 {
			break
		}
		face := cands[rng.IntN(len(cands))]
		color := palette.Rainbow(rng.Float64())
		next.NextID++
		sn := Snake{
			ID:        fmt.Sprintf("S%d", next.NextID),
			Body:      []int{face},
			MaxLength: p.InitialMaxLength,
			Color:     color,
		}
		occupied[face] = true
		next.Snakes = append(next.Snakes, sn)
		ev.Spawned = append(ev.Spawned, sn.ID)
	}

	cands := freeFaces(occupied, food)
	for i := 0; i < p.MaxFoodPerTick; i++ {
		if rng.Float64() <= p.FoodThreshold {
			break
		}
		if len(cands) == 0 {
			break
		}
		k := rng.IntN(len(cands))
		food[cands[k]] = true
		ev.FoodAdded = append(ev.FoodAdded, cands[k])
		cands = append(cands[:k], cands[k+1:]...)
	}

	for f, ok := range food {
		if ok {
			next.Food = append(next.Food, f)
		}
	}

	if err := next.Validate(n); err != nil {
		panic(fmt.Sprintf("sim: invariant violated at index %d: %v", next.Index, err))
	}
	return next, ev
}

func freeFaces(occupied, food []bool) []int {
	out := make([]int, 0, len(occupied))
	for f := range occupied {
		if !occupied[f] && !food[f] {
			out = append(out, f)
		}
	}
	return out
}
