package sim

import (
	"errors"
	"fmt"
	"log"

	"github.com/snrgy-studios/glorb-animator/internal/geometry"
)

// ErrOutOfOrder is returned when Simulate is asked for anything other than
// the index right after the last computed one.
var ErrOutOfOrder = errors.New("simulate called out of order")

// Frame is the immutable snapshot handed to presentation.
type Frame struct {
	State
	Digest string `json:"digest"`
	Events Events `json:"events"`
}

// FrameLogEntry is recorded once per computed index.
type FrameLogEntry struct {
	Index   int    `json:"index"`
	Digest  string `json:"digest"`
	Snakes  int    `json:"snakes"`
	Food    int    `json:"food"`
	Longest int    `json:"longest"`
	Events  Events `json:"events"`
}

type FrameLogger interface {
	WriteFrame(entry FrameLogEntry) error
}

// Simulator owns the single live State and the random stream. It is not safe
// for concurrent use; the playback controller serializes calls.
type Simulator struct {
	graph  *geometry.Graph
	params Params
	rng    Rand
	live   State

	loggers []FrameLogger
	log     *log.Logger
}

// NewSimulator starts from an empty world whose first computed index is first.
func NewSimulator(g *geometry.Graph, p Params, rng Rand, first int) *Simulator {
	return &Simulator{
		graph:  g,
		params: p,
		rng:    rng,
		live:   Empty(first - 1),
	}
}

func (s *Simulator) SetLogger(l *log.Logger) { s.log = l }

// AddFrameLogger registers a sink for per-index records. Sink errors are
// logged and otherwise ignored; they never affect the simulation.
func (s *Simulator) AddFrameLogger(l FrameLogger) {
	if l != nil {
		s.loggers = append(s.loggers, l)
	}
}

// Simulate advances the live state by one step. index must be exactly one
// past the last computed index.
func (s *Simulator) Simulate(index int) (Frame, error) {
	if want := s.live.Index + 1; index != want {
		return Frame{}, fmt.Errorf("%w: got index %d, want %d", ErrOutOfOrder, index, want)
	}
	next, ev := Step(s.graph, s.live, s.rng, s.params)
	s.live = next

	f := Frame{State: next, Digest: Digest(next), Events: ev}
	if len(s.loggers) > 0 {
		entry := FrameLogEntry{
			Index:   f.Index,
			Digest:  f.Digest,
			Snakes:  len(f.Snakes),
			Food:    len(f.Food),
			Longest: longest(f.Snakes),
			Events:  ev,
		}
		for _, l := range s.loggers {
			if err := l.WriteFrame(entry); err != nil && s.log != nil {
				s.log.Printf("frame logger: index %d: %v", index, err)
			}
		}
	}
	return f, nil
}

func longest(snakes []Snake) int {
	m := 0
	for _, sn := range snakes {
		if len(sn.Body) > m {
			m = len(sn.Body)
		}
	}
	return m
}
