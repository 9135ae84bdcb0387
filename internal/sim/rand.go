package sim

import "github.com/snrgy-studios/glorb-animator/internal/logic/mathx"

// Rand is the random source consumed by the step function. Draw order is part
// of the determinism contract, so implementations must be a single stream.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). n > 0.
	IntN(n int) int
}

// Stream is a seeded splitmix64 generator. Its output depends only on the
// seed, independent of the Go release.
type Stream struct {
	state uint64
}

func NewStream(seed int64) *Stream {
	return &Stream{state: uint64(seed)}
}

func (s *Stream) Uint64() uint64 {
	s.state += mathx.Golden
	return mathx.Mix64(s.state)
}

func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

func (s *Stream) IntN(n int) int {
	if n <= 0 {
		panic("sim: IntN called with n <= 0")
	}
	// Rejection sampling keeps the distribution uniform.
	un := uint64(n)
	limit := ^uint64(0) - (^uint64(0) % un)
	for {
		v := s.Uint64()
		if v < limit {
			return int(v % un)
		}
	}
}
