package playback

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/snrgy-studios/glorb-animator/internal/logic/mathx"
)

var ErrOutOfRange = errors.New("index out of range")

type RangeError struct {
	Index    int
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: %d not in [%d,%d]", ErrOutOfRange, e.Index, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

type Config struct {
	Min, Max int
	// Loop wraps requests outside [Min, Max] back into range; otherwise they
	// are rejected and Advance/Back clamp at the bounds.
	Loop bool
}

func (c Config) Validate() error {
	if c.Min < 0 {
		return fmt.Errorf("playback: min index %d < 0", c.Min)
	}
	if c.Max < c.Min {
		return fmt.Errorf("playback: max index %d < min index %d", c.Max, c.Min)
	}
	return nil
}

// SimulateFunc computes the snapshot for index. The player calls it exactly
// once per index, in increasing order with no gaps, starting at Config.Min.
type SimulateFunc[S any] func(index int) (S, error)

// PresentFunc receives every requested snapshot. It must not mutate it.
type PresentFunc[S any] func(index int, snap S)

type Stats struct {
	Highest       int
	SimulateCalls int
	Cursor        int
}

// Player memoizes simulated snapshots and serves any index in range, computing
// forward on demand. All methods are safe for concurrent use; requests are
// serialized.
type Player[S any] struct {
	cfg      Config
	simulate SimulateFunc[S]

	mu       sync.Mutex
	presents []PresentFunc[S]
	history  *History[S]
	cursor   int
	simCalls int

	paused atomic.Bool
}

func New[S any](cfg Config, simulate SimulateFunc[S], present PresentFunc[S]) (*Player[S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if simulate == nil {
		return nil, errors.New("playback: nil simulate func")
	}
	p := &Player[S]{
		cfg:      cfg,
		simulate: simulate,
		history:  NewHistory[S](cfg.Min),
		cursor:   cfg.Min - 1,
	}
	if present != nil {
		p.presents = append(p.presents, present)
	}
	return p, nil
}

// AddPresenter registers another presentation consumer.
func (p *Player[S]) AddPresenter(fn PresentFunc[S]) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.presents = append(p.presents, fn)
	p.mu.Unlock()
}

func (p *Player[S]) Config() Config { return p.cfg }

// Resolve maps index into range (loop mode) or rejects it.
func (p *Player[S]) Resolve(index int) (int, error) {
	if index >= p.cfg.Min && index <= p.cfg.Max {
		return index, nil
	}
	if !p.cfg.Loop {
		return 0, &RangeError{Index: index, Min: p.cfg.Min, Max: p.cfg.Max}
	}
	span := p.cfg.Max - p.cfg.Min + 1
	return p.cfg.Min + mathx.Mod(index-p.cfg.Min, span), nil
}

// Request returns the snapshot at index, simulating every missing index up to
// it first, and passes it to the presenters.
func (p *Player[S]) Request(index int) (S, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requestLocked(index)
}

func (p *Player[S]) requestLocked(index int) (S, error) {
	var zero S
	i, err := p.Resolve(index)
	if err != nil {
		return zero, err
	}
	for p.history.Highest() < i {
		next := p.history.Highest() + 1
		s, err := p.simulate(next)
		p.simCalls++
		if err != nil {
			return zero, fmt.Errorf("simulate %d: %w", next, err)
		}
		if err := p.history.Append(next, s); err != nil {
			return zero, err
		}
	}
	s, _ := p.history.Get(i)
	p.cursor = i
	for _, fn := range p.presents {
		fn(i, s)
	}
	return s, nil
}

// Advance requests the index after the cursor, wrapping past Max in loop mode
// and holding at Max otherwise.
func (p *Player[S]) Advance() (int, S, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.cursor + 1
	if next > p.cfg.Max && !p.cfg.Loop {
		next = p.cfg.Max
	}
	s, err := p.requestLocked(next)
	return p.cursor, s, err
}

// Back requests the index before the cursor, wrapping below Min in loop mode
// and holding at Min otherwise.
func (p *Player[S]) Back() (int, S, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.cursor - 1
	if p.cursor < p.cfg.Min || (prev < p.cfg.Min && !p.cfg.Loop) {
		prev = p.cfg.Min
	}
	s, err := p.requestLocked(prev)
	return p.cursor, s, err
}

func (p *Player[S]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Highest:       p.history.Highest(),
		SimulateCalls: p.simCalls,
		Cursor:        p.cursor,
	}
}

func (p *Player[S]) Pause()       { p.paused.Store(true) }
func (p *Player[S]) Resume()      { p.paused.Store(false) }
func (p *Player[S]) Paused() bool { return p.paused.Load() }
func (p *Player[S]) TogglePause() { p.paused.Store(!p.paused.Load()) }

// Seek requests index and discards the snapshot; presenters still see it.
func (p *Player[S]) Seek(index int) error {
	_, err := p.Request(index)
	return err
}
