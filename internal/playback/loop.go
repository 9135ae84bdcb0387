package playback

import (
	"context"
	"time"
)

// MinInterval is the floor applied to the playback interval.
const MinInterval = 10 * time.Millisecond

// Run advances the player once per interval until ctx is done. Paused players
// keep ticking without advancing. Simulation errors stop the loop.
func (p *Player[S]) Run(ctx context.Context, interval time.Duration) error {
	if interval < MinInterval {
		interval = MinInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if p.Paused() {
				continue
			}
			if _, _, err := p.Advance(); err != nil {
				return err
			}
		}
	}
}
