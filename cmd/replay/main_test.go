package main

import (
	"bytes"
	"strings"
	"testing"

	persistlog "github.com/snrgy-studios/glorb-animator/internal/persistence/log"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
	"github.com/snrgy-studios/glorb-animator/internal/tuning"
)

// recordRun simulates n indices from tune into a frame log under a temp run dir.
func recordRun(t *testing.T, tune tuning.Tuning, n int, tamper func(*sim.FrameLogEntry)) string {
	t.Helper()
	g, err := tune.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	run := t.TempDir()
	fl := persistlog.NewFrameLogger(run)
	s := sim.NewSimulator(g, tune.SimParams(), sim.NewStream(tune.Seed), tune.Playback.MinIndex)
	if tamper != nil {
		s.AddFrameLogger(tamperingLogger{fl, tamper})
	} else {
		s.AddFrameLogger(fl)
	}
	for i := tune.Playback.MinIndex; i < tune.Playback.MinIndex+n; i++ {
		if _, err := s.Simulate(i); err != nil {
			t.Fatalf("Simulate(%d): %v", i, err)
		}
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return run
}

type tamperingLogger struct {
	next   sim.FrameLogger
	tamper func(*sim.FrameLogEntry)
}

func (l tamperingLogger) WriteFrame(e sim.FrameLogEntry) error {
	l.tamper(&e)
	return l.next.WriteFrame(e)
}

func freshSimulator(t *testing.T, tune tuning.Tuning) *sim.Simulator {
	t.Helper()
	g, err := tune.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	return sim.NewSimulator(g, tune.SimParams(), sim.NewStream(tune.Seed), tune.Playback.MinIndex)
}

func TestVerify_MatchesRecordedRun(t *testing.T) {
	tune := tuning.Defaults()
	tune.Playback.MinIndex = 5
	run := recordRun(t, tune, 60, nil)

	res, err := verify(persistlog.FramesDir(run), freshSimulator(t, tune), -1)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Checked != 60 || res.Last != 64 || len(res.Snakes) != 60 {
		t.Fatalf("result: checked=%d last=%d", res.Checked, res.Last)
	}

	var buf bytes.Buffer
	printChart(&buf, res, 5)
	if !strings.Contains(buf.String(), "snakes") {
		t.Fatalf("chart missing caption:\n%s", buf.String())
	}
}

func TestVerify_StopsAtToIndex(t *testing.T) {
	tune := tuning.Defaults()
	run := recordRun(t, tune, 30, nil)
	res, err := verify(persistlog.FramesDir(run), freshSimulator(t, tune), 9)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Checked != 10 || res.Last != 9 {
		t.Fatalf("result: checked=%d last=%d", res.Checked, res.Last)
	}
}

func TestVerify_DetectsDigestMismatch(t *testing.T) {
	tune := tuning.Defaults()
	run := recordRun(t, tune, 20, func(e *sim.FrameLogEntry) {
		if e.Index == 12 {
			e.Digest = strings.Repeat("0", 64)
		}
	})
	_, err := verify(persistlog.FramesDir(run), freshSimulator(t, tune), -1)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch at index 12") {
		t.Fatalf("expected digest mismatch at 12, got %v", err)
	}
}

func TestVerify_DetectsDifferentSeed(t *testing.T) {
	tune := tuning.Defaults()
	run := recordRun(t, tune, 20, nil)
	other := tune
	other.Seed++
	if _, err := verify(persistlog.FramesDir(run), freshSimulator(t, other), -1); err == nil {
		t.Fatalf("expected mismatch for a different seed")
	}
}
