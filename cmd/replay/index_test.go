package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snrgy-studios/glorb-animator/internal/persistence/indexdb"
	persistlog "github.com/snrgy-studios/glorb-animator/internal/persistence/log"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
	"github.com/snrgy-studios/glorb-animator/internal/tuning"
)

// indexRun records n indices of tune into an index at path under runID.
func indexRun(t *testing.T, path, runID string, tune tuning.Tuning, n int, tamper func(*sim.FrameLogEntry)) {
	t.Helper()
	idx, err := indexdb.OpenSQLite(path, runID)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.RecordRun(tune.Seed, 80, tune); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	s := freshSimulator(t, tune)
	if tamper != nil {
		s.AddFrameLogger(tamperingLogger{idx, tamper})
	} else {
		s.AddFrameLogger(idx)
	}
	for i := tune.Playback.MinIndex; i < tune.Playback.MinIndex+n; i++ {
		if _, err := s.Simulate(i); err != nil {
			t.Fatalf("Simulate(%d): %v", i, err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDefaultIndexPath(t *testing.T) {
	got := defaultIndexPath(filepath.Join("data", "runs", "run_a") + "/")
	if want := filepath.Join("data", "index", "glorb.sqlite"); got != want {
		t.Fatalf("defaultIndexPath: got %s want %s", got, want)
	}
}

func TestCrossCheckIndex(t *testing.T) {
	tune := tuning.Defaults()
	run := recordRun(t, tune, 25, nil)
	res, err := verify(persistlog.FramesDir(run), freshSimulator(t, tune), -1)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	ctx := context.Background()
	dir := t.TempDir()

	if n, found, err := crossCheckIndex(ctx, filepath.Join(dir, "absent.sqlite"), "run_a", tune.Seed, res.Digests); err != nil || found || n != 0 {
		t.Fatalf("absent index: n=%d found=%v err=%v", n, found, err)
	}

	good := filepath.Join(dir, "good.sqlite")
	indexRun(t, good, "run_a", tune, 25, nil)
	n, found, err := crossCheckIndex(ctx, good, "run_a", tune.Seed, res.Digests)
	if err != nil || !found || n != 25 {
		t.Fatalf("matching index: n=%d found=%v err=%v", n, found, err)
	}
	if n, _, err := crossCheckIndex(ctx, good, "run_other", tune.Seed, res.Digests); err != nil || n != 0 {
		t.Fatalf("other run: n=%d err=%v", n, err)
	}

	if _, _, err := crossCheckIndex(ctx, good, "run_a", tune.Seed+1, res.Digests); err == nil || !strings.Contains(err.Error(), "seed") {
		t.Fatalf("expected seed mismatch, got %v", err)
	}

	bad := filepath.Join(dir, "bad.sqlite")
	indexRun(t, bad, "run_a", tune, 25, func(e *sim.FrameLogEntry) {
		if e.Index == 7 {
			e.Digest = strings.Repeat("f", 64)
		}
	})
	if _, _, err := crossCheckIndex(ctx, bad, "run_a", tune.Seed, res.Digests); err == nil || !strings.Contains(err.Error(), "mismatch at 7") {
		t.Fatalf("expected index mismatch at 7, got %v", err)
	}

	longer := filepath.Join(dir, "longer.sqlite")
	indexRun(t, longer, "run_a", tune, 30, nil)
	if _, _, err := crossCheckIndex(ctx, longer, "run_a", tune.Seed, res.Digests); err == nil || !strings.Contains(err.Error(), "not in frame log") {
		t.Fatalf("expected extra row error, got %v", err)
	}
}
