package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/guptarohit/asciigraph"

	persistlog "github.com/snrgy-studios/glorb-animator/internal/persistence/log"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
	"github.com/snrgy-studios/glorb-animator/internal/tuning"
)

func main() {
	var (
		runDir     = flag.String("run", "", "run directory (data/runs/<run_id>)")
		tuningPath = flag.String("tuning", "", "path to tuning yaml (default: <run>/tuning.yaml)")
		toIndex    = flag.Int("to_index", -1, "stop after this index (inclusive, optional)")
		chart      = flag.Bool("chart", true, "print a population chart")
		height     = flag.Int("chart_height", 10, "chart height in rows")
		indexPath  = flag.String("index", "", "sqlite index to cross-check (default: <data>/index/glorb.sqlite, skipped if absent)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags|log.Lmicroseconds)

	if *runDir == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*runDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	g, err := tune.Graph()
	if err != nil {
		fmt.Fprintln(os.Stderr, "geometry:", err)
		os.Exit(1)
	}

	s := sim.NewSimulator(g, tune.SimParams(), sim.NewStream(tune.Seed), tune.Playback.MinIndex)
	res, err := verify(persistlog.FramesDir(*runDir), s, *toIndex)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	if res.Checked == 0 {
		fmt.Fprintln(os.Stderr, "no frames found in", persistlog.FramesDir(*runDir))
		os.Exit(1)
	}
	logger.Printf("replay ok: checked=%d indices [%d,%d] seed=%d", res.Checked, tune.Playback.MinIndex, res.Last, tune.Seed)

	ip := strings.TrimSpace(*indexPath)
	if ip == "" {
		ip = defaultIndexPath(*runDir)
	}
	runID := filepath.Base(filepath.Clean(*runDir))
	n, found, err := crossCheckIndex(context.Background(), ip, runID, tune.Seed, res.Digests)
	if err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	if found {
		logger.Printf("index ok: rows=%d missing=%d", n, res.Checked-n)
	}
	if *chart {
		printChart(os.Stdout, res, *height)
	}
}

type result struct {
	Checked int
	Last    int
	Snakes  []float64
	Longest []float64
	Digests map[int]string
}

// verify re-simulates every logged index and compares digests. Entries must
// be consecutive from the simulator's first index.
func verify(dir string, s *sim.Simulator, toIndex int) (result, error) {
	res := result{Digests: map[int]string{}}
	errStop := errors.New("stop")
	err := persistlog.ReadFrames(dir, func(e sim.FrameLogEntry) error {
		if toIndex >= 0 && e.Index > toIndex {
			return errStop
		}
		f, err := s.Simulate(e.Index)
		if err != nil {
			return fmt.Errorf("index %d: %w", e.Index, err)
		}
		if f.Digest != e.Digest {
			return fmt.Errorf("digest mismatch at index %d: got=%s want=%s", e.Index, f.Digest, e.Digest)
		}
		if len(f.Snakes) != e.Snakes || len(f.Food) != e.Food {
			return fmt.Errorf("count mismatch at index %d: snakes %d/%d food %d/%d", e.Index, len(f.Snakes), e.Snakes, len(f.Food), e.Food)
		}
		res.Checked++
		res.Last = e.Index
		res.Digests[e.Index] = e.Digest
		res.Snakes = append(res.Snakes, float64(e.Snakes))
		res.Longest = append(res.Longest, float64(e.Longest))
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return res, err
	}
	return res, nil
}

func printChart(w io.Writer, res result, height int) {
	if len(res.Snakes) < 2 {
		return
	}
	if height < 2 {
		height = 2
	}
	fmt.Fprintln(w, asciigraph.PlotMany(
		[][]float64{res.Snakes, res.Longest},
		asciigraph.Height(height),
		asciigraph.Width(72),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow),
		asciigraph.Caption("snakes (green) and longest body (yellow) per index"),
	))
}
