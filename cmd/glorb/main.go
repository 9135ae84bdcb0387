package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	persistlog "github.com/snrgy-studios/glorb-animator/internal/persistence/log"
	"github.com/snrgy-studios/glorb-animator/internal/playback"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
	"github.com/snrgy-studios/glorb-animator/internal/transport/observer"
	"github.com/snrgy-studios/glorb-animator/internal/tui"
	"github.com/snrgy-studios/glorb-animator/internal/tuning"
	"github.com/snrgy-studios/glorb-animator/internal/viewproto"
)

func main() {
	var (
		addr        = flag.String("addr", "127.0.0.1:8080", "http listen address (empty to disable)")
		tuningPath  = flag.String("tuning", "./configs/glorb.yaml", "path to tuning yaml (empty for built-in defaults)")
		seed        = flag.Int64("seed", 0, "random seed override (0 keeps the tuning seed)")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		runID       = flag.String("run_id", "", "run id (default: run_<uuid>)")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite frame index")
		withTUI     = flag.Bool("tui", false, "draw frames in the terminal")
		allowRemote = flag.Bool("allow_remote", false, "accept viewers from non-loopback addresses")
	)
	flag.Parse()

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	id := strings.TrimSpace(*runID)
	if id == "" {
		id = "run_" + uuid.New().String()
	}
	runDir := filepath.Join(*dataDir, "runs", id)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "create run dir:", err)
		os.Exit(1)
	}

	// The terminal viewer owns stdout; log to the run directory instead.
	var logOut io.Writer = os.Stdout
	if *withTUI {
		f, err := os.OpenFile(filepath.Join(runDir, "glorb.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := log.New(logOut, "[glorb] ", log.LstdFlags|log.Lmicroseconds)

	if err := writeEffectiveTuning(runDir, tune); err != nil {
		logger.Fatalf("write tuning: %v", err)
	}

	g, err := tune.Graph()
	if err != nil {
		logger.Fatalf("build geometry: %v", err)
	}
	pal, err := tune.Colors()
	if err != nil {
		logger.Fatalf("palette: %v", err)
	}
	logger.Printf("run=%s seed=%d faces=%d range=[%d,%d] loop=%v", id, tune.Seed, g.NumFaces(), tune.Playback.MinIndex, tune.Playback.MaxIndex, tune.Playback.Loop)

	s := sim.NewSimulator(g, tune.SimParams(), sim.NewStream(tune.Seed), tune.Playback.MinIndex)
	s.SetLogger(logger)

	frames := persistlog.NewFrameLogger(runDir)
	defer frames.Close()
	s.AddFrameLogger(frames)

	// Optional: read-model index (does not affect determinism).
	idx, err := openRuntimeIndex(*dataDir, id, *disableDB)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.RecordRun(tune.Seed, g.NumFaces(), tune); err != nil {
			logger.Printf("index: record run: %v", err)
		}
		s.AddFrameLogger(idx)
	}

	player, err := playback.New[sim.Frame](tune.PlaybackConfig(), s.Simulate, nil)
	if err != nil {
		logger.Fatalf("playback: %v", err)
	}

	obsLogger := log.New(logOut, "[observer] ", log.LstdFlags|log.Lmicroseconds)
	obs := observer.NewServer(g, player, observer.Options{
		RunID: id,
		Seed:  tune.Seed,
		Playback: viewproto.PlaybackInfo{
			MinIndex:   tune.Playback.MinIndex,
			MaxIndex:   tune.Playback.MaxIndex,
			Loop:       tune.Playback.Loop,
			IntervalMs: tune.Playback.IntervalMs,
		},
		Palette:     pal,
		AllowRemote: *allowRemote,
	}, obsLogger)
	player.AddPresenter(obs.Present)

	ctx, cancel := signalContext()
	defer cancel()

	viewerDone := make(chan struct{})
	if *withTUI {
		screen, err := tcell.NewScreen()
		if err != nil {
			logger.Fatalf("terminal: %v", err)
		}
		if err := screen.Init(); err != nil {
			logger.Fatalf("terminal: %v", err)
		}
		defer screen.Fini()
		viewer := tui.NewViewer(screen, player, g.NumFaces(), pal)
		player.AddPresenter(viewer.Present)
		go func() {
			defer close(viewerDone)
			defer cancel()
			if err := viewer.Run(ctx); err != nil {
				logger.Printf("viewer stopped: %v", err)
			}
		}()
	} else {
		close(viewerDone)
	}

	playerDone := make(chan struct{})
	go func() {
		defer close(playerDone)
		if err := player.Run(ctx, tune.Interval()); err != nil {
			logger.Printf("playback stopped: %v", err)
			cancel()
		}
	}()

	var srv *http.Server
	if strings.TrimSpace(*addr) != "" {
		srv = &http.Server{
			Addr:              *addr,
			Handler:           newMux(obs, player, idx),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Printf("listening on %s", *addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("ListenAndServe: %v", err)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	drain(srv, obs, playerDone, viewerDone)
	st := player.Stats()
	logger.Printf("stopping: cursor=%d highest=%d simulated=%d", st.Cursor, st.Highest, st.SimulateCalls)
}

// writeEffectiveTuning records the values this run actually applies so the
// replay tool can rebuild the same stream. A custom mesh is copied into the
// run directory and referenced relative to it.
func writeEffectiveTuning(runDir string, tune tuning.Tuning) error {
	if tune.MeshOBJ != "" {
		raw, err := os.ReadFile(tune.MeshOBJ)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(runDir, runMeshFile), raw, 0o644); err != nil {
			return err
		}
		tune.MeshOBJ = runMeshFile
	}
	b, err := yaml.Marshal(tune)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, "tuning.yaml"), b, 0o644)
}

const runMeshFile = "mesh.obj"

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
