package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/snrgy-studios/glorb-animator/internal/persistence/indexdb"
	"github.com/snrgy-studios/glorb-animator/internal/playback"
	"github.com/snrgy-studios/glorb-animator/internal/transport/observer"
)

func openRuntimeIndex(dataDir, runID string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}
	return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "glorb.sqlite"), runID)
}

type playbackStats interface {
	Stats() playback.Stats
	Paused() bool
}

func newMux(obs *observer.Server, p playbackStats, idx *indexdb.SQLiteIndex) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		st := p.Stats()
		paused := 0
		if p.Paused() {
			paused = 1
		}
		is := idx.Stats()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP glorb_cursor Index most recently presented.\n")
		fmt.Fprintf(rw, "# TYPE glorb_cursor gauge\n")
		fmt.Fprintf(rw, "glorb_cursor %d\n", st.Cursor)

		fmt.Fprintf(rw, "# HELP glorb_highest_index Highest simulated index.\n")
		fmt.Fprintf(rw, "# TYPE glorb_highest_index gauge\n")
		fmt.Fprintf(rw, "glorb_highest_index %d\n", st.Highest)

		fmt.Fprintf(rw, "# HELP glorb_simulate_total Simulation steps computed.\n")
		fmt.Fprintf(rw, "# TYPE glorb_simulate_total counter\n")
		fmt.Fprintf(rw, "glorb_simulate_total %d\n", st.SimulateCalls)

		fmt.Fprintf(rw, "# HELP glorb_paused Whether playback is paused.\n")
		fmt.Fprintf(rw, "# TYPE glorb_paused gauge\n")
		fmt.Fprintf(rw, "glorb_paused %d\n", paused)

		fmt.Fprintf(rw, "# HELP glorb_viewers Connected websocket viewers.\n")
		fmt.Fprintf(rw, "# TYPE glorb_viewers gauge\n")
		fmt.Fprintf(rw, "glorb_viewers %d\n", obs.Viewers())

		fmt.Fprintf(rw, "# HELP glorb_index_dropped_total Frames dropped by the sqlite indexer.\n")
		fmt.Fprintf(rw, "# TYPE glorb_index_dropped_total counter\n")
		fmt.Fprintf(rw, "glorb_index_dropped_total %d\n", is.DropFrameTotal)
	})
	mux.Handle("/v1/", obs.Handler())
	return mux
}

// drain stops every producer of frames: the http listener, the viewer
// connections and the goroutines behind done. The frame sinks may be closed
// once it returns.
func drain(srv *http.Server, obs *observer.Server, done ...<-chan struct{}) {
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(ctx)
		cancel()
	}
	// Shutdown leaves hijacked websocket connections open.
	obs.Close()
	for _, ch := range done {
		<-ch
	}
}
