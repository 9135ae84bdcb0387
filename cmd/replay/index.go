package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/snrgy-studios/glorb-animator/internal/persistence/indexdb"
)

// defaultIndexPath maps data/runs/<id> to data/index/glorb.sqlite.
func defaultIndexPath(runDir string) string {
	return filepath.Join(filepath.Dir(filepath.Dir(filepath.Clean(runDir))), "index", "glorb.sqlite")
}

// crossCheckIndex compares the indexed run header and digests of runID with
// the replayed seed and the digests read from the frame log. The index is lossy, so missing rows are counted, not
// reported; a row the log does not have, or with another digest, is an error.
// It returns the number of rows compared and whether an index was found.
func crossCheckIndex(ctx context.Context, path, runID string, seed int64, logged map[int]string) (int, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	idx, err := indexdb.OpenSQLite(path, runID)
	if err != nil {
		return 0, true, err
	}
	defer idx.Close()

	runs, err := idx.Runs(ctx)
	if err != nil {
		return 0, true, err
	}
	for _, r := range runs {
		if r.RunID == runID && r.Seed != seed {
			return 0, true, fmt.Errorf("index run %s has seed %d, replay uses %d", runID, r.Seed, seed)
		}
	}

	rows, err := idx.Frames(ctx, runID)
	if err != nil {
		return 0, true, err
	}
	for _, r := range rows {
		want, ok := logged[r.Index]
		if !ok {
			return 0, true, fmt.Errorf("index row %d not in frame log", r.Index)
		}
		if r.Digest != want {
			return 0, true, fmt.Errorf("index digest mismatch at %d: index=%s log=%s", r.Index, r.Digest, want)
		}
	}
	return len(rows), true, nil
}
