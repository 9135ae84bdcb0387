package log

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snrgy-studios/glorb-animator/internal/geometry"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
)

func TestFrameLogger_RecordsEveryComputedIndex(t *testing.T) {
	g, err := geometry.NewGlorb(2)
	if err != nil {
		t.Fatalf("NewGlorb: %v", err)
	}
	run := t.TempDir()
	fl := NewFrameLogger(run)

	s := sim.NewSimulator(g, sim.DefaultParams(), sim.NewStream(11), 0)
	s.AddFrameLogger(fl)
	var digests []string
	for i := 0; i < 25; i++ {
		f, err := s.Simulate(i)
		if err != nil {
			t.Fatalf("Simulate(%d): %v", i, err)
		}
		digests = append(digests, f.Digest)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []sim.FrameLogEntry
	if err := ReadFrames(FramesDir(run), func(e sim.FrameLogEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if len(got) != len(digests) {
		t.Fatalf("entries: got %d want %d", len(got), len(digests))
	}
	for i, e := range got {
		if e.Index != i || e.Digest != digests[i] {
			t.Fatalf("entry %d: index=%d digest=%s want %s", i, e.Index, e.Digest, digests[i])
		}
	}
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "frames")
	base := time.Date(2024, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return base }

	if err := w.Write(sim.FrameLogEntry{Index: 0}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	base = base.Add(2 * time.Minute)
	if err := w.Write(sim.FrameLogEntry{Index: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(sim.FrameLogEntry{Index: 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := ListFrameFiles(dir)
	if err != nil {
		t.Fatalf("ListFrameFiles: %v", err)
	}
	want := []string{"frames-2024-03-01-10.jsonl.zst", "frames-2024-03-01-11.jsonl.zst"}
	if len(files) != len(want) {
		t.Fatalf("files: got %v want %v", files, want)
	}
	for i := range want {
		if filepath.Base(files[i]) != want[i] {
			t.Fatalf("files: got %v want %v", files, want)
		}
	}

	var idx []int
	if err := ReadFrames(dir, func(e sim.FrameLogEntry) error {
		idx = append(idx, e.Index)
		return nil
	}); err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if len(idx) != 3 || idx[0] != 0 || idx[1] != 1 || idx[2] != 2 {
		t.Fatalf("indices across rotation: %v", idx)
	}
}

func TestReadFrames_StopsOnCallbackError(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "frames")
	for i := 0; i < 3; i++ {
		if err := w.Write(sim.FrameLogEntry{Index: i}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	_ = w.Close()

	stop := errors.New("stop")
	n := 0
	err := ReadFrames(dir, func(sim.FrameLogEntry) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Fatalf("expected stop after one entry, got n=%d err=%v", n, err)
	}
}

func TestReadFrames_MissingDir(t *testing.T) {
	err := ReadFrames(filepath.Join(t.TempDir(), "nope"), func(sim.FrameLogEntry) error { return nil })
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestJSONLZstdWriter_WriteAfterCloseFails(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "frames")
	if err := w.Write(sim.FrameLogEntry{Index: 0}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Write(sim.FrameLogEntry{Index: 1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write after Close: got %v want ErrClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	var n int
	if err := ReadFrames(dir, func(sim.FrameLogEntry) error { n++; return nil }); err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if n != 1 {
		t.Fatalf("entries after close: got %d want 1", n)
	}
}
