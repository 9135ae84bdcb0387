package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/snrgy-studios/glorb-animator/internal/sim"
	"github.com/snrgy-studios/glorb-animator/internal/tuning"
)

// SQLiteIndex is a queryable secondary copy of the frame log. Writes are
// queued and applied by one goroutine; the JSONL log stays authoritative.
type SQLiteIndex struct {
	db    *sql.DB
	runID string

	ch   chan sim.FrameLogEntry
	wg   sync.WaitGroup
	once sync.Once

	// mu guards closed and every send on ch.
	mu         sync.RWMutex
	closed     bool
	dropFrames atomic.Uint64
}

type Stats struct {
	QueueDepth     int
	QueueCapacity  int
	DropFrameTotal uint64
}

type RunRow struct {
	RunID        string
	Seed         int64
	NumFaces     int
	MinIndex     int
	MaxIndex     int
	Loop         bool
	TuningDigest string
	StartedAt    string
}

type FrameRow struct {
	Index     int
	Digest    string
	Snakes    int
	Food      int
	Longest   int
	Spawned   int
	Died      int
	Eaten     int
	FoodAdded int
}

// OpenSQLite opens (creating if needed) the index at path. Frames written
// through it are attributed to runID.
func OpenSQLite(path, runID string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:    db,
		runID: runID,
		ch:    make(chan sim.FrameLogEntry, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			num_faces INTEGER NOT NULL,
			min_index INTEGER NOT NULL,
			max_index INTEGER NOT NULL,
			loop INTEGER NOT NULL,
			tuning_digest TEXT NOT NULL,
			tuning_json TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS frames (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			digest TEXT NOT NULL,
			snakes INTEGER NOT NULL,
			food INTEGER NOT NULL,
			longest INTEGER NOT NULL,
			spawned INTEGER NOT NULL,
			died INTEGER NOT NULL,
			eaten INTEGER NOT NULL,
			food_added INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_frames_run_longest ON frames(run_id, longest);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordRun stores the run header synchronously. Tuning is kept as the
// canonical JSON of the values actually applied.
func (s *SQLiteIndex) RecordRun(seed int64, numFaces int, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	loop := 0
	if tune.Playback.Loop {
		loop = 1
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs(run_id,seed,num_faces,min_index,max_index,loop,tuning_digest,tuning_json,started_at) VALUES(?,?,?,?,?,?,?,?,?)`,
		s.runID,
		seed,
		numFaces,
		tune.Playback.MinIndex,
		tune.Playback.MaxIndex,
		loop,
		hex.EncodeToString(sum[:]),
		string(b),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// WriteFrame queues entry for indexing and never blocks.
func (s *SQLiteIndex) WriteFrame(entry sim.FrameLogEntry) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
		s.dropFrames.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropFrameTotal: s.dropFrames.Load(),
	}
}

func (s *SQLiteIndex) Runs(ctx context.Context) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,seed,num_faces,min_index,max_index,loop,tuning_digest,started_at FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		var r RunRow
		var loop int
		if err := rows.Scan(&r.RunID, &r.Seed, &r.NumFaces, &r.MinIndex, &r.MaxIndex, &loop, &r.TuningDigest, &r.StartedAt); err != nil {
			return nil, err
		}
		r.Loop = loop != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Frames returns the indexed frames of runID in index order.
func (s *SQLiteIndex) Frames(ctx context.Context, runID string) ([]FrameRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT idx,digest,snakes,food,longest,spawned,died,eaten,food_added FROM frames WHERE run_id=? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FrameRow
	for rows.Next() {
		var r FrameRow
		if err := rows.Scan(&r.Index, &r.Digest, &r.Snakes, &r.Food, &r.Longest, &r.Spawned, &r.Died, &r.Eaten, &r.FoodAdded); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertFrame, _ := s.db.Prepare(`INSERT OR REPLACE INTO frames(run_id,idx,digest,snakes,food,longest,spawned,died,eaten,food_added,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertFrame != nil {
			_ = insertFrame.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for e := range s.ch {
		begin()
		if tx == nil || insertFrame == nil {
			continue
		}
		raw, _ := json.Marshal(e)
		if _, err := tx.Stmt(insertFrame).Exec(
			s.runID,
			e.Index,
			e.Digest,
			e.Snakes,
			e.Food,
			e.Longest,
			len(e.Events.Spawned),
			len(e.Events.Died),
			len(e.Events.Eaten),
			len(e.Events.FoodAdded),
			string(raw),
		); err != nil {
			rollback()
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}
