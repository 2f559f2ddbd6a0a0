package results

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/user/lucebench/internal/bench"
	"github.com/user/lucebench/internal/ingest"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	input_size INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL,
	token_count INTEGER NOT NULL,
	index_size_bytes INTEGER NOT NULL,
	queries_tested INTEGER NOT NULL,
	runs_per_query INTEGER NOT NULL,
	valid_runs INTEGER NOT NULL,
	failed_runs INTEGER NOT NULL,
	total_calls INTEGER NOT NULL,
	avg_latency_ms REAL NOT NULL,
	min_latency_ms REAL NOT NULL,
	max_latency_ms REAL NOT NULL,
	p50_latency_ms REAL NOT NULL,
	p95_latency_ms REAL NOT NULL,
	p99_latency_ms REAL NOT NULL,
	std_dev_ms REAL NOT NULL,
	total_time_sec REAL NOT NULL,
	throughput_qps REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	session_id INTEGER NOT NULL REFERENCES sessions(id),
	ts TEXT NOT NULL,
	query TEXT NOT NULL,
	run INTEGER NOT NULL,
	top_k INTEGER NOT NULL,
	api_latency_ms REAL NOT NULL,
	lucene_latency_ms REAL NOT NULL,
	total_hits INTEGER NOT NULL,
	success INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_session ON samples(session_id);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	total_items INTEGER NOT NULL,
	total_batches INTEGER NOT NULL,
	jobs_completed INTEGER NOT NULL,
	jobs_failed INTEGER NOT NULL,
	jobs_timed_out INTEGER NOT NULL,
	total_docs INTEGER NOT NULL,
	total_chunks INTEGER NOT NULL,
	aborted INTEGER NOT NULL,
	total_time_sec REAL NOT NULL
);
`

// Store archives benchmark sessions and ingestion runs in SQLite so past
// results stay queryable without re-parsing CSV files.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// Writes are serialized through a single connection (SQLite requirement).
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	slog.Info("results archive opened", "path", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport stores one session summary with all of its samples and
// returns the session row ID.
func (s *Store) SaveReport(report *bench.Report) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	sum := report.Summary
	res, err := tx.Exec(`INSERT INTO sessions (
		created_at, input_size, chunk_count, token_count, index_size_bytes,
		queries_tested, runs_per_query, valid_runs, failed_runs, total_calls,
		avg_latency_ms, min_latency_ms, max_latency_ms,
		p50_latency_ms, p95_latency_ms, p99_latency_ms, std_dev_ms,
		total_time_sec, throughput_qps
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		sum.InputSize, sum.ChunkCount, sum.TokenCount, sum.IndexSizeBytes,
		sum.QueriesTested, sum.RunsPerQuery, sum.ValidRuns, sum.FailedRuns, sum.TotalCalls,
		sum.Stats.Avg, sum.Stats.Min, sum.Stats.Max,
		sum.Stats.P50, sum.Stats.P95, sum.Stats.P99, sum.Stats.StdDev,
		sum.TotalElapsed, sum.ThroughputQPS,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO samples (
		session_id, ts, query, run, top_k,
		api_latency_ms, lucene_latency_ms, total_hits, success
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, sm := range report.Samples {
		if _, err := stmt.Exec(
			sessionID,
			sm.Timestamp.Format(time.RFC3339Nano),
			sm.Query, sm.Run, sm.TopK,
			sm.APILatencyMs, sm.SearchLatencyMs, sm.TotalHits, boolInt(sm.Success),
		); err != nil {
			return 0, fmt.Errorf("insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return sessionID, nil
}

// SaveIngestRun stores one orchestration run summary.
func (s *Store) SaveIngestRun(sum *ingest.RunSummary) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO ingest_runs (
		created_at, total_items, total_batches,
		jobs_completed, jobs_failed, jobs_timed_out,
		total_docs, total_chunks, aborted, total_time_sec
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		sum.TotalItems, sum.TotalBatches,
		sum.JobsCompleted, sum.JobsFailed, sum.JobsTimedOut,
		sum.TotalDocs, sum.TotalChunks, boolInt(sum.Aborted), sum.TotalElapsed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert ingest run: %w", err)
	}
	return res.LastInsertId()
}

// SessionCount returns the number of archived sessions.
func (s *Store) SessionCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
