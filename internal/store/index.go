package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quadsopt/quads/internal/quads"
)

const indexSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	method      TEXT NOT NULL,
	function    TEXT NOT NULL,
	sampler     TEXT NOT NULL,
	dim         INTEGER NOT NULL,
	status      TEXT NOT NULL,
	iterations  INTEGER NOT NULL,
	total_evals REAL NOT NULL,
	created_at  TEXT NOT NULL
);
`

// Index is a SQLite summary table of persisted runs, so listing and
// filtering do not require loading every JSON artifact.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if necessary) the run index at dbPath.
func OpenIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(indexSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// InsertRun adds a run's summary row.
func (ix *Index) InsertRun(record *RunRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	_, err := ix.db.Exec(
		`INSERT INTO runs (run_id, method, function, sampler, dim, status, iterations, total_evals, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID, record.Config.Method, record.Config.Function, record.Config.Sampler,
		record.Config.Dim, string(record.Status), record.Iterations, record.TotalEvals,
		record.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun reads one summary row.
func (ix *Index) GetRun(runID string) (RunInfo, error) {
	row := ix.db.QueryRow(
		`SELECT run_id, method, function, sampler, dim, status, iterations, total_evals, created_at
		 FROM runs WHERE run_id = ?`, runID)

	info, err := scanRunInfo(row)
	if err == sql.ErrNoRows {
		return RunInfo{}, &NotFoundError{RunID: runID}
	}
	if err != nil {
		return RunInfo{}, fmt.Errorf("get run: %w", err)
	}
	return info, nil
}

// ListRuns returns all summary rows, newest first.
func (ix *Index) ListRuns() ([]RunInfo, error) {
	rows, err := ix.db.Query(
		`SELECT run_id, method, function, sampler, dim, status, iterations, total_evals, created_at
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		info, err := scanRunInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return infos, nil
}

// DeleteRun removes a run's summary row.
func (ix *Index) DeleteRun(runID string) error {
	res, err := ix.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return &NotFoundError{RunID: runID}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunInfo(row rowScanner) (RunInfo, error) {
	var info RunInfo
	var status, createdAt string
	err := row.Scan(&info.RunID, &info.Method, &info.Function, &info.Sampler,
		&info.Dim, &status, &info.Iterations, &info.TotalEvals, &createdAt)
	if err != nil {
		return RunInfo{}, err
	}
	info.Status = quads.Status(status)
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return RunInfo{}, fmt.Errorf("parse created_at: %w", err)
	}
	info.CreatedAt = ts
	return info, nil
}
