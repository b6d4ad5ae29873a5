// Package store persists experiment runs (hyperparameters and fold scores)
// to a local SQLite database so that tuning sessions can be compared after
// the fact.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shunkawai/amesboost/boosting"
	"github.com/shunkawai/amesboost/pkg/errors"
	"github.com/shunkawai/amesboost/pkg/log"
)

const ddl = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	name       TEXT NOT NULL,
	params     TEXT NOT NULL,
	rmsle      REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS run_scores (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	fold   INTEGER NOT NULL,
	rmsle  REAL NOT NULL,
	PRIMARY KEY (run_id, fold)
);

CREATE INDEX IF NOT EXISTS idx_runs_rmsle ON runs(rmsle);
`

// Run is one recorded experiment: the hyperparameters used and the score
// they achieved.
type Run struct {
	ID         int64
	CreatedAt  time.Time
	Name       string
	Params     boosting.Params
	RMSLE      float64
	FoldScores []float64
}

// Store wraps the SQLite experiment log.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the experiment database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.NewValueError("store.Open", "database path not specified")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "store: failed to open database %s", path)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "store: failed to create schema in %s", path)
	}

	log.GetLoggerWithName("store").Debug("experiment database ready", "path", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a run and its per-fold scores, returning the run ID.
func (s *Store) SaveRun(ctx context.Context, run Run) (int64, error) {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return 0, errors.Wrap(err, "store: failed to encode params")
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "store: failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, name, params, rmsle) VALUES (?, ?, ?, ?)`,
		createdAt.Format(time.RFC3339), run.Name, string(params), run.RMSLE)
	if err != nil {
		return 0, errors.Wrap(err, "store: failed to insert run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "store: failed to read run id")
	}

	for fold, score := range run.FoldScores {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_scores (run_id, fold, rmsle) VALUES (?, ?, ?)`,
			id, fold, score); err != nil {
			return 0, errors.Wrapf(err, "store: failed to insert score for fold %d", fold)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "store: failed to commit run")
	}
	return id, nil
}

// ListRuns returns up to limit runs ordered by score, best first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, name, params, rmsle FROM runs ORDER BY rmsle ASC LIMIT ?`,
		limit)
	if err != nil {
		return nil, errors.Wrap(err, "store: failed to query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			createdAt string
			params    string
		)
		if err := rows.Scan(&run.ID, &createdAt, &run.Name, &params, &run.RMSLE); err != nil {
			return nil, errors.Wrap(err, "store: failed to scan run")
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, errors.Wrap(err, "store: invalid created_at")
		}
		if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
			return nil, errors.Wrap(err, "store: invalid params payload")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "store: failed to iterate runs")
	}

	for i := range runs {
		if runs[i].FoldScores, err = s.foldScores(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// BestRun returns the run with the lowest RMSLE, or nil when none exist.
func (s *Store) BestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func (s *Store) foldScores(ctx context.Context, runID int64) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rmsle FROM run_scores WHERE run_id = ? ORDER BY fold ASC`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "store: failed to query scores for run %d", runID)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, errors.Wrap(err, "store: failed to scan score")
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}
