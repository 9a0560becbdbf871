// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/intercept/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Store wraps SQLite access for solve runs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			ref TEXT NOT NULL UNIQUE,
			solved_at TEXT NOT NULL,
			speed REAL NOT NULL,
			target_x REAL NOT NULL,
			target_y REAL NOT NULL,
			target_vx REAL NOT NULL,
			target_vy REAL NOT NULL,
			gravity REAL NOT NULL,
			guess_theta REAL NOT NULL,
			guess_t REAL NOT NULL,
			tolerance REAL NOT NULL,
			theta REAL,
			t REAL,
			valid INTEGER NOT NULL,
			verdict TEXT NOT NULL,
			iterations INTEGER NOT NULL,
			residual_x REAL,
			residual_y REAL
		);`,
		`CREATE TABLE IF NOT EXISTS run_iterations (
			run_id INTEGER NOT NULL,
			step INTEGER NOT NULL,
			theta REAL NOT NULL,
			t REAL NOT NULL,
			norm REAL,
			damping REAL NOT NULL,
			PRIMARY KEY (run_id, step)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_solved_at ON runs(solved_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_verdict ON runs(verdict);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a run and its iteration trace. A run without a Ref gets
// a fresh UUID. It returns the stored record with ID and Ref set.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord, iters []model.Iteration) (model.RunRecord, error) {
	if run.Ref == "" {
		run.Ref = uuid.NewString()
	}
	if run.SolvedAt.IsZero() {
		run.SolvedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.RunRecord{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (ref, solved_at, speed, target_x, target_y, target_vx, target_vy, gravity,
			guess_theta, guess_t, tolerance, theta, t, valid, verdict, iterations, residual_x, residual_y)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Ref,
		formatTime(run.SolvedAt),
		run.Scenario.Speed,
		run.Scenario.TargetX,
		run.Scenario.TargetY,
		run.Scenario.TargetVX,
		run.Scenario.TargetVY,
		run.Scenario.Gravity,
		run.Guess.ThetaDeg,
		run.Guess.T,
		run.Tolerance,
		nullableFloat(run.ThetaDeg),
		nullableFloat(run.T),
		boolToInt(run.Valid),
		run.Verdict,
		run.Iterations,
		nullableFloat(run.ResidualX),
		nullableFloat(run.ResidualY),
	)
	if err != nil {
		return model.RunRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.RunRecord{}, err
	}

	if len(iters) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO run_iterations (run_id, step, theta, t, norm, damping)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return model.RunRecord{}, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, it := range iters {
			if _, err = stmt.ExecContext(ctx, id, it.Index, it.ThetaDeg, it.T, nullableFloat(it.Norm), it.Damping); err != nil {
				return model.RunRecord{}, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return model.RunRecord{}, err
	}
	run.ID = id
	return run, nil
}

const runColumns = `id, ref, solved_at, speed, target_x, target_y, target_vx, target_vy, gravity,
	guess_theta, guess_t, tolerance, theta, t, valid, verdict, iterations, residual_x, residual_y`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (model.RunRecord, error) {
	var run model.RunRecord
	var solvedAt string
	var valid int
	var theta, t, rx, ry sql.NullFloat64
	if err := row.Scan(
		&run.ID, &run.Ref, &solvedAt,
		&run.Scenario.Speed, &run.Scenario.TargetX, &run.Scenario.TargetY,
		&run.Scenario.TargetVX, &run.Scenario.TargetVY, &run.Scenario.Gravity,
		&run.Guess.ThetaDeg, &run.Guess.T, &run.Tolerance,
		&theta, &t, &valid, &run.Verdict, &run.Iterations,
		&rx, &ry,
	); err != nil {
		return model.RunRecord{}, err
	}
	run.ThetaDeg = floatOrNaN(theta)
	run.T = floatOrNaN(t)
	run.ResidualX = floatOrNaN(rx)
	run.ResidualY = floatOrNaN(ry)
	parsed, err := time.Parse(timeLayout, solvedAt)
	if err != nil {
		return model.RunRecord{}, err
	}
	run.SolvedAt = parsed
	run.Valid = valid != 0
	return run, nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, id int64) (model.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunRecord{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

// ListRuns returns runs filtered by cfg, oldest first. Last keeps only the
// most recent N runs.
func (s *Store) ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.RunRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Verdict != "" {
		clauses = append(clauses, "verdict = ?")
		args = append(args, cfg.Verdict)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "solved_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT %s FROM runs WHERE %s ORDER BY solved_at DESC, id DESC`, runColumns, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs, nil
}

// ListIterations returns the iteration trace of a run in step order.
func (s *Store) ListIterations(ctx context.Context, runID int64) ([]model.Iteration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, theta, t, norm, damping FROM run_iterations WHERE run_id = ? ORDER BY step ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var iters []model.Iteration
	for rows.Next() {
		var it model.Iteration
		var norm sql.NullFloat64
		if err := rows.Scan(&it.Index, &it.ThetaDeg, &it.T, &norm, &it.Damping); err != nil {
			return nil, err
		}
		it.Norm = floatOrNaN(norm)
		iters = append(iters, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return iters, nil
}

// Fixed-width UTC timestamps keep text ordering equal to time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// SQLite stores NaN as NULL; keep that mapping explicit in both directions.
func nullableFloat(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
