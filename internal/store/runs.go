package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/llstack/rtlpipe/internal/report"
)

// BeginRun inserts run with its current (running) status.
func (s *Store) BeginRun(run report.Run) error {
	_, err := s.db.Exec(
		"INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)",
		run.ID, string(run.Status), run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stores the terminal status of run.
func (s *Store) FinishRun(run report.Run) error {
	res, err := s.db.Exec(
		"UPDATE runs SET status = ?, fatal_phase = ?, interrupted = ?, finished_at = ? WHERE id = ?",
		string(run.Status), run.FatalPhase, run.Interrupted, run.FinishedAt.UTC(), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %s: %w", run.ID, ErrRunNotFound)
	}
	return nil
}

// Runs returns up to limit runs, most recent first.
func (s *Store) Runs(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		"SELECT id, status, fatal_phase, interrupted, started_at, finished_at FROM runs ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns a single run by ID.
func (s *Store) Run(id string) (RunRecord, error) {
	row := s.db.QueryRow(
		"SELECT id, status, fatal_phase, interrupted, started_at, finished_at FROM runs WHERE id = ?",
		id,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var r RunRecord
	var finishedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.Status, &r.FatalPhase, &r.Interrupted, &r.StartedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan run: %w", err)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return r, nil
}
