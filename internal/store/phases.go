package store

import (
	"fmt"

	"github.com/llstack/rtlpipe/internal/report"
)

// RecordPhase stores the result at position seq of run runID.
func (s *Store) RecordPhase(runID string, seq int, result report.PhaseResult) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO phase_results
			(run_id, seq, name, kind, module, policy, status, exit_code, duration_ms, note, stderr)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, result.Phase, string(result.Kind), result.Module, string(result.Policy),
		result.Status, result.ExitCode, result.Duration.Milliseconds(), result.Note, result.Stderr,
	)
	if err != nil {
		return fmt.Errorf("record phase %s: %w", result.Phase, err)
	}
	return nil
}

// Phases returns the stored phase results of a run in execution order.
func (s *Store) Phases(runID string) ([]PhaseRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, seq, name, kind, module, policy, status, exit_code, duration_ms, note, stderr
			FROM phase_results WHERE run_id = ? ORDER BY seq ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var phases []PhaseRecord
	for rows.Next() {
		var p PhaseRecord
		if err := rows.Scan(&p.RunID, &p.Seq, &p.Name, &p.Kind, &p.Module, &p.Policy,
			&p.Status, &p.ExitCode, &p.DurationMS, &p.Note, &p.Stderr); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}
