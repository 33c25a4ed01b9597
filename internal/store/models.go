package store

import "time"

// RunRecord is a stored pipeline run.
type RunRecord struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	FatalPhase  string     `json:"fatal_phase,omitempty"`
	Interrupted bool       `json:"interrupted,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Duration is the wall time of a finished run, zero while it is unfinished.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// PhaseRecord is a stored phase result.
type PhaseRecord struct {
	RunID      string `json:"run_id"`
	Seq        int    `json:"seq"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Module     string `json:"module,omitempty"`
	Policy     string `json:"policy"`
	Status     string `json:"status"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Note       string `json:"note,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
}
